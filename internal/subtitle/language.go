package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the track language by majority vote over
// per-cue detection
func DetectLanguage(track Track) language.Tag {
	if len(track) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)

	for _, cue := range track {
		lang := whatlanggo.DetectLang(cue.Text).Iso6391()
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
