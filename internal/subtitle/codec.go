package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SRT time line format: 00:02:16,612 --> 00:02:19,376
var timeLineRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// DecodeSRT parses SRT text into a track.
// Blocks are id / time line / text lines, separated by blank lines.
// Non-numeric lines where an id is expected are skipped; a malformed
// time line is an error.
func DecodeSRT(content string) (Track, error) {
	var track Track

	current := Cue{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue // skip non-index lines
			}
			current.ID = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseTimeLine(line)
			if err != nil {
				return nil, fmt.Errorf("failed to parse time: %w", err)
			}
			current.StartSeconds = start
			current.EndSeconds = end
			state = "text"
			textLines = []string{}

		case "text":
			if line == "" {
				// cue text ends
				if len(textLines) > 0 {
					current.Text = strings.Join(textLines, "\n")
					track = append(track, current)
					current = Cue{}
				}
				state = "index"
				textLines = []string{}
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// handle last cue without trailing blank line
	if state == "text" && len(textLines) > 0 {
		current.Text = strings.Join(textLines, "\n")
		track = append(track, current)
	}

	return track, nil
}

// EncodeSRT serializes a track back to SRT text.
// DecodeSRT(EncodeSRT(t)) reproduces t exactly for tracks whose
// times are at millisecond precision.
func EncodeSRT(track Track) string {
	var b strings.Builder

	for _, cue := range track {
		fmt.Fprintf(&b, "%d\n", cue.ID)
		fmt.Fprintf(&b, "%s --> %s\n", FormatSeconds(cue.StartSeconds), FormatSeconds(cue.EndSeconds))
		fmt.Fprintf(&b, "%s\n\n", cue.Text)
	}

	return b.String()
}

// FormatSeconds formats a position in seconds as HH:MM:SS,mmm
func FormatSeconds(seconds float64) string {
	totalMs := int64(math.Round(seconds * 1000))
	if totalMs < 0 {
		totalMs = 0
	}

	hours := totalMs / 3600000
	minutes := (totalMs / 60000) % 60
	secs := (totalMs / 1000) % 60
	ms := totalMs % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms)
}

func parseTimeLine(line string) (float64, float64, error) {
	matches := timeLineRe.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", line)
	}

	parse := func(hours, minutes, seconds, milliseconds string) float64 {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		ms, _ := strconv.Atoi(milliseconds)

		totalMs := int64(h)*3600000 + int64(m)*60000 + int64(s)*1000 + int64(ms)
		return float64(totalMs) / 1000.0
	}

	start := parse(matches[1], matches[2], matches[3], matches[4])
	end := parse(matches[5], matches[6], matches[7], matches[8])

	return start, end, nil
}
