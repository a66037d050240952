// Package youtube fetches caption transcripts for network videos
// and normalizes them into subtitle tracks.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eplayer/internal/subtitle"
	"eplayer/pkg/log"
)

// Caption languages tried in priority order
var preferredLanguages = []string{"en", "zh-TW", "ja", "zh-Hant", "ko", "zh", "es", "fr"}

const timedTextURL = "https://www.youtube.com/api/timedtext"

type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		endpoint: timedTextURL,
	}
}

// transcript JSON3 wire format
type transcriptJSON struct {
	Events []struct {
		TStartMs    *float64 `json:"tStartMs"`
		DDurationMs *float64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// FetchTranscript downloads the caption track for a video, trying
// the preferred languages in order, and returns it as a subtitle
// track. Auto-generated caption streams are merged into full lines.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (subtitle.Track, error) {
	var lastErr error
	for _, lang := range preferredLanguages {
		raw, err := c.fetchTimedText(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}

		track, err := parseTranscript(raw)
		if err != nil {
			lastErr = err
			continue
		}
		if len(track) == 0 {
			continue
		}

		log.Info("Fetched %d caption cues for %s (language %s)", len(track), videoID, lang)
		return MergeAutoCaptions(track), nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no captions available for video %s: %w", videoID, lastErr)
	}
	return nil, fmt.Errorf("no captions available for video %s", videoID)
}

func (c *Client) fetchTimedText(ctx context.Context, videoID, lang string) ([]byte, error) {
	query := url.Values{
		"v":    {videoID},
		"lang": {lang},
		"fmt":  {"json3"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("no %s captions", lang)
	}
	return body, nil
}

// parseTranscript flattens JSON3 events and segments into cues
func parseTranscript(raw []byte) (subtitle.Track, error) {
	var root transcriptJSON
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}

	var track subtitle.Track
	for i, event := range root.Events {
		if event.TStartMs == nil || event.DDurationMs == nil || len(event.Segs) == 0 {
			continue
		}
		start := *event.TStartMs / 1000.0
		end := start + *event.DDurationMs/1000.0

		for _, seg := range event.Segs {
			track = append(track, subtitle.Cue{
				ID:           i + 1,
				StartSeconds: start,
				EndSeconds:   end,
				Text:         seg.UTF8,
			})
		}
	}

	return track, nil
}

// MergeAutoCaptions detects auto-generated caption streams and merges
// their word-level segments into full lines.
//
// Auto-generated captions arrive as many segments sharing start/end
// times, with a newline marking the end of a display line. When the
// leading cues show that pattern, segments are accumulated until a
// newline, each merged line starts at the first segment's start, and
// a line's end time is the start of the following line.
func MergeAutoCaptions(track subtitle.Track) subtitle.Track {
	if !looksAutoGenerated(track) {
		return track
	}

	var merged subtitle.Track
	currentText := ""
	currentStart := -1.0
	currentID := 1

	for _, cue := range track {
		if strings.Contains(cue.Text, "\n") {
			// a newline segment closes the current display line
			currentText += cue.Text
			merged = append(merged, subtitle.Cue{
				ID:           currentID,
				StartSeconds: currentStart,
				EndSeconds:   cue.EndSeconds,
				Text:         strings.ReplaceAll(currentText, "\n", ""),
			})
			// the previous line is displayed until this one starts
			if currentID > 1 {
				merged[currentID-2].EndSeconds = currentStart
			}
			currentText = ""
			currentStart = -1.0
			currentID++
		} else {
			if currentStart == -1.0 {
				currentStart = cue.StartSeconds
			}
			currentText += cue.Text
		}
	}

	return merged
}

// looksAutoGenerated checks whether the leading cues share start or
// end times, the signature of word-level auto captions
func looksAutoGenerated(track subtitle.Track) bool {
	if len(track) < 10 {
		return false
	}
	for i := 0; i < 9; i++ {
		if track[i].StartSeconds == track[i+1].StartSeconds || track[i].EndSeconds == track[i+1].EndSeconds {
			return true
		}
	}
	return false
}

// ExtractVideoID pulls the video id out of a watch URL, handling
// both youtu.be short links and youtube.com/watch?v= links
func ExtractVideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid video URL: %w", err)
	}

	if strings.Contains(parsed.Host, "youtu.be") {
		return strings.TrimPrefix(parsed.Path, "/"), nil
	}

	id := parsed.Query().Get("v")
	if id == "" {
		return "", fmt.Errorf("no video id in URL: %s", rawURL)
	}
	return id, nil
}
