// Package playback maps the advancing playback clock of an opaque
// player onto the discrete cue sequence of a subtitle track.
package playback

import (
	"fmt"
	"sync"

	"eplayer/internal/subtitle"
	"eplayer/pkg/file"
	"eplayer/pkg/log"
)

// Player is the opaque media player the sync engine drives
type Player interface {
	Play()
	Pause()
	Seek(seconds float64)
	SetRate(multiplier float64)
}

// Playback rate bounds from the keyboard shortcuts
const (
	MinRate  = 0.5
	MaxRate  = 2.0
	RateStep = 0.1
)

// Sync tracks the active cue for the current clock position and
// drives repeat looping and manual cue navigation.
//
// The active index is 1-based (cue ids). In a gap between cues the
// previous active cue is retained rather than cleared, so the
// subtitle display does not flicker during small gaps.
type Sync struct {
	player Player

	mu          sync.Mutex
	track       subtitle.Track
	mediaPath   string
	currentTime float64
	activeIndex int // 1-based, 0 until a cue has been active
	repeat      bool
	rate        float64
	playing     bool
}

func NewSync(player Player) *Sync {
	return &Sync{
		player: player,
		rate:   1.0,
	}
}

// SetMedia points the engine at a media file; the sidecar subtitle
// file is written next to it
func (s *Sync) SetMedia(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaPath = path
}

// SetTrack replaces the subtitle track and re-serializes the sidecar
// file. A failed sidecar write is logged and does not break playback.
func (s *Sync) SetTrack(track subtitle.Track) {
	s.mu.Lock()
	s.track = track
	s.activeIndex = 0
	s.mu.Unlock()

	s.writeSidecar()
}

// Track returns the current track
func (s *Sync) Track() subtitle.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// UpdateCueText edits one cue's text and re-serializes the sidecar
func (s *Sync) UpdateCueText(id int, text string) error {
	s.mu.Lock()
	updated := false
	for i := range s.track {
		if s.track[i].ID == id {
			s.track[i].Text = text
			updated = true
			break
		}
	}
	s.mu.Unlock()

	if !updated {
		return fmt.Errorf("no cue with id %d", id)
	}
	s.writeSidecar()
	return nil
}

// HandleProgress consumes one clock update from the player.
//
// In repeat mode, once the clock passes the active cue's end the
// player is seeked back to the cue's start, closing the loop. In
// normal mode the cue whose interval contains the clock becomes
// active; when no cue matches, the previous index is retained.
func (s *Sync) HandleProgress(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentTime = seconds

	if len(s.track) == 0 {
		return
	}

	if s.repeat {
		if s.activeIndex >= 1 && s.activeIndex <= len(s.track) {
			cue := s.track[s.activeIndex-1]
			if s.currentTime >= cue.EndSeconds {
				s.player.Seek(cue.StartSeconds)
			}
		}
		return
	}

	for _, cue := range s.track {
		if s.currentTime >= cue.StartSeconds && s.currentTime <= cue.EndSeconds {
			s.activeIndex = cue.ID
			return
		}
	}
	// gap between cues: keep the previous active cue
}

// ActiveCue returns the currently highlighted cue, if any
func (s *Sync) ActiveCue() (subtitle.Cue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeIndex < 1 || s.activeIndex > len(s.track) {
		return subtitle.Cue{}, false
	}
	return s.track[s.activeIndex-1], true
}

// ActiveIndex returns the 1-based active cue index, 0 if none yet
func (s *Sync) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex
}

// CurrentTime returns the last observed clock position
func (s *Sync) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Previous jumps to the start of the previous cue, clamped at the
// first cue. Works the same in repeat mode.
func (s *Sync) Previous() {
	s.step(-1)
}

// Next jumps to the start of the next cue, clamped at the last cue
func (s *Sync) Next() {
	s.step(1)
}

func (s *Sync) step(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.track) == 0 {
		return
	}

	newIndex := s.activeIndex + delta
	if newIndex < 1 {
		newIndex = 1
	}
	if newIndex > len(s.track) {
		newIndex = len(s.track)
	}

	s.activeIndex = newIndex
	s.player.Seek(s.track[newIndex-1].StartSeconds)
}

// SetRepeat toggles single-cue repeat looping
func (s *Sync) SetRepeat(repeat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = repeat
}

// Repeat reports whether repeat looping is on
func (s *Sync) Repeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// TogglePlay flips between playing and paused and returns the new
// playing state
func (s *Sync) TogglePlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = !s.playing
	if s.playing {
		s.player.Play()
	} else {
		s.player.Pause()
	}
	return s.playing
}

// IncreaseRate speeds playback up one step, clamped at MaxRate
func (s *Sync) IncreaseRate() float64 {
	return s.adjustRate(RateStep)
}

// DecreaseRate slows playback down one step, clamped at MinRate
func (s *Sync) DecreaseRate() float64 {
	return s.adjustRate(-RateStep)
}

func (s *Sync) adjustRate(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := s.rate + delta
	if rate < MinRate {
		rate = MinRate
	}
	if rate > MaxRate {
		rate = MaxRate
	}
	s.rate = rate
	s.player.SetRate(rate)
	return rate
}

// Rate returns the current playback rate
func (s *Sync) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// writeSidecar mirrors the in-memory track to an .srt file next to
// the media file
func (s *Sync) writeSidecar() {
	s.mu.Lock()
	track := s.track
	mediaPath := s.mediaPath
	s.mu.Unlock()

	if len(track) == 0 || mediaPath == "" {
		return
	}

	sidecarPath := file.ReplaceExt(mediaPath, ".srt")
	if err := subtitle.WriteFile(sidecarPath, track); err != nil {
		log.Error("Failed to save subtitle file %s: %v", sidecarPath, err)
		return
	}
	log.Info("Subtitle file saved: %s", sidecarPath)
}
