package playback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eplayer/internal/subtitle"
)

// fakePlayer records the calls the sync engine makes
type fakePlayer struct {
	seeks   []float64
	rates   []float64
	playing bool
}

func (p *fakePlayer) Play()                { p.playing = true }
func (p *fakePlayer) Pause()               { p.playing = false }
func (p *fakePlayer) Seek(seconds float64) { p.seeks = append(p.seeks, seconds) }
func (p *fakePlayer) SetRate(rate float64) { p.rates = append(p.rates, rate) }
func (p *fakePlayer) lastSeek() float64    { return p.seeks[len(p.seeks)-1] }

func testTrack() subtitle.Track {
	return subtitle.Track{
		{ID: 1, StartSeconds: 0, EndSeconds: 2, Text: "one"},
		{ID: 2, StartSeconds: 3, EndSeconds: 5, Text: "two"},
		{ID: 3, StartSeconds: 10, EndSeconds: 15, Text: "three"},
	}
}

func TestHandleProgressTracksActiveCue(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)
	s.SetTrack(testTrack())

	s.HandleProgress(1.0)
	cue, ok := s.ActiveCue()
	require.True(t, ok)
	assert.Equal(t, 1, cue.ID)

	s.HandleProgress(4.0)
	cue, ok = s.ActiveCue()
	require.True(t, ok)
	assert.Equal(t, 2, cue.ID)

	assert.Empty(t, player.seeks)
}

func TestHandleProgressRetainsCueInGap(t *testing.T) {
	s := NewSync(&fakePlayer{})
	s.SetTrack(testTrack())

	s.HandleProgress(4.0)
	assert.Equal(t, 2, s.ActiveIndex())

	// 6.0 falls between cue 2 and cue 3
	s.HandleProgress(6.0)
	cue, ok := s.ActiveCue()
	require.True(t, ok)
	assert.Equal(t, 2, cue.ID)
}

func TestHandleProgressBeforeFirstCue(t *testing.T) {
	s := NewSync(&fakePlayer{})
	s.SetTrack(subtitle.Track{
		{ID: 1, StartSeconds: 5, EndSeconds: 8, Text: "late start"},
	})

	s.HandleProgress(1.0)
	_, ok := s.ActiveCue()
	assert.False(t, ok)
	assert.Equal(t, 0, s.ActiveIndex())
}

func TestRepeatLoopsActiveCue(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)
	s.SetTrack(testTrack())

	s.HandleProgress(12.0)
	assert.Equal(t, 3, s.ActiveIndex())

	s.SetRepeat(true)

	// inside the cue: no seek
	s.HandleProgress(14.0)
	assert.Empty(t, player.seeks)

	// exactly at the end boundary: loop back to the start
	s.HandleProgress(15.0)
	require.Len(t, player.seeks, 1)
	assert.Equal(t, 10.0, player.lastSeek())

	// past the end: loops again
	s.HandleProgress(15.7)
	require.Len(t, player.seeks, 2)
	assert.Equal(t, 10.0, player.lastSeek())

	// the active cue does not advance while repeating
	assert.Equal(t, 3, s.ActiveIndex())
}

func TestRepeatWithNoActiveCueDoesNothing(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)
	s.SetTrack(testTrack())
	s.SetRepeat(true)

	s.HandleProgress(12.0)
	assert.Empty(t, player.seeks)
}

func TestPreviousNextClampAtTrackEdges(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)
	s.SetTrack(testTrack())

	s.HandleProgress(1.0)
	assert.Equal(t, 1, s.ActiveIndex())

	// already at the first cue: Previous stays there
	s.Previous()
	assert.Equal(t, 1, s.ActiveIndex())
	assert.Equal(t, 0.0, player.lastSeek())

	s.Next()
	assert.Equal(t, 2, s.ActiveIndex())
	assert.Equal(t, 3.0, player.lastSeek())

	s.Next()
	s.Next()
	s.Next()
	assert.Equal(t, 3, s.ActiveIndex())
	assert.Equal(t, 10.0, player.lastSeek())
}

func TestPreviousNextOnEmptyTrack(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)

	s.Previous()
	s.Next()
	assert.Empty(t, player.seeks)
}

func TestRateAdjustClamps(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)

	assert.Equal(t, 1.0, s.Rate())

	assert.InDelta(t, 1.1, s.IncreaseRate(), 1e-9)
	assert.InDelta(t, 1.0, s.DecreaseRate(), 1e-9)

	for i := 0; i < 20; i++ {
		s.IncreaseRate()
	}
	assert.Equal(t, MaxRate, s.Rate())

	for i := 0; i < 40; i++ {
		s.DecreaseRate()
	}
	assert.Equal(t, MinRate, s.Rate())
	assert.Equal(t, MinRate, player.rates[len(player.rates)-1])
}

func TestTogglePlay(t *testing.T) {
	player := &fakePlayer{}
	s := NewSync(player)

	assert.True(t, s.TogglePlay())
	assert.True(t, player.playing)
	assert.False(t, s.TogglePlay())
	assert.False(t, player.playing)
}

func TestSetTrackWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mp4")

	s := NewSync(&fakePlayer{})
	s.SetMedia(mediaPath)
	s.SetTrack(testTrack())

	sidecar := filepath.Join(dir, "movie.srt")
	content, err := os.ReadFile(sidecar)
	require.NoError(t, err)

	decoded, err := subtitle.DecodeSRT(string(content))
	require.NoError(t, err)
	assert.Equal(t, testTrack(), decoded)
}

func TestUpdateCueTextRewritesSidecar(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mp4")

	s := NewSync(&fakePlayer{})
	s.SetMedia(mediaPath)
	s.SetTrack(testTrack())

	require.NoError(t, s.UpdateCueText(2, "edited"))

	track, err := subtitle.ReadFile(filepath.Join(dir, "movie.srt"))
	require.NoError(t, err)
	assert.Equal(t, "edited", track[1].Text)

	assert.Error(t, s.UpdateCueText(99, "missing"))
}

func TestSetTrackResetsActiveIndex(t *testing.T) {
	s := NewSync(&fakePlayer{})
	s.SetTrack(testTrack())
	s.HandleProgress(4.0)
	assert.Equal(t, 2, s.ActiveIndex())

	s.SetTrack(testTrack())
	assert.Equal(t, 0, s.ActiveIndex())
}
