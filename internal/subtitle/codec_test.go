package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello, world!

2
00:00:05,500 --> 00:00:08,250
Second line
with a continuation

3
01:02:03,456 --> 01:02:05,789
Third cue
`

func TestDecodeSRT(t *testing.T) {
	track, err := DecodeSRT(sampleSRT)
	require.NoError(t, err)
	require.Len(t, track, 3)

	assert.Equal(t, 1, track[0].ID)
	assert.Equal(t, 1.0, track[0].StartSeconds)
	assert.Equal(t, 4.0, track[0].EndSeconds)
	assert.Equal(t, "Hello, world!", track[0].Text)

	assert.Equal(t, "Second line\nwith a continuation", track[1].Text)
	assert.Equal(t, 5.5, track[1].StartSeconds)
	assert.Equal(t, 8.25, track[1].EndSeconds)

	assert.Equal(t, 3723.456, track[2].StartSeconds)
	assert.Equal(t, 3725.789, track[2].EndSeconds)
}

func TestDecodeSRTWithoutTrailingNewline(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\nlast block has no blank line after it"
	track, err := DecodeSRT(content)
	require.NoError(t, err)
	require.Len(t, track, 1)
	assert.Equal(t, "last block has no blank line after it", track[0].Text)
}

func TestDecodeSRTSkipsGarbageBetweenBlocks(t *testing.T) {
	content := "WEBVTT-ish junk line\n\n1\n00:00:01,000 --> 00:00:02,000\nreal cue\n"
	track, err := DecodeSRT(content)
	require.NoError(t, err)
	require.Len(t, track, 1)
	assert.Equal(t, "real cue", track[0].Text)
}

func TestDecodeSRTRejectsBadTimeLine(t *testing.T) {
	content := "1\n00:00:01.000 -> 00:00:02\nbroken\n"
	_, err := DecodeSRT(content)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Track{
		{ID: 1, StartSeconds: 0.001, EndSeconds: 1.999, Text: "first"},
		{ID: 2, StartSeconds: 12.345, EndSeconds: 15.0, Text: "two\nlines"},
		{ID: 3, StartSeconds: 3599.999, EndSeconds: 3600.5, Text: "hour boundary"},
	}

	decoded, err := DecodeSRT(EncodeSRT(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatSeconds(0))
	assert.Equal(t, "00:00:01,500", FormatSeconds(1.5))
	assert.Equal(t, "01:02:03,456", FormatSeconds(3723.456))
	// sub-millisecond values round to the nearest millisecond
	assert.Equal(t, "00:00:01,000", FormatSeconds(0.9999))
}

func TestTrackDuration(t *testing.T) {
	track := Track{
		{ID: 1, StartSeconds: 0, EndSeconds: 2},
		{ID: 2, StartSeconds: 5, EndSeconds: 9.5},
	}
	assert.Equal(t, 9.5, track.Duration())
	assert.Equal(t, 0.0, Track{}.Duration())
}

func TestTrackRenumber(t *testing.T) {
	track := Track{
		{ID: 7, Text: "a"},
		{ID: 3, Text: "b"},
	}
	track.Renumber()
	assert.Equal(t, 1, track[0].ID)
	assert.Equal(t, 2, track[1].ID)
}
