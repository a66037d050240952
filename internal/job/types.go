package job

import (
	"context"
	"errors"

	"eplayer/internal/remote"
	"eplayer/internal/subtitle"
)

type State string

const (
	StateIdle           State = "idle"
	StateFingerprinting State = "fingerprinting"
	StateCacheLookup    State = "cache_lookup"
	StateCacheHit       State = "cache_hit"
	StateTranscribing   State = "transcribing"
	StatePersisting     State = "persisting"
	StateDone           State = "done"
	StateCancelled      State = "cancelled"
	StateFailed         State = "failed"
)

// Terminal reports whether the job has finished, one way or another
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// ErrCancelled is returned by Run when the cancellation flag was
// observed. The job may still carry a displayable track when the
// transcription had already produced one.
var ErrCancelled = errors.New("subtitle generation cancelled")

// TranscriptionResult is what the opaque transcription engine returns
type TranscriptionResult struct {
	DurationSeconds float64        `json:"duration"`
	Track           subtitle.Track `json:"subtitles"`
}

// Transcriber is the opaque transcription engine. Transcribe may take
// minutes and cannot be preempted once invoked; only its result can
// be discarded.
type Transcriber interface {
	Transcribe(ctx context.Context, path, language string) (*TranscriptionResult, error)
}

// Fingerprinter provides the media content fingerprint
type Fingerprinter interface {
	Known(path string) (string, bool)
	Fingerprint(ctx context.Context, path string) (string, error)
}

// TranscriptCache is the shared fingerprint-keyed subtitle cache
type TranscriptCache interface {
	Lookup(ctx context.Context, md5 string) (*remote.SubtitleRecord, error)
	Attribute(ctx context.Context, record *remote.SubtitleRecord, userID string) (float64, error)
	Persist(ctx context.Context, md5 string, track subtitle.Track, durationSeconds float64, ownerID string) error
}

// Biller charges the owning user after a successful generation
type Biller interface {
	ChargeTranscription(ctx context.Context, durationSeconds float64) (float64, error)
}

// Request describes one generation attempt
type Request struct {
	MediaPath string
	Language  string // transcription language code, e.g. "en"
	UserID    string
}
