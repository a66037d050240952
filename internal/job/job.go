package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"eplayer/internal/remote"
	"eplayer/internal/subtitle"
	"eplayer/pkg/log"
)

// Job drives one subtitle generation attempt through
// fingerprinting, cache lookup, transcription, persistence and
// billing. Steps execute strictly in that order; cancellation is
// cooperative and observed at every suspension point.
//
// A job is ephemeral: create one per attempt, run it once, read the
// result, let it go.
type Job struct {
	ID      string
	request Request

	fingerprints Fingerprinter
	cache        TranscriptCache
	transcriber  Transcriber
	biller       Biller

	cancelled atomic.Bool

	mu       sync.Mutex
	state    State
	track    subtitle.Track
	duration float64
	cost     float64
}

func New(req Request, fingerprints Fingerprinter, cache TranscriptCache, transcriber Transcriber, biller Biller) *Job {
	return &Job{
		ID:           uuid.NewString(),
		request:      req,
		fingerprints: fingerprints,
		cache:        cache,
		transcriber:  transcriber,
		biller:       biller,
		state:        StateIdle,
	}
}

// Cancel requests cooperative cancellation. Work already handed to
// the transcription engine keeps running; its result is discarded at
// the next suspension point.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// State returns the current state
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cost returns the amount charged to the user by this job
func (j *Job) Cost() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cost
}

// Track returns the resolved cues, if the job got far enough to
// produce any
func (j *Job) Track() subtitle.Track {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.track
}

// Duration returns the media duration reported with the transcript
func (j *Job) Duration() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.duration
}

// Run executes the state machine. It returns the resolved track on
// success. On cancellation it returns ErrCancelled together with any
// track the transcription had already produced: the user keeps their
// result, but nothing is persisted or billed.
func (j *Job) Run(ctx context.Context) (subtitle.Track, error) {
	// precondition: the fingerprint must already be computed; the UI
	// disables generation until it is
	if _, ok := j.fingerprints.Known(j.request.MediaPath); !ok {
		return nil, fmt.Errorf("media fingerprint is not ready, try again shortly")
	}

	j.setState(StateFingerprinting)
	md5, err := j.fingerprints.Fingerprint(ctx, j.request.MediaPath)
	if err != nil {
		return nil, j.fail(fmt.Errorf("failed to fingerprint media: %w", err))
	}
	if j.checkCancelled() {
		return nil, ErrCancelled
	}

	j.setState(StateCacheLookup)
	record, err := j.cache.Lookup(ctx, md5)
	switch {
	case err == nil:
		return j.runCacheHit(ctx, record)
	case remote.IsNotFound(err):
		// expected miss, generate below
	default:
		// transient failures were already retried by the transport
		return nil, j.fail(fmt.Errorf("subtitle cache lookup failed: %w", err))
	}
	if j.checkCancelled() {
		return nil, ErrCancelled
	}

	j.setState(StateTranscribing)
	log.Info("Transcribing %s (language %s)", j.request.MediaPath, j.request.Language)
	result, err := j.transcriber.Transcribe(ctx, j.request.MediaPath, j.request.Language)
	if err != nil {
		return nil, j.fail(fmt.Errorf("transcription failed: %w", err))
	}
	j.setResult(result.Track, result.DurationSeconds)

	// cancellation observed after transcription finished: the cues
	// are shown locally but persistence and billing are suppressed
	if j.checkCancelled() {
		return result.Track, ErrCancelled
	}

	j.setState(StatePersisting)
	if err := j.cache.Persist(ctx, md5, result.Track, result.DurationSeconds, j.request.UserID); err != nil {
		return nil, j.fail(fmt.Errorf("failed to persist generated subtitle: %w", err))
	}

	cost, err := j.biller.ChargeTranscription(ctx, result.DurationSeconds)
	if err != nil {
		// journaled for reconciliation by the biller; the generated
		// subtitles are still handed to the user
		log.Error("Owner billing for %s failed, queued for reconciliation: %v", md5, err)
	}
	j.setCost(cost)

	j.setState(StateDone)
	return result.Track, nil
}

func (j *Job) runCacheHit(ctx context.Context, record *remote.SubtitleRecord) (subtitle.Track, error) {
	j.setState(StateCacheHit)
	log.Info("Cache hit for %s, %d cues", record.MD5, len(record.Subtitle))

	if j.checkCancelled() {
		return record.Subtitle, ErrCancelled
	}

	cost, err := j.cache.Attribute(ctx, record, j.request.UserID)
	if err != nil {
		log.Error("Failed to attribute playback of %s: %v", record.MD5, err)
	}
	j.setCost(cost)
	j.setResult(record.Subtitle, record.VideoDuration)

	j.setState(StateDone)
	return record.Subtitle, nil
}

func (j *Job) setState(state State) {
	j.mu.Lock()
	j.state = state
	j.mu.Unlock()
}

func (j *Job) setResult(track subtitle.Track, durationSeconds float64) {
	j.mu.Lock()
	j.track = track
	j.duration = durationSeconds
	j.mu.Unlock()
}

func (j *Job) setCost(cost float64) {
	j.mu.Lock()
	j.cost = cost
	j.mu.Unlock()
}

func (j *Job) fail(err error) error {
	j.setState(StateFailed)
	return err
}

// checkCancelled observes the cancellation flag at a suspension
// point and absorbs the job into the cancelled state
func (j *Job) checkCancelled() bool {
	if !j.cancelled.Load() {
		return false
	}
	j.setState(StateCancelled)
	log.Info("Subtitle generation for %s cancelled", j.request.MediaPath)
	return true
}
