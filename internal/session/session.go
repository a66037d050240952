// Package session holds the per-user state of one player instance:
// the authenticated account, the opened media file, and the in-flight
// subtitle generation job. It replaces ambient globals with an
// explicit context object that has well-defined creation (login) and
// teardown (logout / reset-to-home) points.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/text/language"

	"eplayer/internal/assistant"
	"eplayer/internal/fingerprint"
	"eplayer/internal/job"
	"eplayer/internal/playback"
	"eplayer/internal/remote"
	"eplayer/internal/subtitle"
	"eplayer/internal/youtube"
	"eplayer/pkg/file"
	"eplayer/pkg/log"
)

// captionFetcher resolves a network video id to a caption track
type captionFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (subtitle.Track, error)
}

type Session struct {
	client       *remote.Client
	fingerprints *fingerprint.Service
	cache        job.TranscriptCache
	transcriber  job.Transcriber
	biller       job.Biller
	assistant    *assistant.Assistant
	captions     captionFetcher
	sync         *playback.Sync

	mu              sync.Mutex
	user            *remote.User
	token           string
	mediaPath       string
	defaultLanguage string
	activeJob       *job.Job
}

func New(
	client *remote.Client,
	fingerprints *fingerprint.Service,
	cache job.TranscriptCache,
	transcriber job.Transcriber,
	biller job.Biller,
	assist *assistant.Assistant,
	sync *playback.Sync,
) *Session {
	return &Session{
		client:       client,
		fingerprints: fingerprints,
		cache:        cache,
		transcriber:  transcriber,
		biller:       biller,
		assistant:    assist,
		captions:     youtube.NewClient(),
		sync:         sync,
	}
}

// SetDefaultLanguage sets the transcription language used when the
// caller requests none and the loaded track gives no hint
func (s *Session) SetDefaultLanguage(lang string) {
	s.mu.Lock()
	s.defaultLanguage = lang
	s.mu.Unlock()
}

// Login authenticates and binds the session to the account
func (s *Session) Login(ctx context.Context, username, password string) (*remote.User, error) {
	result, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &result.User
	s.token = result.Token
	s.mu.Unlock()

	log.Info("Logged in as %s", result.User.Username)
	return &result.User, nil
}

// Resume binds the session to the account behind an existing bearer
// token, for starts where the token came from configuration instead
// of an interactive login.
func (s *Session) Resume(ctx context.Context, token string) (*remote.User, error) {
	s.client.SetToken(token)
	user, err := s.client.GetUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	log.Info("Resumed session for %s", user.Username)
	return user, nil
}

// Authenticated reports whether the session has a user and token
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.token != ""
}

// User returns the logged-in account, nil when logged out
func (s *Session) User() *remote.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// OpenMedia selects a media file for playback. The content
// fingerprint starts computing in the background; a hashing failure
// only disables the cache features, playback itself proceeds. A
// same-name .srt next to the file is loaded if present.
func (s *Session) OpenMedia(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("media file is not readable: %w", err)
	}

	s.mu.Lock()
	s.mediaPath = path
	s.mu.Unlock()
	s.sync.SetMedia(path)

	go func() {
		if _, err := s.fingerprints.Fingerprint(ctx, path); err != nil {
			log.Error("Failed to fingerprint %s, cache features disabled until retried: %v", path, err)
		}
	}()

	sidecar := file.ReplaceExt(path, ".srt")
	if _, err := os.Stat(sidecar); err == nil {
		track, err := subtitle.ReadFile(sidecar)
		if err != nil {
			log.Warn("Ignoring unreadable sidecar subtitle %s: %v", sidecar, err)
		} else {
			s.sync.SetTrack(track)
		}
	}

	return nil
}

// MediaPath returns the currently opened media file
func (s *Session) MediaPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaPath
}

// GenerateSubtitles runs one subtitle generation job for the opened
// media file and loads the resolved track into playback. On
// cancellation after the transcript was produced, the track is still
// loaded but nothing was persisted or billed.
//
// With an empty lang the transcription language is detected from the
// loaded track (the sidecar, typically), falling back to the
// configured default.
func (s *Session) GenerateSubtitles(ctx context.Context, lang string) (subtitle.Track, error) {
	if lang == "" {
		lang = s.transcriptionLanguage()
	}

	s.mu.Lock()
	if s.user == nil || s.token == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("please log in before generating subtitles")
	}
	if s.mediaPath == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("no media file selected")
	}
	if s.activeJob != nil && !s.activeJob.State().Terminal() {
		s.mu.Unlock()
		return nil, fmt.Errorf("subtitle generation already in progress")
	}

	j := job.New(job.Request{
		MediaPath: s.mediaPath,
		Language:  lang,
		UserID:    s.user.ID,
	}, s.fingerprints, s.cache, s.transcriber, s.biller)
	s.activeJob = j
	s.mu.Unlock()

	track, err := j.Run(ctx)
	if len(track) > 0 {
		s.sync.SetTrack(track)
	}
	return track, err
}

// transcriptionLanguage guesses the language for transcription from
// the cues already loaded for this media
func (s *Session) transcriptionLanguage() string {
	if track := s.sync.Track(); len(track) > 0 {
		if tag := subtitle.DetectLanguage(track); tag != language.Und {
			base, _ := tag.Base()
			return base.String()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultLanguage != "" {
		return s.defaultLanguage
	}
	return "en"
}

// Lookup answers a word lookup through the AI assistant, billing the
// reported token usage to the logged-in user
func (s *Session) Lookup(ctx context.Context, role assistant.Role, prompt string) (*assistant.Reply, error) {
	if s.assistant == nil {
		return nil, fmt.Errorf("no LLM provider configured, set LLM_API_KEY")
	}
	if !s.Authenticated() {
		return nil, fmt.Errorf("please log in before using the assistant")
	}
	return s.assistant.Ask(ctx, role, prompt)
}

// OpenYouTube loads the caption track of a network video into
// playback in place of a local sidecar file
func (s *Session) OpenYouTube(ctx context.Context, rawURL string) (subtitle.Track, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	track, err := s.captions.FetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	s.sync.SetTrack(track)
	return track, nil
}

// CancelGeneration requests cooperative cancellation of the in-flight
// job, if any
func (s *Session) CancelGeneration() {
	s.mu.Lock()
	j := s.activeJob
	s.mu.Unlock()

	if j != nil {
		j.Cancel()
	}
}

// JobState reports the in-flight job state, StateIdle when none
func (s *Session) JobState() job.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeJob == nil {
		return job.StateIdle
	}
	return s.activeJob.State()
}

// Reset returns to the home screen: the in-flight job is cancelled
// and media state cleared. The login survives a reset.
func (s *Session) Reset() {
	s.CancelGeneration()

	s.mu.Lock()
	path := s.mediaPath
	s.mediaPath = ""
	s.activeJob = nil
	s.mu.Unlock()

	if path != "" {
		s.fingerprints.Forget(path)
	}
	s.sync.SetMedia("")
	s.sync.SetTrack(nil)
}

// Logout tears the session down completely
func (s *Session) Logout() {
	s.Reset()

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	s.client.SetToken("")
}
