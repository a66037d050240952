package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"eplayer/internal/assistant"
	"eplayer/internal/billing"
	"eplayer/internal/cache"
	"eplayer/internal/config"
	"eplayer/internal/fingerprint"
	"eplayer/internal/llm"
	"eplayer/internal/persistence"
	"eplayer/internal/playback"
	"eplayer/internal/remote"
	"eplayer/internal/session"
	"eplayer/internal/transcribe"
	"eplayer/pkg/log"
)

// nopPlayer satisfies the playback engine when running headless;
// seeks and rate changes have nowhere to go without a video surface.
type nopPlayer struct{}

func (nopPlayer) Play()           {}
func (nopPlayer) Pause()          {}
func (nopPlayer) Seek(float64)    {}
func (nopPlayer) SetRate(float64) {}

type options struct {
	mediaPath  string
	language   string
	username   string
	password   string
	lookupWord string
	youtubeURL string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.mediaPath, "media", "", "media file to generate subtitles for")
	flag.StringVar(&opts.language, "language", "", "transcription language (detected from loaded subtitles when empty)")
	flag.StringVar(&opts.username, "username", "", "account username")
	flag.StringVar(&opts.password, "password", "", "account password")
	flag.StringVar(&opts.lookupWord, "lookup", "", "look up a word with the AI assistant instead of generating subtitles")
	flag.StringVar(&opts.youtubeURL, "youtube", "", "load the caption track of a YouTube video")
	flag.Parse()

	// Load .env file if present
	_ = godotenv.Load()

	log.InitLogger(log.LevelInfo)

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if err := run(cfg, opts); err != nil {
		log.Fatal("%v", err)
	}
}

func run(cfg *config.Config, opts options) error {
	if opts.mediaPath == "" && opts.lookupWord == "" && opts.youtubeURL == "" {
		return fmt.Errorf("one of -media, -lookup or -youtube is required")
	}

	store, err := persistence.NewSQLiteStore(filepath.Join(cfg.System.DataDir, "eplayer.db"))
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer store.Close()

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.Server.BaseURL,
		Token:   cfg.Server.Token,
		Timeout: cfg.Server.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server client: %w", err)
	}

	biller := billing.NewBiller(client, store)
	reconciler := billing.NewReconciler(biller, store)

	c := cron.New()
	if err := reconciler.Schedule(c, cfg.System.ReconcileCron); err != nil {
		return fmt.Errorf("failed to schedule billing reconciliation: %w", err)
	}
	c.Start()
	defer c.Stop()

	fingerprints := fingerprint.NewService(store)
	transcriptCache := cache.NewClient(client, biller)
	transcriber, err := transcribe.NewClient(transcribe.Config{
		BaseURL: cfg.Whisper.BaseURL,
		Token:   cfg.Server.Token,
		Timeout: cfg.Whisper.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcription client: %w", err)
	}

	var assist *assistant.Assistant
	if cfg.LLM.APIKey != "" {
		llmClient, err := llm.NewClient(&llm.Config{
			APIKey:      cfg.LLM.APIKey,
			APIURL:      cfg.LLM.APIURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		assist = assistant.New(llmClient, biller)
	}

	sync := playback.NewSync(nopPlayer{})
	sess := session.New(client, fingerprints, transcriptCache, transcriber, biller, assist, sync)
	sess.SetDefaultLanguage(cfg.Whisper.Language)

	ctx := context.Background()

	switch {
	case opts.username != "":
		if _, err := sess.Login(ctx, opts.username, opts.password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	case cfg.Server.Token != "":
		if _, err := sess.Resume(ctx, cfg.Server.Token); err != nil {
			return fmt.Errorf("failed to resume session from EPLAYER_TOKEN: %w", err)
		}
	}

	if opts.lookupWord != "" {
		reply, err := sess.Lookup(ctx, assistant.RoleDictionary, opts.lookupWord)
		if err != nil {
			return err
		}
		log.Info("%s ($%.6f)", reply.Text, reply.Cost)
		return nil
	}

	if opts.youtubeURL != "" {
		track, err := sess.OpenYouTube(ctx, opts.youtubeURL)
		if err != nil {
			return fmt.Errorf("failed to load video captions: %w", err)
		}
		log.Info("Loaded %d caption cues from %s", len(track), opts.youtubeURL)
		return nil
	}

	if err := sess.OpenMedia(ctx, opts.mediaPath); err != nil {
		return err
	}

	track, err := sess.GenerateSubtitles(ctx, opts.language)
	if err != nil {
		return fmt.Errorf("subtitle generation failed: %w", err)
	}

	log.Info("Generated %d subtitle cues for %s", len(track), opts.mediaPath)
	return nil
}
