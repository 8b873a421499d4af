package generation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"coachcast/internal/config"
	"coachcast/internal/logging"
	"coachcast/internal/queue"
	"coachcast/internal/services/did"
	"coachcast/internal/services/elevenlabs"
	"coachcast/internal/services/heygen"
	"coachcast/internal/storage"
)

// SpeechSynthesizer converts text into compressed audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// AudioStore persists audio objects and resolves their public URLs.
type AudioStore interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) error
	PublicURL(objectPath string) string
}

// AvatarVideoCreator dispatches a fire-and-forget avatar render.
type AvatarVideoCreator interface {
	CreateVideo(ctx context.Context, avatarID, audioURL string) (string, error)
}

// TalkService dispatches and polls a talking-photo render.
type TalkService interface {
	CreateTalk(ctx context.Context, sourceImageURL, audioURL string) (string, error)
	GetTalk(ctx context.Context, talkID string) (did.Talk, error)
}

// Generator orchestrates the coach-video pipeline: voice resolution, speech
// synthesis, audio upload, provider dispatch, and the job-row lifecycle.
// Provider clients are nil when their credential is absent; the pipeline
// reports a configuration failure before any network call in that case.
type Generator struct {
	store  *queue.Store
	logger *slog.Logger

	speech SpeechSynthesizer
	audio  AudioStore
	heygen AvatarVideoCreator
	did    TalkService

	defaultProvider queue.Provider
	defaultVoiceID  string
	defaultAvatarID string
	coachVoices     map[string]string
	coachImages     map[string]string
	imageBaseURL    string
	defaultImage    string

	pollInterval time.Duration
	maxAttempts  int

	mu      sync.Mutex
	pollCtx context.Context
	cancel  context.CancelFunc
	pollers sync.WaitGroup
}

// Option customizes a Generator, primarily for injecting fakes in tests.
type Option func(*Generator)

// WithSpeech overrides the speech-synthesis client.
func WithSpeech(s SpeechSynthesizer) Option {
	return func(g *Generator) { g.speech = s }
}

// WithAudioStore overrides the audio object store.
func WithAudioStore(s AudioStore) Option {
	return func(g *Generator) { g.audio = s }
}

// WithHeyGen overrides the HeyGen dispatch client.
func WithHeyGen(c AvatarVideoCreator) Option {
	return func(g *Generator) { g.heygen = c }
}

// WithDID overrides the D-ID talk client.
func WithDID(c TalkService) Option {
	return func(g *Generator) { g.did = c }
}

// WithPollCadence overrides the poll interval and attempt budget.
func WithPollCadence(interval time.Duration, attempts int) Option {
	return func(g *Generator) {
		if interval > 0 {
			g.pollInterval = interval
		}
		if attempts > 0 {
			g.maxAttempts = attempts
		}
	}
}

// New builds a Generator from configuration. Real HTTP clients are
// constructed only for providers whose credentials are present.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}

	provider, ok := queue.ParseProvider(cfg.Coaches.DefaultProvider)
	if !ok {
		provider = queue.ProviderDID
	}

	g := &Generator{
		store:           store,
		logger:          logging.NewComponentLogger(logger, "generation"),
		defaultProvider: provider,
		defaultVoiceID:  cfg.Speech.DefaultVoiceID,
		defaultAvatarID: cfg.HeyGen.DefaultAvatarID,
		coachVoices:     cfg.Coaches.Voices,
		coachImages:     cfg.Coaches.Images,
		imageBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.Coaches.ImageBaseURL), "/"),
		defaultImage:    cfg.Coaches.DefaultImage,
		pollInterval:    time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second,
		maxAttempts:     cfg.Workflow.MaxPollAttempts,
	}
	if g.pollInterval <= 0 {
		g.pollInterval = 5 * time.Second
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = 60
	}

	if strings.TrimSpace(cfg.Speech.APIKey) != "" {
		g.speech = elevenlabs.NewClient(cfg.Speech.APIKey,
			elevenlabs.WithBaseURL(cfg.Speech.BaseURL),
			elevenlabs.WithModelID(cfg.Speech.ModelID))
	}
	if strings.TrimSpace(cfg.Storage.ServiceKey) != "" && strings.TrimSpace(cfg.Storage.URL) != "" {
		g.audio = storage.NewClient(cfg.Storage)
	}
	if strings.TrimSpace(cfg.HeyGen.APIKey) != "" {
		g.heygen = heygen.NewClient(cfg.HeyGen.APIKey, heygen.WithBaseURL(cfg.HeyGen.BaseURL))
	}
	if strings.TrimSpace(cfg.DID.APIKey) != "" {
		g.did = did.NewClient(cfg.DID.APIKey, did.WithBaseURL(cfg.DID.BaseURL))
	}

	for _, opt := range opts {
		opt(g)
	}

	g.pollCtx, g.cancel = context.WithCancel(context.Background())
	return g
}

// Start binds the lifetime of detached pollers to ctx. Pollers started
// before Start keep their original background lifetime.
func (g *Generator) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.pollCtx, g.cancel = context.WithCancel(ctx)
}

// Stop cancels all in-flight pollers and waits for them to drain.
func (g *Generator) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	g.pollers.Wait()
}

func (g *Generator) pollContext() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pollCtx
}
