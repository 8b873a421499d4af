package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachcast/internal/logging"
	"coachcast/internal/queue"
	"coachcast/internal/services"
)

// Request is one coach-video generation order. JobID must reference a
// pending row created before the pipeline runs.
type Request struct {
	UserID         string
	CoachName      string
	Message        string
	JobID          string
	AvatarID       string
	VoiceID        string
	AvatarImageURL string
	Provider       string
}

// Acknowledgement reports a successful dispatch. VideoURL stays empty until
// the poller records completion.
type Acknowledgement struct {
	JobID         string
	Provider      queue.Provider
	ProviderJobID string
	VideoURL      string
}

// Generate runs the pipeline for one request: validate, synthesize speech,
// upload audio, dispatch the selected video provider, and move the job row
// to generating. For the polled provider a detached poller is started; the
// call returns as soon as the row update lands.
func (g *Generator) Generate(ctx context.Context, req Request) (Acknowledgement, error) {
	var empty Acknowledgement

	if err := validateRequest(req); err != nil {
		return empty, err
	}
	provider, err := g.resolveProvider(req.Provider)
	if err != nil {
		return empty, err
	}

	ctx = services.WithJobID(ctx, req.JobID)
	logger := logging.WithContext(ctx, g.logger)

	job, err := g.store.GetByJobID(ctx, req.JobID)
	if err != nil {
		return empty, services.Wrap(services.ErrDatabase, "job lookup", "", "", err)
	}
	if job == nil {
		return empty, services.Wrap(services.ErrValidation, "request", "", fmt.Sprintf("unknown job id %q", req.JobID), nil)
	}
	if job.Status != queue.StatusPending {
		return empty, services.Wrap(services.ErrValidation, "request", "", fmt.Sprintf("job %q is %s, not pending", req.JobID, job.Status), nil)
	}

	if err := g.checkCredentials(provider); err != nil {
		return empty, err
	}

	voiceID := g.resolveVoice(req.CoachName, req.VoiceID)
	logger.Info("starting generation",
		logging.String("coach", req.CoachName),
		logging.String("provider", string(provider)),
		logging.String("voice_id", voiceID))

	audio, err := g.speech.Synthesize(services.WithStep(ctx, "speech"), req.Message, voiceID)
	if err != nil {
		return empty, services.Wrap(services.ErrProvider, "speech", "synthesize", "", err)
	}

	audioPath := audioObjectPath(req.JobID)
	if err := g.audio.Upload(services.WithStep(ctx, "storage"), audioPath, "audio/mpeg", audio); err != nil {
		return empty, services.Wrap(services.ErrProvider, "storage", "upload audio", "", err)
	}
	audioURL := g.audio.PublicURL(audioPath)
	logger.Info("audio uploaded", logging.String("audio_url", audioURL), logging.Int("bytes", len(audio)))

	var providerJobID string
	switch provider {
	case queue.ProviderHeyGen:
		avatarID := strings.TrimSpace(req.AvatarID)
		if avatarID == "" {
			avatarID = g.defaultAvatarID
		}
		providerJobID, err = g.heygen.CreateVideo(services.WithStep(ctx, "dispatch"), avatarID, audioURL)
		if err != nil {
			return empty, services.Wrap(services.ErrProvider, "dispatch", "heygen create video", "", err)
		}
	case queue.ProviderDID:
		imageURL := g.resolveImage(req.CoachName, req.AvatarImageURL)
		providerJobID, err = g.did.CreateTalk(services.WithStep(ctx, "dispatch"), imageURL, audioURL)
		if err != nil {
			return empty, services.Wrap(services.ErrProvider, "dispatch", "did create talk", "", err)
		}
	}

	updated, err := g.store.MarkGenerating(ctx, req.JobID, provider, audioURL, "", providerJobID)
	if err != nil {
		// Best-effort classification before re-raising; the row may be
		// unreachable for the same reason the update failed.
		wrapped := services.Wrap(services.ErrDatabase, "job update", "mark generating", "", err)
		if _, markErr := g.store.MarkError(ctx, req.JobID, queue.ErrorTypeDatabase, wrapped.Error()); markErr != nil {
			logger.Warn("failed to record database error on job", logging.Error(markErr))
		}
		return empty, wrapped
	}
	if !updated {
		return empty, services.Wrap(services.ErrValidation, "job update", "", fmt.Sprintf("job %q is no longer pending", req.JobID), nil)
	}

	logger.Info("provider dispatched",
		logging.String("provider", string(provider)),
		logging.String("provider_job_id", providerJobID))

	if provider == queue.ProviderDID {
		g.startPoller(req.JobID, providerJobID)
	}

	return Acknowledgement{
		JobID:         req.JobID,
		Provider:      provider,
		ProviderJobID: providerJobID,
	}, nil
}

func validateRequest(req Request) error {
	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(req.CoachName) == "" {
		missing = append(missing, "coachName")
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if strings.TrimSpace(req.JobID) == "" {
		missing = append(missing, "jobId")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "request", "", "missing required fields: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func (g *Generator) resolveProvider(raw string) (queue.Provider, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == "auto" {
		return g.defaultProvider, nil
	}
	provider, ok := queue.ParseProvider(raw)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "request", "", fmt.Sprintf("unknown provider %q", raw), nil)
	}
	return provider, nil
}

func (g *Generator) checkCredentials(provider queue.Provider) error {
	if g.speech == nil {
		return services.Wrap(services.ErrConfiguration, "speech", "", "speech api key not configured", nil)
	}
	if g.audio == nil {
		return services.Wrap(services.ErrConfiguration, "storage", "", "storage url or service key not configured", nil)
	}
	switch provider {
	case queue.ProviderHeyGen:
		if g.heygen == nil {
			return services.Wrap(services.ErrConfiguration, "dispatch", "", "heygen api key not configured", nil)
		}
	case queue.ProviderDID:
		if g.did == nil {
			return services.Wrap(services.ErrConfiguration, "dispatch", "", "did api key not configured", nil)
		}
	}
	return nil
}

// resolveVoice prefers an explicit override, then the coach's bound voice,
// then the configured default. A lookup miss is never fatal.
func (g *Generator) resolveVoice(coachName, override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	if v, ok := lookupCoach(g.coachVoices, coachName); ok {
		return v
	}
	return g.defaultVoiceID
}

func (g *Generator) resolveImage(coachName, override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	filename, ok := lookupCoach(g.coachImages, coachName)
	if !ok || strings.TrimSpace(filename) == "" {
		filename = g.defaultImage
	}
	if g.imageBaseURL == "" {
		return filename
	}
	return g.imageBaseURL + "/" + strings.TrimLeft(filename, "/")
}

func lookupCoach(table map[string]string, coachName string) (string, bool) {
	if v, ok := table[coachName]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	for name, v := range table {
		if strings.EqualFold(name, coachName) && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// audioObjectPath builds a collision-free storage key: retries of the same
// job id must not overwrite a previous upload mid-render.
func audioObjectPath(jobID string) string {
	nonce := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("audio/%s-%d-%s.mp3", jobID, time.Now().UnixMilli(), nonce)
}
