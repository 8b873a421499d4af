package generation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"coachcast/internal/generation"
	"coachcast/internal/logging"
	"coachcast/internal/queue"
	"coachcast/internal/services"
	"coachcast/internal/services/did"
	"coachcast/internal/testsupport"
)

type fakeSpeech struct {
	mu     sync.Mutex
	calls  int
	voices []string
	err    error
}

func (f *fakeSpeech) Synthesize(_ context.Context, _, voiceID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.voices = append(f.voices, voiceID)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

type fakeAudioStore struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeAudioStore) Upload(_ context.Context, objectPath, _ string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, objectPath)
	return f.err
}

func (f *fakeAudioStore) PublicURL(objectPath string) string {
	return "https://cdn.test/" + objectPath
}

type fakeHeyGen struct {
	mu       sync.Mutex
	calls    int
	avatarID string
	videoID  string
	err      error
	onCreate func()
}

func (f *fakeHeyGen) CreateVideo(_ context.Context, avatarID, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.avatarID = avatarID
	hook := f.onCreate
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.videoID, nil
}

type fakeDID struct {
	mu        sync.Mutex
	talkID    string
	createErr error
	imageURL  string
	// probes are consumed in order; the last entry repeats.
	probes    []did.Talk
	probeErrs []error
	probeIdx  int
}

func (f *fakeDID) CreateTalk(_ context.Context, sourceImageURL, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageURL = sourceImageURL
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.talkID, nil
}

func (f *fakeDID) GetTalk(_ context.Context, talkID string) (did.Talk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.probeIdx
	if idx >= len(f.probes) {
		idx = len(f.probes) - 1
	}
	f.probeIdx++
	if idx < len(f.probeErrs) && f.probeErrs[idx] != nil {
		return did.Talk{}, f.probeErrs[idx]
	}
	talk := f.probes[idx]
	talk.ID = talkID
	return talk, nil
}

type fixture struct {
	gen    *generation.Generator
	store  *queue.Store
	speech *fakeSpeech
	audio  *fakeAudioStore
	heygen *fakeHeyGen
	did    *fakeDID
}

func newFixture(t *testing.T, opts ...generation.Option) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Coaches.ImageBaseURL = "https://cdn.test/coaches"
	store := testsupport.MustOpenStore(t, cfg)

	f := &fixture{
		store:  store,
		speech: &fakeSpeech{},
		audio:  &fakeAudioStore{},
		heygen: &fakeHeyGen{videoID: "vid-1"},
		did:    &fakeDID{talkID: "talk-1", probes: []did.Talk{{Status: did.StatusStarted}}},
	}
	base := []generation.Option{
		generation.WithSpeech(f.speech),
		generation.WithAudioStore(f.audio),
		generation.WithHeyGen(f.heygen),
		generation.WithDID(f.did),
		generation.WithPollCadence(10*time.Millisecond, 5),
	}
	f.gen = generation.New(cfg, store, logging.NewNop(), append(base, opts...)...)
	t.Cleanup(f.gen.Stop)
	return f
}

func validRequest(jobID string) generation.Request {
	return generation.Request{
		UserID:    "u1",
		CoachName: "Nora",
		Message:   "Great job today!",
		JobID:     jobID,
		Provider:  "did",
	}
}

func waitForStatus(t *testing.T, store *queue.Store, jobID string, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByJobID(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetByJobID failed: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %q never reached status %s", jobID, want)
	return nil
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	f := newFixture(t)
	testsupport.NewPendingJob(t, f.store, "job-1")

	req := validRequest("job-1")
	req.Message = ""
	_, err := f.gen.Generate(context.Background(), req)
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "message") {
		t.Fatalf("expected field name in error, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatal("validation failure must not reach synthesis")
	}

	job, _ := f.store.GetByJobID(context.Background(), "job-1")
	if job.Status != queue.StatusPending {
		t.Fatalf("validation failure mutated the job row: %s", job.Status)
	}
}

func TestGenerateRejectsUnknownProvider(t *testing.T) {
	f := newFixture(t)
	testsupport.NewPendingJob(t, f.store, "job-1")

	req := validRequest("job-1")
	req.Provider = "synthesia"
	_, err := f.gen.Generate(context.Background(), req)
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatal("unknown provider must not reach synthesis")
	}
}

func TestGenerateRejectsUnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.gen.Generate(context.Background(), validRequest("missing-job"))
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateRejectsNonPendingJob(t *testing.T) {
	f := newFixture(t)
	testsupport.NewPendingJob(t, f.store, "job-1")
	if _, err := f.store.MarkGenerating(context.Background(), "job-1", queue.ProviderDID, "https://cdn/a.mp3", "", "talk-0"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}

	_, err := f.gen.Generate(context.Background(), validRequest("job-1"))
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatal("non-pending job must not reach synthesis")
	}
}

func TestGenerateRequiresProviderCredential(t *testing.T) {
	f := newFixture(t, generation.WithDID(nil))
	testsupport.NewPendingJob(t, f.store, "job-1")

	_, err := f.gen.Generate(context.Background(), validRequest("job-1"))
	if err == nil || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatal("missing credential must fail before any provider call")
	}
}

func TestGenerateUsesBoundVoiceAndDefaultFallback(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{{Status: did.StatusDone, ResultURL: "https://x/a.mp4"}}
	testsupport.NewPendingJob(t, f.store, "job-nora")

	if _, err := f.gen.Generate(context.Background(), validRequest("job-nora")); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Unbound coach falls back to the configured default voice.
	if _, err := f.store.NewJob(context.Background(), "job-zara", "u1", "Zara", "hello"); err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	req := validRequest("job-zara")
	req.CoachName = "Zara"
	if _, err := f.gen.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(f.speech.voices) != 2 {
		t.Fatalf("expected 2 synthesis calls, got %d", len(f.speech.voices))
	}
	if f.speech.voices[0] != "EXAVITQu4vr4xnSDxMaL" {
		t.Fatalf("expected Nora's bound voice, got %q", f.speech.voices[0])
	}
	if f.speech.voices[1] != "21m00Tcm4TlvDq8ikWAM" {
		t.Fatalf("expected default voice for unbound coach, got %q", f.speech.voices[1])
	}
}

func TestGenerateCompletesPolledJob(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{
		{Status: did.StatusStarted},
		{Status: did.StatusDone, ResultURL: "https://x/y.mp4"},
	}
	testsupport.NewPendingJob(t, f.store, "job1")

	ack, err := f.gen.Generate(context.Background(), generation.Request{
		UserID:    "u1",
		CoachName: "Nora",
		Message:   "Great job today!",
		JobID:     "job1",
		Provider:  "did",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if ack.Provider != queue.ProviderDID || ack.ProviderJobID != "talk-1" {
		t.Fatalf("unexpected acknowledgement: %#v", ack)
	}
	if f.did.imageURL != "https://cdn.test/coaches/nora.png" {
		t.Fatalf("unexpected source image: %q", f.did.imageURL)
	}

	job := waitForStatus(t, f.store, "job1", queue.StatusCompleted)
	if job.VideoURL != "https://x/y.mp4" || job.Provider != queue.ProviderDID || job.ProviderJobID != "talk-1" {
		t.Fatalf("unexpected completed row: %#v", job)
	}
	if !strings.HasPrefix(job.AudioURL, "https://cdn.test/audio/job1-") {
		t.Fatalf("unexpected audio url: %q", job.AudioURL)
	}
}

func TestGenerateToleratesTransientPollFailures(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{
		{},
		{Status: did.StatusStarted},
		{Status: did.StatusDone, ResultURL: "https://x/y.mp4"},
	}
	f.did.probeErrs = []error{errors.New("connection reset"), nil, nil}
	testsupport.NewPendingJob(t, f.store, "job-flaky")

	if _, err := f.gen.Generate(context.Background(), validRequest("job-flaky")); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	waitForStatus(t, f.store, "job-flaky", queue.StatusCompleted)
}

func TestGenerateRecordsProviderRejection(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{
		{Status: did.StatusRejected, Error: "face not detected"},
	}
	testsupport.NewPendingJob(t, f.store, "job-rej")

	if _, err := f.gen.Generate(context.Background(), validRequest("job-rej")); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	job := waitForStatus(t, f.store, "job-rej", queue.StatusError)
	if job.ErrorType != queue.ErrorTypeProvider || job.ErrorMessage != "face not detected" {
		t.Fatalf("unexpected error row: %#v", job)
	}
}

func TestGenerateTimesOutAfterAttemptBudget(t *testing.T) {
	f := newFixture(t, generation.WithPollCadence(10*time.Millisecond, 3))
	f.did.probes = []did.Talk{{Status: did.StatusStarted}}
	testsupport.NewPendingJob(t, f.store, "job-slow")

	if _, err := f.gen.Generate(context.Background(), validRequest("job-slow")); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	job := waitForStatus(t, f.store, "job-slow", queue.StatusError)
	if job.ErrorType != queue.ErrorTypeTimeout {
		t.Fatalf("expected timeout classification, got %#v", job)
	}
	if !strings.Contains(job.ErrorMessage, "Video generation timed out") {
		t.Fatalf("unexpected timeout message: %q", job.ErrorMessage)
	}
}

func TestGenerateHeyGenPathDoesNotPoll(t *testing.T) {
	f := newFixture(t)
	testsupport.NewPendingJob(t, f.store, "job-hg")

	req := validRequest("job-hg")
	req.Provider = "heygen"
	ack, err := f.gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if ack.Provider != queue.ProviderHeyGen || ack.ProviderJobID != "vid-1" {
		t.Fatalf("unexpected acknowledgement: %#v", ack)
	}
	if f.heygen.avatarID != "Daisy-inskirt-20220818" {
		t.Fatalf("expected default avatar, got %q", f.heygen.avatarID)
	}

	// The row stays generating; completion is reported out-of-band.
	time.Sleep(100 * time.Millisecond)
	job, _ := f.store.GetByJobID(context.Background(), "job-hg")
	if job.Status != queue.StatusGenerating || job.Provider != queue.ProviderHeyGen {
		t.Fatalf("unexpected heygen row: %#v", job)
	}
	if f.did.probeIdx != 0 {
		t.Fatal("heygen path must not poll")
	}
}

func TestGenerateAutoResolvesDefaultProvider(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{{Status: did.StatusDone, ResultURL: "https://x/a.mp4"}}
	testsupport.NewPendingJob(t, f.store, "job-auto")

	req := validRequest("job-auto")
	req.Provider = "auto"
	ack, err := f.gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if ack.Provider != queue.ProviderDID {
		t.Fatalf("expected configured default provider, got %s", ack.Provider)
	}
}

func TestGenerateSurfacesSynthesisFailure(t *testing.T) {
	f := newFixture(t)
	f.speech.err = fmt.Errorf("elevenlabs synthesize: http 500: upstream")
	testsupport.NewPendingJob(t, f.store, "job-syn")

	_, err := f.gen.Generate(context.Background(), validRequest("job-syn"))
	if err == nil || !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(f.audio.paths) != 0 {
		t.Fatal("synthesis failure must not reach storage")
	}

	// The pipeline itself leaves the row untouched; recovery is the
	// caller's responsibility.
	job, _ := f.store.GetByJobID(context.Background(), "job-syn")
	if job.Status != queue.StatusPending {
		t.Fatalf("pipeline failure mutated the row: %s", job.Status)
	}
}

func TestGenerateSurfacesUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.audio.err = fmt.Errorf("storage upload: http 503: service unavailable")
	testsupport.NewPendingJob(t, f.store, "job-up")

	_, err := f.gen.Generate(context.Background(), validRequest("job-up"))
	if err == nil || !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if f.speech.calls != 1 {
		t.Fatalf("expected synthesis before upload, got %d calls", f.speech.calls)
	}
	if f.heygen.calls != 0 || f.did.imageURL != "" {
		t.Fatal("upload failure must not reach a video provider")
	}

	job, _ := f.store.GetByJobID(context.Background(), "job-up")
	if job.Status != queue.StatusPending {
		t.Fatalf("pipeline failure mutated the row: %s", job.Status)
	}
}

func TestGenerateDetectsLostRace(t *testing.T) {
	f := newFixture(t)
	testsupport.NewPendingJob(t, f.store, "job-race")

	// Another writer claims the job between the pending check and the
	// conditional transition.
	f.heygen.onCreate = func() {
		if _, err := f.store.MarkGenerating(context.Background(), "job-race", queue.ProviderHeyGen, "https://cdn/other.mp3", "", "vid-other"); err != nil {
			t.Errorf("concurrent MarkGenerating failed: %v", err)
		}
	}

	req := validRequest("job-race")
	req.Provider = "heygen"
	_, err := f.gen.Generate(context.Background(), req)
	if err == nil || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for lost race, got %v", err)
	}

	job, _ := f.store.GetByJobID(context.Background(), "job-race")
	if job.ProviderJobID != "vid-other" {
		t.Fatalf("lost race overwrote the winner's row: %#v", job)
	}
}

func TestResumePollingRestartsGeneratingJobs(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{{Status: did.StatusDone, ResultURL: "https://x/resumed.mp4"}}

	testsupport.NewPendingJob(t, f.store, "job-resume")
	if _, err := f.store.MarkGenerating(context.Background(), "job-resume", queue.ProviderDID, "https://cdn/a.mp3", "", "talk-7"); err != nil {
		t.Fatalf("MarkGenerating failed: %v", err)
	}

	if err := f.gen.ResumePolling(context.Background()); err != nil {
		t.Fatalf("ResumePolling failed: %v", err)
	}

	job := waitForStatus(t, f.store, "job-resume", queue.StatusCompleted)
	if job.VideoURL != "https://x/resumed.mp4" {
		t.Fatalf("unexpected resumed row: %#v", job)
	}
}

func TestPollOnceReportsNonTerminal(t *testing.T) {
	f := newFixture(t)
	f.did.probes = []did.Talk{{Status: did.StatusCreated}}
	testsupport.NewPendingJob(t, f.store, "job-once")

	terminal, err := f.gen.PollOnce(context.Background(), "job-once", "talk-1")
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if terminal {
		t.Fatal("created status must not be terminal")
	}
}
