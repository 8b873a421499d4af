package did

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.d-id.com"
	defaultHTTPTimeout = 60 * time.Second

	driverURL    = "bank://lively"
	resultFormat = "mp4"
	audioPadding = 0.3
	scriptType   = "audio"
)

// Talk statuses reported by the D-ID API.
const (
	StatusCreated  = "created"
	StatusStarted  = "started"
	StatusDone     = "done"
	StatusError    = "error"
	StatusRejected = "rejected"
)

// Client wraps the D-ID talking-head API. Talks are created from a source
// image plus an audio URL and polled until they reach a terminal status.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the D-ID client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient constructs a D-ID API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Talk is the subset of a D-ID talk record the poller cares about.
type Talk struct {
	ID        string
	Status    string
	ResultURL string
	Error     string
}

// Terminal reports whether the talk has finished, successfully or not.
func (t Talk) Terminal() bool {
	switch t.Status {
	case StatusDone, StatusError, StatusRejected:
		return true
	}
	return false
}

type createTalkRequest struct {
	SourceURL string     `json:"source_url"`
	Script    talkScript `json:"script"`
	Config    talkConfig `json:"config"`
	DriverURL string     `json:"driver_url"`
}

type talkScript struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type talkConfig struct {
	Stitch       bool    `json:"stitch"`
	ResultFormat string  `json:"result_format"`
	PadAudio     float64 `json:"pad_audio"`
}

type talkResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
	Error     *struct {
		Kind        string `json:"kind"`
		Description string `json:"description"`
	} `json:"error"`
	Description string `json:"description"`
}

// CreateTalk submits a render from a source avatar image and an audio URL
// and returns the talk id to poll.
func (c *Client) CreateTalk(ctx context.Context, sourceImageURL, audioURL string) (string, error) {
	sourceImageURL = strings.TrimSpace(sourceImageURL)
	if sourceImageURL == "" {
		return "", errors.New("did create talk: source image url required")
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", errors.New("did create talk: audio url required")
	}
	if c.apiKey == "" {
		return "", errors.New("did create talk: api key required")
	}

	endpoint, err := url.JoinPath(c.baseURL, "/talks")
	if err != nil {
		return "", fmt.Errorf("did create talk: build url: %w", err)
	}
	encoded, err := json.Marshal(createTalkRequest{
		SourceURL: sourceImageURL,
		Script:    talkScript{Type: scriptType, AudioURL: audioURL},
		Config: talkConfig{
			Stitch:       true,
			ResultFormat: resultFormat,
			PadAudio:     audioPadding,
		},
		DriverURL: driverURL,
	})
	if err != nil {
		return "", fmt.Errorf("did create talk: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("did create talk: request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("did create talk: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("did create talk: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("did create talk: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded talkResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("did create talk: decode response: %w", err)
	}
	talkID := strings.TrimSpace(decoded.ID)
	if talkID == "" {
		return "", errors.New("did create talk: response missing talk id")
	}
	return talkID, nil
}

// GetTalk fetches the current status of a talk.
func (c *Client) GetTalk(ctx context.Context, talkID string) (Talk, error) {
	var empty Talk
	talkID = strings.TrimSpace(talkID)
	if talkID == "" {
		return empty, errors.New("did get talk: talk id required")
	}
	if c.apiKey == "" {
		return empty, errors.New("did get talk: api key required")
	}

	endpoint, err := url.JoinPath(c.baseURL, "/talks/", talkID)
	if err != nil {
		return empty, fmt.Errorf("did get talk: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("did get talk: request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("did get talk: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("did get talk: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("did get talk: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded talkResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return empty, fmt.Errorf("did get talk: decode response: %w", err)
	}

	talk := Talk{
		ID:        strings.TrimSpace(decoded.ID),
		Status:    strings.ToLower(strings.TrimSpace(decoded.Status)),
		ResultURL: strings.TrimSpace(decoded.ResultURL),
	}
	if decoded.Error != nil && strings.TrimSpace(decoded.Error.Description) != "" {
		talk.Error = strings.TrimSpace(decoded.Error.Description)
	} else if strings.TrimSpace(decoded.Description) != "" {
		talk.Error = strings.TrimSpace(decoded.Description)
	}
	return talk, nil
}

func (c *Client) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.apiKey+":"))
}
