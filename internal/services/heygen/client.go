package heygen

import (
	"bytes"
	"context"
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
	defaultBaseURL     = "https://api.heygen.com"
	defaultHTTPTimeout = 60 * time.Second

	// Portrait 9:16 output for mobile playback.
	videoWidth  = 720
	videoHeight = 1280
)

// Client wraps the HeyGen avatar-video generation API. Completion is
// reported out-of-band by HeyGen; this client only dispatches.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the HeyGen client.
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

// NewClient constructs a HeyGen API client.
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

type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
}

type videoInput struct {
	Character character `json:"character"`
	Voice     audio     `json:"voice"`
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type audio struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateVideo submits an avatar-video render and returns the provider's
// video id. No result URL is available at dispatch time.
func (c *Client) CreateVideo(ctx context.Context, avatarID, audioURL string) (string, error) {
	avatarID = strings.TrimSpace(avatarID)
	if avatarID == "" {
		return "", errors.New("heygen create video: avatar id required")
	}
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", errors.New("heygen create video: audio url required")
	}
	if c.apiKey == "" {
		return "", errors.New("heygen create video: api key required")
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v2/video/generate")
	if err != nil {
		return "", fmt.Errorf("heygen create video: build url: %w", err)
	}
	encoded, err := json.Marshal(generateRequest{
		VideoInputs: []videoInput{
			{
				Character: character{Type: "avatar", AvatarID: avatarID, AvatarStyle: "normal"},
				Voice:     audio{Type: "audio", AudioURL: audioURL},
			},
		},
		Dimension: dimension{Width: videoWidth, Height: videoHeight},
	})
	if err != nil {
		return "", fmt.Errorf("heygen create video: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("heygen create video: request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("heygen create video: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("heygen create video: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("heygen create video: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("heygen create video: decode response: %w", err)
	}
	if decoded.Error != nil && strings.TrimSpace(decoded.Error.Message) != "" {
		return "", fmt.Errorf("heygen create video: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	videoID := strings.TrimSpace(decoded.Data.VideoID)
	if videoID == "" {
		return "", errors.New("heygen create video: response missing video id")
	}
	return videoID, nil
}
