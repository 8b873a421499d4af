package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpeech()
	c.normalizeStorage()
	c.normalizeProviders()
	c.normalizeCoaches()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSpeech() {
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.Speech.APIKey = value
		}
	}
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.ModelID = strings.TrimSpace(c.Speech.ModelID)
	if c.Speech.ModelID == "" {
		c.Speech.ModelID = defaultSpeechModelID
	}
	c.Speech.DefaultVoiceID = strings.TrimSpace(c.Speech.DefaultVoiceID)
	if c.Speech.DefaultVoiceID == "" {
		c.Speech.DefaultVoiceID = defaultSpeechVoiceID
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeStorage() {
	if c.Storage.ServiceKey == "" {
		if value, ok := os.LookupEnv("COACHCAST_STORAGE_KEY"); ok {
			c.Storage.ServiceKey = value
		}
	}
	c.Storage.URL = strings.TrimRight(strings.TrimSpace(c.Storage.URL), "/")
	c.Storage.ServiceKey = strings.TrimSpace(c.Storage.ServiceKey)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultStorageBucket
	}
	if c.Storage.TimeoutSeconds <= 0 {
		c.Storage.TimeoutSeconds = defaultStorageTimeout
	}
}

func (c *Config) normalizeProviders() {
	if c.HeyGen.APIKey == "" {
		if value, ok := os.LookupEnv("HEYGEN_API_KEY"); ok {
			c.HeyGen.APIKey = value
		}
	}
	c.HeyGen.APIKey = strings.TrimSpace(c.HeyGen.APIKey)
	c.HeyGen.BaseURL = strings.TrimRight(strings.TrimSpace(c.HeyGen.BaseURL), "/")
	if c.HeyGen.BaseURL == "" {
		c.HeyGen.BaseURL = defaultHeyGenBaseURL
	}
	c.HeyGen.DefaultAvatarID = strings.TrimSpace(c.HeyGen.DefaultAvatarID)
	if c.HeyGen.DefaultAvatarID == "" {
		c.HeyGen.DefaultAvatarID = defaultHeyGenAvatarID
	}
	if c.HeyGen.TimeoutSeconds <= 0 {
		c.HeyGen.TimeoutSeconds = defaultHeyGenTimeout
	}

	if c.DID.APIKey == "" {
		if value, ok := os.LookupEnv("DID_API_KEY"); ok {
			c.DID.APIKey = value
		}
	}
	c.DID.APIKey = strings.TrimSpace(c.DID.APIKey)
	c.DID.BaseURL = strings.TrimRight(strings.TrimSpace(c.DID.BaseURL), "/")
	if c.DID.BaseURL == "" {
		c.DID.BaseURL = defaultDIDBaseURL
	}
	if c.DID.TimeoutSeconds <= 0 {
		c.DID.TimeoutSeconds = defaultDIDTimeout
	}
}

func (c *Config) normalizeCoaches() {
	c.Coaches.DefaultProvider = strings.ToLower(strings.TrimSpace(c.Coaches.DefaultProvider))
	if c.Coaches.DefaultProvider == "" {
		c.Coaches.DefaultProvider = defaultProvider
	}
	c.Coaches.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.Coaches.ImageBaseURL), "/")
	c.Coaches.DefaultImage = strings.TrimSpace(c.Coaches.DefaultImage)
	if c.Coaches.DefaultImage == "" {
		c.Coaches.DefaultImage = defaultCoachImage
	}
	if c.Coaches.Voices == nil {
		c.Coaches.Voices = map[string]string{}
	}
	if c.Coaches.Images == nil {
		c.Coaches.Images = map[string]string{}
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollInterval
	}
	if c.Workflow.MaxPollAttempts <= 0 {
		c.Workflow.MaxPollAttempts = defaultMaxPollAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFmt
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
