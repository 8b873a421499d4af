package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	DataDir  string `toml:"data_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Speech contains configuration for the ElevenLabs text-to-speech API.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ModelID        string `toml:"model_id"`
	DefaultVoiceID string `toml:"default_voice_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage contains configuration for the object-storage bucket holding
// synthesized audio.
type Storage struct {
	URL            string `toml:"url"`
	ServiceKey     string `toml:"service_key"`
	Bucket         string `toml:"bucket"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HeyGen contains configuration for the HeyGen avatar-video API.
type HeyGen struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	DefaultAvatarID string `toml:"default_avatar_id"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// DID contains configuration for the D-ID talking-photo API.
type DID struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Coaches binds coach names to speech voices and portrait images. The
// generation pipeline treats these tables as injected configuration so tests
// can substitute fixtures without environment coupling.
type Coaches struct {
	DefaultProvider string            `toml:"default_provider"`
	ImageBaseURL    string            `toml:"image_base_url"`
	DefaultImage    string            `toml:"default_image"`
	Voices          map[string]string `toml:"voices"`
	Images          map[string]string `toml:"images"`
}

// Workflow contains polling cadence for asynchronous video providers.
type Workflow struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxPollAttempts     int `toml:"max_poll_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for coachcast.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, API bind address and token
//   - Speech: ElevenLabs text-to-speech credentials and defaults
//   - Storage: object-storage bucket for synthesized audio
//   - HeyGen: synchronous-style avatar video provider
//   - DID: polled talking-photo video provider
//   - Coaches: coach name to voice/image bindings and provider default
//   - Workflow: poll interval and attempt budget for the D-ID path
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Speech   Speech   `toml:"speech"`
	Storage  Storage  `toml:"storage"`
	HeyGen   HeyGen   `toml:"heygen"`
	DID      DID      `toml:"did"`
	Coaches  Coaches  `toml:"coaches"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/coachcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found on disk.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("coachcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
