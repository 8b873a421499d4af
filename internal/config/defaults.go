package config

const (
	defaultLogDir   = "~/.local/share/coachcast/logs"
	defaultDataDir  = "~/.local/share/coachcast/data"
	defaultAPIBind  = "127.0.0.1:7475"
	defaultLogFmt   = "console"
	defaultLogLevel = "info"

	defaultSpeechBaseURL   = "https://api.elevenlabs.io"
	defaultSpeechModelID   = "eleven_multilingual_v2"
	defaultSpeechVoiceID   = "21m00Tcm4TlvDq8ikWAM"
	defaultSpeechTimeout   = 30
	defaultStorageBucket   = "coach-videos"
	defaultStorageTimeout  = 60
	defaultHeyGenBaseURL   = "https://api.heygen.com"
	defaultHeyGenAvatarID  = "Daisy-inskirt-20220818"
	defaultHeyGenTimeout   = 30
	defaultDIDBaseURL      = "https://api.d-id.com"
	defaultDIDTimeout      = 30
	defaultProvider        = "did"
	defaultCoachImage      = "default-coach.png"
	defaultPollInterval    = 5
	defaultMaxPollAttempts = 60
)

// Default returns a Config populated with repository defaults. The coach
// voice/image tables ship with the built-in coach roster; deployments
// override them wholesale from the config file.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			ModelID:        defaultSpeechModelID,
			DefaultVoiceID: defaultSpeechVoiceID,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Storage: Storage{
			Bucket:         defaultStorageBucket,
			TimeoutSeconds: defaultStorageTimeout,
		},
		HeyGen: HeyGen{
			BaseURL:         defaultHeyGenBaseURL,
			DefaultAvatarID: defaultHeyGenAvatarID,
			TimeoutSeconds:  defaultHeyGenTimeout,
		},
		DID: DID{
			BaseURL:        defaultDIDBaseURL,
			TimeoutSeconds: defaultDIDTimeout,
		},
		Coaches: Coaches{
			DefaultProvider: defaultProvider,
			DefaultImage:    defaultCoachImage,
			Voices: map[string]string{
				"Nora":   "EXAVITQu4vr4xnSDxMaL",
				"Marcus": "TxGEqnHWrfWFTfGW9XjX",
				"Elena":  "MF3mGyEYCl7XYWbV9V6O",
				"Dev":    "VR6AewLTigWG4xSOukaG",
			},
			Images: map[string]string{
				"Nora":   "nora.png",
				"Marcus": "marcus.png",
				"Elena":  "elena.png",
				"Dev":    "dev.png",
			},
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollInterval,
			MaxPollAttempts:     defaultMaxPollAttempts,
		},
		Logging: Logging{
			Format: defaultLogFmt,
			Level:  defaultLogLevel,
		},
	}
}
