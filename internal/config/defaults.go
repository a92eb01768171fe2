package config

const (
	defaultDataDir               = "~/.local/share/agentlaunch"
	defaultLogDir                = "~/.local/share/agentlaunch/logs"
	defaultAPIBind               = "127.0.0.1:8712"
	defaultMoltbookBaseURL       = "https://www.moltbook.com/api/v1"
	defaultSubmolt               = "clawnch"
	defaultClawnchBaseURL        = "https://clawn.ch/api"
	defaultClawnchTimeoutSeconds = 60
	defaultFalBaseURL            = "https://fal.run"
	defaultFalImageModel         = "fal-ai/flux/schnell"
	defaultFalTextModel          = "openrouter/router"
	defaultFalTimeoutSeconds     = 30
	defaultFallbackImageURL      = "https://iili.io/fLUphxa.jpg"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Moltbook: Moltbook{
			BaseURL: defaultMoltbookBaseURL,
			Submolt: defaultSubmolt,
		},
		Clawnch: Clawnch{
			BaseURL:        defaultClawnchBaseURL,
			TimeoutSeconds: defaultClawnchTimeoutSeconds,
		},
		Fal: Fal{
			BaseURL:        defaultFalBaseURL,
			ImageModel:     defaultFalImageModel,
			TextModel:      defaultFalTextModel,
			TimeoutSeconds: defaultFalTimeoutSeconds,
		},
		Launch: Launch{
			FallbackImageURL: defaultFallbackImageURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
