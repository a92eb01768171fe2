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
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Moltbook contains configuration for the Moltbook social platform API.
type Moltbook struct {
	BaseURL string `toml:"base_url"`
	Submolt string `toml:"submolt"`
}

// Clawnch contains configuration for the Clawnch token launch service.
type Clawnch struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Fal contains configuration for the Fal.ai generation service. The API
// key is optional; logo generation and randomization degrade to fixed
// fallbacks without it.
type Fal struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ImageModel     string `toml:"image_model"`
	TextModel      string `toml:"text_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Launch contains defaults applied to token launch requests.
type Launch struct {
	FallbackImageURL string `toml:"fallback_image_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for agentlaunch.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Moltbook: agent registration and post creation
//   - Clawnch: token launch endpoint and timeout
//   - Fal: logo generation and name/persona randomization
//   - Launch: request defaults (fallback logo image)
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Moltbook Moltbook `toml:"moltbook"`
	Clawnch  Clawnch  `toml:"clawnch"`
	Fal      Fal      `toml:"fal"`
	Launch   Launch   `toml:"launch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/agentlaunch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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
		expanded, err := ExpandPath(path)
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

	projectPath, err := filepath.Abs("agentlaunch.toml")
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

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}

// EnsureDirectories creates the data and log directories if absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SessionPath returns the location of the persisted wizard session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Paths.DataDir, "session.json")
}

// JournalPath returns the location of the launch journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.DataDir, "journal.db")
}

// LockFilePath returns the daemon's single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "agentlaunchd.lock")
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.DataDir == "" {
		if c.Paths.DataDir, err = ExpandPath(defaultDataDir); err != nil {
			return fmt.Errorf("paths.data_dir: %w", err)
		}
	}
	if c.Paths.LogDir == "" {
		if c.Paths.LogDir, err = ExpandPath(defaultLogDir); err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
	}

	c.Moltbook.BaseURL = strings.TrimRight(strings.TrimSpace(c.Moltbook.BaseURL), "/")
	c.Clawnch.BaseURL = strings.TrimRight(strings.TrimSpace(c.Clawnch.BaseURL), "/")
	c.Fal.BaseURL = strings.TrimRight(strings.TrimSpace(c.Fal.BaseURL), "/")
	if c.Moltbook.Submolt == "" {
		c.Moltbook.Submolt = defaultSubmolt
	}

	if strings.TrimSpace(c.Fal.APIKey) == "" {
		c.Fal.APIKey = os.Getenv("FAL_KEY")
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
