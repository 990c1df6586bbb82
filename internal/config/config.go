package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir    string `toml:"staging_dir"`
	OutputDir     string `toml:"output_dir"`
	LogDir        string `toml:"log_dir"`
	APIBind       string `toml:"api_bind"`
	OutputBaseURL string `toml:"output_base_url"`
}

// Capture contains configuration for the capture surface and monitor.
type Capture struct {
	AgentURL        string  `toml:"agent_url"`
	Strategy        string  `toml:"strategy"`
	MonitorInterval int     `toml:"monitor_interval"`
	ReadyTimeout    int     `toml:"ready_timeout"`
	MinPlaybackRate float64 `toml:"min_playback_rate"`
	MaxPlaybackRate float64 `toml:"max_playback_rate"`
	MinFreeGiB      int     `toml:"min_free_gib"`
}

// Encode contains configuration for the external transcoder.
type Encode struct {
	FFmpegBinary         string  `toml:"ffmpeg_binary"`
	VideoCodec           string  `toml:"video_codec"`
	AudioCodec           string  `toml:"audio_codec"`
	Quality              int     `toml:"quality"`
	BaseTimeout          int     `toml:"base_timeout"`
	AssumedThroughputKiB int     `toml:"assumed_throughput_kib"`
	ProcessingMultiplier float64 `toml:"processing_multiplier"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reeler.
//
// Sections by subsystem:
//   - Paths: artifact directories and API bind address
//   - Capture: capture agent endpoint, monitor cadence, rate bounds
//   - Encode: ffmpeg invocation and deadline heuristic constants
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Capture       Capture       `toml:"capture"`
	Encode        Encode        `toml:"encode"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reeler/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
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
		if _, err := os.Stat(expanded); err != nil {
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
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the staging, output, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// StagingDir returns the directory holding in-flight capture artifacts.
func (c *Config) StagingDir() string { return c.Paths.StagingDir }

// OutputDir returns the directory receiving encoded artifacts.
func (c *Config) OutputDir() string { return c.Paths.OutputDir }

// LogDir returns the log directory.
func (c *Config) LogDir() string { return c.Paths.LogDir }

// APIBind returns the HTTP API bind address.
func (c *Config) APIBind() string { return c.Paths.APIBind }

// MonitorInterval returns the capture monitor polling cadence.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Capture.MonitorInterval) * time.Second
}

// ReadyTimeout returns how long the controller waits for media readiness.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Capture.ReadyTimeout) * time.Second
}

// EncodeBaseTimeout returns the encode deadline floor.
func (c *Config) EncodeBaseTimeout() time.Duration {
	return time.Duration(c.Encode.BaseTimeout) * time.Second
}

func expandPath(path string) (string, error) {
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
