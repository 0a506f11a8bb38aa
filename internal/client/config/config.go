package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the tjuecard binaries.
//
// Fields:
//   - BaseURL: portal origin, without the /epay prefix.
//   - DataDir: directory holding the user config, key, session and log.
//   - *File: file names inside DataDir (absolute names are used as is).
//   - LogLevel: debug, info, warn or error.
//   - OptionInterval: minimum spacing of room hierarchy requests in setup.
type Config struct {
	BaseURL        string
	DataDir        string
	UserConfigFile string
	KeyFile        string
	SessionFile    string
	LogFile        string
	LogLevel       string
	OptionInterval time.Duration
}

const DefaultBaseURL = "http://59.67.37.10:8180"

// executableDir is replaced in tests.
var executableDir = func() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// LoadDefaults populates c with the built-in settings. The data directory
// is the one holding the executable, so a scheduled run finds the files
// setup wrote regardless of its working directory.
func (c *Config) LoadDefaults() {
	c.BaseURL = DefaultBaseURL
	c.DataDir = executableDir()
	c.UserConfigFile = "user_config.json"
	c.KeyFile = ".tjuecard_key"
	c.SessionFile = "session.json"
	c.LogFile = "TjuEcard.log"
	c.LogLevel = "info"
	c.OptionInterval = 300 * time.Millisecond
}

func (c *Config) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c *Config) UserConfigPath() string { return c.path(c.UserConfigFile) }
func (c *Config) KeyPath() string        { return c.path(c.KeyFile) }
func (c *Config) SessionPath() string    { return c.path(c.SessionFile) }
func (c *Config) LogPath() string        { return c.path(c.LogFile) }

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the JSON settings file (-c), the environment (including a .env file in the
// data directory) and command-line flags. Later sources take precedence over
// earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	// -d decides which .env is read, flags still win over it
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
