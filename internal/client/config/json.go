package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tjuecard/internal/flagx"
	"github.com/dmitrijs2005/tjuecard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value untouched.
type JsonConfig struct {
	BaseURL        string          `json:"base_url"`
	DataDir        string          `json:"data_dir"`
	UserConfigFile string          `json:"user_config_file"`
	KeyFile        string          `json:"key_file"`
	SessionFile    string          `json:"session_file"`
	LogFile        string          `json:"log_file"`
	LogLevel       string          `json:"log_level"`
	OptionInterval *timex.Duration `json:"option_interval"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the settings file named by -c / -config.
// No flag means no file and no change.
func parseJson(cfg *Config, args []string) error {
	path := flagx.SettingsFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("settings file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("settings file %s: %w", path, err)
	}

	setIf(&cfg.BaseURL, jc.BaseURL)
	setIf(&cfg.DataDir, jc.DataDir)
	setIf(&cfg.UserConfigFile, jc.UserConfigFile)
	setIf(&cfg.KeyFile, jc.KeyFile)
	setIf(&cfg.SessionFile, jc.SessionFile)
	setIf(&cfg.LogFile, jc.LogFile)
	setIf(&cfg.LogLevel, jc.LogLevel)
	if jc.OptionInterval != nil {
		cfg.OptionInterval = jc.OptionInterval.Duration
	}
	return nil
}
