package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "TJUECARD_"

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// parseEnv overlays cfg with TJUECARD_* variables. A .env file in the data
// directory is read first; real environment variables win over it.
func parseEnv(cfg *Config) error {
	dotenv, err := godotenv.Read(filepath.Join(cfg.DataDir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}

	get := func(key string) string {
		if v, ok := lookupEnv(envPrefix + key); ok {
			return v
		}
		return dotenv[envPrefix+key]
	}

	setIf(&cfg.BaseURL, get("BASE_URL"))
	setIf(&cfg.DataDir, get("DATA_DIR"))
	setIf(&cfg.UserConfigFile, get("USER_CONFIG_FILE"))
	setIf(&cfg.KeyFile, get("KEY_FILE"))
	setIf(&cfg.SessionFile, get("SESSION_FILE"))
	setIf(&cfg.LogFile, get("LOG_FILE"))
	setIf(&cfg.LogLevel, get("LOG_LEVEL"))

	if v := get("OPTION_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sOPTION_INTERVAL: %w", envPrefix, err)
		}
		cfg.OptionInterval = d
	}
	return nil
}
