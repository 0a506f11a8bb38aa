// Package config loads runtime settings for the tjuecard binaries.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. TJUECARD_* environment variables, with a .env file in the data
//     directory as fallback (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// None of these are required; a scheduled run passes no arguments at all.
//
// Supported flags
//
//	-c string   settings file
//	-d string   data directory
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like
// "300ms" or integer nanoseconds:
//
//	{
//	  "base_url": "http://59.67.37.10:8180",
//	  "data_dir": "/home/me/.tjuecard",
//	  "log_level": "debug",
//	  "option_interval": "500ms"
//	}
//
// Environment variables: TJUECARD_BASE_URL, TJUECARD_DATA_DIR,
// TJUECARD_USER_CONFIG_FILE, TJUECARD_KEY_FILE, TJUECARD_SESSION_FILE,
// TJUECARD_LOG_FILE, TJUECARD_LOG_LEVEL, TJUECARD_OPTION_INTERVAL.
package config
