package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/tjuecard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (all optional):
//
//	-d string   data directory
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first so -c and anything
// else on the command line do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-l"})

	fs := flag.NewFlagSet("tjuecard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	return fs.Parse(args)
}
