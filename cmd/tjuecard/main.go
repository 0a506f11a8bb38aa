// Command tjuecard runs one unattended electricity balance query. It is
// meant to be started by the OS scheduler after tjuecard-setup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/tjuecard/internal/buildinfo"
	"github.com/dmitrijs2005/tjuecard/internal/client/cli"
	"github.com/dmitrijs2005/tjuecard/internal/client/config"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	var log logging.Logger = logging.Discard()
	fileLog, closeLog, err := logging.NewFileLogger(cfg.LogPath(), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	} else {
		log = fileLog
		defer closeLog()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cfg, log, os.Stdin, os.Stdout)
	if err != nil {
		log.Error(ctx, "startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
