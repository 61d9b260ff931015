// Command quotegen renders and inspects quotes from the command line using
// the same configuration as the quote service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panelkitchens/quotekit/pkg/config"
	"github.com/panelkitchens/quotekit/pkg/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "quotegen: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "quotegen",
		Usage:   "render kitchen quotes as PDF documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON config file; environment variables take precedence",
				EnvVars: []string{"QUOTEGEN_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides LOG_LEVEL",
			},
		},
		Commands: []*cli.Command{
			renderCommand(),
			planCommand(),
			summaryCommand(),
			linesCommand(),
			tokenCommand(),
		},
	}
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	logger logging.Logger
}

func setup(c *cli.Context) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadConfigFromFile(path)
	} else {
		cfg, err = config.LoadConfigFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if l := c.String("log-level"); l != "" {
		level = l
	}
	// stdout may carry CSV or JSON; the logger writes to stderr.
	logger, err := logging.NewLogger(level, "console")
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger.With(logging.NewField("cmd", c.Command.Name))}, nil
}
