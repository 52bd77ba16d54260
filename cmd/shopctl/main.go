package main

import (
	"fmt"
	"os"

	"github.com/example/shopdesk/pkg/config"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "shopctl",
		Usage: "operate a shopdesk installation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				EnvVars: []string{"SHOPDESK_CONFIG"},
				Usage:   "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			userCommand(),
			tokenCommand(),
			orderCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

// env is what every command needs: configuration and a logger writing to
// stderr so command output stays clean.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func load(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.NewLogger()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}
