package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/config"
	"xeth-go/pkg/log"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// cfg is loaded by the app's Before hook.
var cfg *config.Config

func main() {
	app := &cli.App{
		Name:    "xethctl",
		Usage:   "talk to an XETH driver over its side-band channel",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read configuration from `FILE`",
				EnvVars: []string{"XETH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-db",
				Usage: "store logs in the SQLite database `PATH`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at debug level",
			},
		},
		Before: setup,
		After: func(*cli.Context) error {
			return log.Close()
		},
		Commands: []*cli.Command{
			listenCommand,
			decodeCommand,
			hostdumpCommand,
			kindsCommand,
			logsCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	log.SetStd()
	var err error
	cfg, err = config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading configuration: %v", err), 1)
	}
	if c.IsSet("log-db") {
		cfg.LogDB = c.String("log-db")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	log.SetVerbose(cfg.Verbose)
	if cfg.LogDB != "" {
		if err := log.Init(cfg.LogDB); err != nil {
			return cli.Exit(fmt.Sprintf("Error opening log database: %v", err), 1)
		}
	}
	if cfg.ConfigFile != "" {
		log.Debug().Str("file", cfg.ConfigFile).Msg("loaded configuration")
	}
	return nil
}
