// Command mm is the terminal client for the mesh: it joins a process to the
// mesh under a name, tells a named member to type something, lists every
// member any connected peer knows about, and kills local join processes.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/config"
)

func main() {
	logger.SetLogLevel(logger.WARN)

	app := &cli.App{
		Name:                 "mm",
		Usage:                "a peer-to-peer mesh of terminal agents",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a mesh configuration file",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				if err := config.Load(path); err != nil {
					return fmt.Errorf("mm: load config: %w", err)
				}
				return nil
			}
			config.Cfg = config.Default()
			return nil
		},
		Commands: []*cli.Command{
			joinCommand,
			tellCommand,
			listCommand,
			killCommand,
		},
		Action: func(c *cli.Context) error {
			return runList(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mm:", err)
		os.Exit(1)
	}
}
