package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bfix/mm/member"
)

var tellCommand = &cli.Command{
	Name:      "tell",
	Usage:     "inject text into a member's pseudo-terminal",
	ArgsUsage: "<name> <message...>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "host of a peer already in the mesh"},
		&cli.UintFlag{Name: "port", Usage: "port of a peer already in the mesh"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return fmt.Errorf("usage: mm tell <name> <message...>")
		}
		name := c.Args().First()
		text := strings.Join(c.Args().Tail(), " ")

		host, port := hostPort(c)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sys, _, err := dialTarget(ctx, host, port)
		if err != nil {
			return err
		}
		defer sys.Stop()

		id, err := sys.ResolveName(ctx, name)
		if err != nil {
			return fmt.Errorf("mm: resolve %q: %w", name, err)
		}
		ref := member.NewRef(id, sys)
		if err := ref.Tell(ctx, text); err != nil {
			return fmt.Errorf("mm: tell %q: %w", name, err)
		}
		return nil
	},
}
