package main

import (
	"context"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "list every member known to a peer in the mesh",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "host of a peer already in the mesh"},
		&cli.UintFlag{Name: "port", Usage: "port of a peer already in the mesh"},
	},
	Action: runList,
}

func runList(c *cli.Context) error {
	host, port := hostPort(c)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sys, _, err := dialTarget(ctx, host, port)
	if err != nil {
		return err
	}
	defer sys.Stop()

	members := sys.AllMembersWithStatus(ctx)
	own := os.Getenv("MM_NAME")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"", "name", "peer", "command", "cwd", "foreground"})
	for _, m := range members {
		mark := ""
		if own != "" && m.Name == own {
			mark = "*"
		}
		table.Append([]string{mark, m.Name, m.PeerID.String(), m.Command, m.Cwd, m.ForegroundProcess})
	}
	table.Render()
	return nil
}
