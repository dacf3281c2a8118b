package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/peer"
)

var killCommand = &cli.Command{
	Name:      "kill",
	Usage:     "terminate local mm join processes",
	ArgsUsage: "<peer-id>... | --all",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "all", Usage: "kill every mm join process owned by the current user"},
		&cli.BoolFlag{Name: "f", Usage: "send SIGKILL instead of SIGTERM"},
	},
	Action: func(c *cli.Context) error {
		all := c.Bool("all")
		names := c.Args().Slice()
		if !all && len(names) == 0 {
			return fmt.Errorf("usage: mm kill <peer-id>... | --all")
		}

		targets := make(map[string]bool, len(names))
		for _, n := range names {
			if p, err := peer.Parse(n); err == nil {
				targets[p.Name] = true
			} else {
				targets[n] = true
			}
		}

		sig := syscall.SIGTERM
		if c.Bool("f") {
			sig = syscall.SIGKILL
		}

		procs, err := findJoinProcesses()
		if err != nil {
			return fmt.Errorf("mm: scan processes: %w", err)
		}

		killed := 0
		for _, p := range procs {
			if !all && !targets[p.name] {
				continue
			}
			if err := syscall.Kill(p.pid, sig); err != nil {
				logger.Printf(logger.WARN, "[mm] kill pid %d: %v", p.pid, err)
				continue
			}
			killed++
		}
		if killed == 0 {
			return fmt.Errorf("mm: no matching join process found")
		}
		return nil
	},
}

// joinProcess is one running `mm join` process discovered in /proc.
type joinProcess struct {
	pid  int
	name string // the --name argument, if present
}

// findJoinProcesses walks /proc for processes invoked as "mm join ..." and
// owned by the current user, extracting each one's --name argument.
func findJoinProcesses() ([]joinProcess, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	self := os.Getpid()
	uid := os.Getuid()

	var out []joinProcess
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}
		raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
		if err != nil || len(raw) == 0 {
			continue
		}
		argv := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
		if !isJoinInvocation(argv) {
			continue
		}
		info, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
		if err != nil || !ownedBy(info, uid) {
			continue
		}
		out = append(out, joinProcess{pid: pid, name: joinNameArg(argv)})
	}
	return out, nil
}

func isJoinInvocation(argv []string) bool {
	if len(argv) < 2 {
		return false
	}
	base := argv[0]
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return base == "mm" && argv[1] == "join"
}

func joinNameArg(argv []string) string {
	for i, a := range argv {
		if a == "--name" && i+1 < len(argv) {
			return argv[i+1]
		}
		if strings.HasPrefix(a, "--name=") {
			return strings.TrimPrefix(a, "--name=")
		}
	}
	return ""
}
