package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/realtyml/hpctl/pkg/tracking"
)

const runsLimitDefault = 50

var (
	runsURIFlag = &cli.StringFlag{
		Name:  "tracking-uri",
		Usage: "Tracking database path (default: $HOME/.hpctl/runs.db)",
	}

	runsLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of runs returned",
		Value: runsLimitDefault,
	}

	runIDFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "Show one run with its params and metrics",
	}

	runsCmd = &cli.Command{
		Name:    "runs",
		Aliases: []string{"r"},
		Usage:   "Query tracked training runs",
		Action:  cmdRuns,
		Flags: []cli.Flag{
			runsURIFlag,
			runsLimitFlag,
			runIDFlag,
		},
	}
)

func cmdRuns(c *cli.Context) error {
	uri := c.String(runsURIFlag.Name)
	if uri == "" {
		uri = defaultTrackingURI()
	}

	t, err := tracking.Open(uri)
	if err != nil {
		return fmt.Errorf("opening tracking database: %w", err)
	}
	defer t.Close()

	if id := c.String(runIDFlag.Name); id != "" {
		run, err := t.GetRun(c.Context, id)
		if err != nil {
			return fmt.Errorf("getting run: %w", err)
		}
		return encode(run)
	}

	runs, err := t.ListRuns(c.Context, c.Int(runsLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	return encode(runs)
}

func defaultTrackingURI() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "runs.db"
	}
	dir := filepath.Join(home, ".hpctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "runs.db"
	}
	return filepath.Join(dir, "runs.db")
}
