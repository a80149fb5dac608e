package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/log"
)

// timeFormats are tried in order for absolute times.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimeSpec accepts a duration before now ("1h", "30m") or an absolute
// timestamp.
func parseTimeSpec(spec string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range timeFormats {
		if ts, err := time.ParseInLocation(layout, spec, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time specification %q: use a duration such as 1h or a timestamp such as 2025-01-02T15:04:05Z", spec)
}

var logsCommand = &cli.Command{
	Name:      "logs",
	Usage:     "print entries from the log database given with --log-db",
	UsageText: "xethctl --log-db PATH logs [--since TIME_SPEC [--until TIME_SPEC] | --kind KIND] [-n COUNT]",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "print at most `NUMBER` entries",
			Value:   log.DefaultLimit,
		},
		&cli.StringFlag{
			Name:    "since",
			Aliases: []string{"s"},
			Usage:   "entries logged after `TIME_SPEC`",
		},
		&cli.StringFlag{
			Name:    "until",
			Aliases: []string{"e"},
			Usage:   "with --since, entries logged before `TIME_SPEC`",
		},
		&cli.StringFlag{
			Name:  "kind",
			Usage: "entries describing messages of `KIND`, e.g. Ifinfo",
		},
		&cli.BoolFlag{
			Name:    "pretty",
			Aliases: []string{"p"},
			Usage:   "print one readable line per entry instead of raw JSON",
		},
	},
	Action: logsCmd,
}

func logsCmd(c *cli.Context) error {
	if cfg.LogDB == "" {
		return cli.Exit("Error: no log database; pass --log-db or set log_db", 1)
	}
	if c.IsSet("kind") && c.IsSet("since") {
		return cli.Exit("Error: --kind and --since cannot be combined", 1)
	}
	if c.IsSet("until") && !c.IsSet("since") {
		return cli.Exit("Error: --until needs --since", 1)
	}
	count := c.Int("count")
	if count <= 0 {
		return cli.Exit("Error: --count must be positive", 1)
	}

	var (
		entries []log.Entry
		err     error
		now     = time.Now()
	)
	switch {
	case c.IsSet("kind"):
		entries, err = log.ByKind(c.String("kind"), count)
	case c.IsSet("since"):
		start, perr := parseTimeSpec(c.String("since"), now)
		if perr != nil {
			return cli.Exit(perr.Error(), 1)
		}
		end := now
		if c.IsSet("until") {
			if end, perr = parseTimeSpec(c.String("until"), now); perr != nil {
				return cli.Exit(perr.Error(), 1)
			}
		}
		entries, err = log.Between(start, end, count)
	default:
		entries, err = log.Last(count)
	}
	if err != nil {
		if errors.Is(err, log.ErrNotInitialized) {
			return cli.Exit("Error: log database is not open", 2)
		}
		return cli.Exit(fmt.Sprintf("Error retrieving logs: %v", err), 1)
	}

	if len(entries) == 0 {
		fmt.Fprintln(c.App.ErrWriter, "No log entries found.")
		return nil
	}
	for _, e := range entries {
		if c.Bool("pretty") {
			printPretty(c.App.Writer, e)
			continue
		}
		fmt.Fprintln(c.App.Writer, e.Data)
	}
	return nil
}

func printPretty(w io.Writer, e log.Entry) {
	var fields struct {
		Time    string `json:"time"`
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Data), &fields); err != nil {
		fmt.Fprintln(w, e.Data)
		return
	}
	fmt.Fprintf(w, "%s %-5s %s\n", fields.Time, fields.Level, fields.Message)
}
