package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/capture"
	"xeth-go/pkg/hostlink"
	"xeth-go/pkg/log"
	"xeth-go/pkg/protocol"
)

var hostdumpCommand = &cli.Command{
	Name:      "hostdump",
	Usage:     "write this host's links, addresses, routes and neighbors as a capture",
	UsageText: "xethctl hostdump FILE",
	Action:    hostdumpCmd,
}

func hostdumpCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Error: expected one output FILE", 1)
	}
	path := c.Args().First()

	msgs, err := hostlink.Snapshot(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error reading host state: %v", err), 1)
	}

	level, err := capture.ParseLevel(cfg.CaptureLevel)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	w, err := capture.Create(path, level)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating capture: %v", err), 1)
	}
	if err := writeMessages(w, msgs); err != nil {
		w.Close()
		return cli.Exit(err.Error(), 1)
	}
	if err := w.Close(); err != nil {
		return cli.Exit(fmt.Sprintf("Error closing capture: %v", err), 1)
	}
	log.Info().Str("file", path).Int("records", w.Records()).Msg("host snapshot written")
	return nil
}

func writeMessages(w *capture.Writer, msgs []protocol.Message) error {
	var buf []byte
	for _, msg := range msgs {
		b, err := protocol.AppendEncode(buf[:0], msg)
		if err != nil {
			return fmt.Errorf("encode %s: %w", msg.Kind(), err)
		}
		if err := w.Record(b); err != nil {
			return err
		}
		buf = b
	}
	return nil
}
