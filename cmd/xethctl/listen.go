package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"xeth-go/pkg/api"
	"xeth-go/pkg/buffers"
	"xeth-go/pkg/capture"
	"xeth-go/pkg/log"
	"xeth-go/pkg/wire"
)

var listenCommand = &cli.Command{
	Name:  "listen",
	Usage: "dial the driver, dump its interfaces and fib, then follow events",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "socket",
			Usage: "side-band channel `ADDRESS` (overrides the configuration)",
		},
		&cli.StringFlag{
			Name:  "capture",
			Usage: "record raw traffic to the zstd capture `FILE`",
		},
		&cli.BoolFlag{
			Name:  "api",
			Usage: "serve transport counters over HTTP",
		},
		&cli.BoolFlag{
			Name:  "once",
			Usage: "exit after the dumps instead of following events",
		},
		&cli.DurationFlag{
			Name:  "dial-timeout",
			Usage: "give up dialing after `DURATION`",
			Value: 30 * time.Second,
		},
	},
	Action: listenCmd,
}

func listenCmd(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	socket := cfg.Socket
	if c.IsSet("socket") {
		socket = c.String("socket")
	}
	dctx, dcancel := context.WithTimeout(ctx, c.Duration("dial-timeout"))
	conn, err := wire.Dial(dctx, socket)
	dcancel()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error dialing %s: %v", socket, err), 1)
	}
	log.Info().Str("socket", socket).Msg("connected")

	opts := []wire.Option{
		wire.WithRxPool(buffers.NewBufferPool(cfg.RxBufferSize)),
		wire.WithQueueDepth(cfg.TxQueueDepth),
	}
	capturePath := cfg.CaptureFile
	if c.IsSet("capture") {
		capturePath = c.String("capture")
	}
	if capturePath != "" {
		level, err := capture.ParseLevel(cfg.CaptureLevel)
		if err != nil {
			conn.Close()
			return cli.Exit(err.Error(), 1)
		}
		w, err := capture.Create(capturePath, level)
		if err != nil {
			conn.Close()
			return cli.Exit(fmt.Sprintf("Error creating capture: %v", err), 1)
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Error().Err(err).Str("file", capturePath).Msg("closing capture")
				return
			}
			log.Info().Str("file", capturePath).Int("records", w.Records()).Msg("capture written")
		}()
		opts = append(opts, wire.WithRecorder(w))
	}

	h := wire.NewHandler(conn, opts...)
	h.Start()
	defer h.Stop()

	if c.Bool("api") {
		sapi := api.NewStatsApi(cfg.APIListenAddr, h)
		go func() {
			if err := sapi.Run(ctx); err != nil {
				log.Error().Err(err).Msg("stats api")
			}
		}()
	}

	err = session(ctx, h, !c.Bool("once"))
	stats := h.Stats()
	log.Info().
		Uint64("received", stats.Received).
		Uint64("decoded", stats.Decoded).
		Uint64("sent", stats.Sent).
		Uint64("dropped", stats.Dropped).
		Msg("done")
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// session runs the agent start-up exchange: request the interfaces, read
// them until Break, then the same for the fib and neighbors. With follow
// set it keeps logging events until ctx ends or the driver hangs up.
func session(ctx context.Context, h *wire.Handler, follow bool) error {
	if err := h.DumpIfinfo(); err != nil {
		return err
	}
	if err := h.UntilBreak(ctx, logMessage); err != nil {
		return err
	}
	if err := h.DumpFibinfo(); err != nil {
		return err
	}
	if err := h.UntilBreak(ctx, logMessage); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return h.Serve(ctx, logMessage)
}
