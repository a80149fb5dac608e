// Package api serves transport counters and the message kind table over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"xeth-go/pkg/log"
	"xeth-go/pkg/protocol"
	"xeth-go/pkg/protocol/spec"
	"xeth-go/pkg/wire"
)

const shutdownTimeout = 5 * time.Second

// StatsSource is satisfied by *wire.Handler.
type StatsSource interface {
	Stats() wire.Stats
}

// KindInfo describes one message kind.
type KindInfo struct {
	Kind    uint8  `json:"kind"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	MinSize int    `json:"min_size"`
	// Variable is set for kinds followed by a counted array of records.
	Variable bool `json:"variable,omitempty"`
}

// Kinds returns the table of every known kind.
func Kinds() []KindInfo {
	kinds := spec.Kinds()
	table := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		table = append(table, KindInfo{
			Kind:     uint8(k),
			Name:     k.String(),
			Class:    k.Class().String(),
			MinSize:  protocol.MinSize(k),
			Variable: k == spec.KindFibEntry || k == spec.KindFib6Entry,
		})
	}
	return table
}

type StatsApi struct {
	Api    *echo.Echo
	Source StatsSource
	addr   string
}

func NewStatsApi(addr string, src StatsSource) *StatsApi {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	sapi := &StatsApi{
		Api:    e,
		Source: src,
		addr:   addr,
	}
	e.GET("/stats", sapi.GetStats)
	e.GET("/kinds", sapi.GetKinds)
	return sapi
}

func (sapi *StatsApi) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, sapi.Source.Stats())
}

func (sapi *StatsApi) GetKinds(c echo.Context) error {
	return c.JSON(http.StatusOK, Kinds())
}

// Run serves until ctx ends, then shuts the server down.
func (sapi *StatsApi) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", sapi.addr).Msg("stats api listening")
		errc <- sapi.Api.Start(sapi.addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.In("api").With("addr", sapi.addr).Wrapf(err, "serve")
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sapi.Api.Shutdown(sctx); err != nil {
		return oops.In("api").Wrapf(err, "shutdown")
	}
	return nil
}
