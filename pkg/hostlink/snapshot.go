package hostlink

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"xeth-go/pkg/log"
	"xeth-go/pkg/protocol"
)

var ErrUnsupported = errors.New("hostlink: netlink is not supported on this platform")

// source lists host state. The netlink package provides it on linux.
type source interface {
	Links() ([]netlink.Link, error)
	Addrs(link netlink.Link) ([]netlink.Addr, error)
	Routes(family int) ([]netlink.Route, error)
	Neighs(family int) ([]netlink.Neigh, error)
	NetNs() (protocol.NetNs, error)
}

// Snapshot lists the links, addresses, routes and neighbors of the current
// network namespace and returns them as the two dumps would arrive from
// the driver: Ifinfos and addresses closed by a Break, then fib entries and
// neighbors closed by another.
func Snapshot(ctx context.Context) ([]protocol.Message, error) {
	return snapshot(ctx, hostSource{})
}

func snapshot(ctx context.Context, src source) ([]protocol.Message, error) {
	errb := oops.In("hostlink")

	ns, err := src.NetNs()
	if err != nil {
		return nil, errb.Wrapf(err, "netns")
	}
	links, err := src.Links()
	if err != nil {
		return nil, errb.Wrapf(err, "list links")
	}

	var msgs []protocol.Message
	xids := make(map[int]protocol.Xid, len(links))
	for _, link := range links {
		info := IfinfoFromLink(link, ns)
		xids[link.Attrs().Index] = info.Xid
		msgs = append(msgs, info)
	}

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addrs, err := src.Addrs(link)
		if err != nil {
			return nil, errb.With("link", link.Attrs().Name).Wrapf(err, "list addresses")
		}
		for _, addr := range addrs {
			if msg := IfaFromAddr(xids[link.Attrs().Index], addr); msg != nil {
				msgs = append(msgs, msg)
			}
		}
	}
	msgs = append(msgs, protocol.NewBreak())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	routes, err := src.Routes(unix.AF_INET)
	if err != nil {
		return nil, errb.Wrapf(err, "list ipv4 routes")
	}
	for _, route := range routes {
		fib := FibEntryFromRoute(route, ns)
		if len(fib.NextHops) > protocol.MaxNextHops {
			log.Warn().Str("route", fib.Prefix().String()).Int("nhs", len(fib.NextHops)).Msg("skipping route")
			continue
		}
		msgs = append(msgs, fib)
	}
	routes, err = src.Routes(unix.AF_INET6)
	if err != nil {
		return nil, errb.Wrapf(err, "list ipv6 routes")
	}
	for _, route := range routes {
		fib := Fib6EntryFromRoute(route, ns)
		if len(fib.Siblings) > protocol.MaxNextHops {
			log.Warn().Str("route", fib.Prefix().String()).Int("siblings", len(fib.Siblings)).Msg("skipping route")
			continue
		}
		msgs = append(msgs, fib)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, family := range []int{unix.AF_INET, unix.AF_INET6} {
		neighs, err := src.Neighs(family)
		if err != nil {
			return nil, errb.With("family", family).Wrapf(err, "list neighbors")
		}
		for _, neigh := range neighs {
			if msg := NeighUpdateFromNeigh(neigh, ns); msg != nil {
				msgs = append(msgs, msg)
			}
		}
	}

	log.Debug().Int("links", len(links)).Int("messages", len(msgs)).Msg("host snapshot")
	return append(msgs, protocol.NewBreak()), nil
}
