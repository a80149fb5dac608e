//go:build !linux

package hostlink

import (
	"github.com/vishvananda/netlink"

	"xeth-go/pkg/protocol"
)

type hostSource struct{}

func (hostSource) Links() ([]netlink.Link, error)            { return nil, ErrUnsupported }
func (hostSource) Addrs(netlink.Link) ([]netlink.Addr, error) { return nil, ErrUnsupported }
func (hostSource) Routes(int) ([]netlink.Route, error)        { return nil, ErrUnsupported }
func (hostSource) Neighs(int) ([]netlink.Neigh, error)        { return nil, ErrUnsupported }
func (hostSource) NetNs() (protocol.NetNs, error)             { return 0, ErrUnsupported }
