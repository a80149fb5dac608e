//go:build linux

package hostlink

import (
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"xeth-go/pkg/protocol"
)

type hostSource struct{}

func (hostSource) Links() ([]netlink.Link, error) { return netlink.LinkList() }

func (hostSource) Addrs(link netlink.Link) ([]netlink.Addr, error) {
	return netlink.AddrList(link, netlink.FAMILY_ALL)
}

func (hostSource) Routes(family int) ([]netlink.Route, error) {
	return netlink.RouteList(nil, family)
}

func (hostSource) Neighs(family int) ([]netlink.Neigh, error) {
	return netlink.NeighList(0, family)
}

// NetNs returns DefaultNetNs in the initial namespace and the namespace
// inode number otherwise.
func (hostSource) NetNs() (protocol.NetNs, error) {
	self, err := netns.Get()
	if err != nil {
		return 0, err
	}
	defer self.Close()

	// reading pid 1's namespace needs privilege; without it assume we are
	// not in the initial namespace
	if initial, err := netns.GetFromPid(1); err == nil {
		same := self.Equal(initial)
		initial.Close()
		if same {
			return protocol.DefaultNetNs, nil
		}
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(self), &st); err != nil {
		return 0, err
	}
	return protocol.NetNs(st.Ino), nil
}
