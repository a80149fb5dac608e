// Package hostlink renders this host's network state as protocol messages,
// in the form the driver uses for a dump. It lets an agent be exercised
// against a recorded snapshot instead of a live driver.
package hostlink

import (
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"xeth-go/pkg/protocol"
	"xeth-go/pkg/protocol/spec"
)

// DevKindOf maps a netlink link type onto the driver's device kinds.
func DevKindOf(link netlink.Link) protocol.DevKind {
	switch link.Type() {
	case "device", "veth", "dummy", "tuntap", "tun":
		return protocol.DevKindPort
	case "vlan":
		return protocol.DevKindVlan
	case "bridge":
		return protocol.DevKindBridge
	case "bond", "team":
		return protocol.DevKindLag
	}
	return protocol.DevKindUnspec
}

// XidOf returns the xid of a link: its index, or for a vlan its parent's
// index qualified by the vlan id.
func XidOf(link netlink.Link) protocol.Xid {
	attrs := link.Attrs()
	if vlan, ok := link.(*netlink.Vlan); ok && attrs.ParentIndex > 0 {
		vid := uint32(vlan.VlanId) & protocol.VlanVidMask
		return protocol.Xid(uint32(attrs.ParentIndex)*protocol.VlanNVid + vid)
	}
	return protocol.Xid(attrs.Index)
}

// IfinfoFromLink builds the dump Ifinfo of link in namespace ns.
func IfinfoFromLink(link netlink.Link, ns protocol.NetNs) *protocol.Ifinfo {
	attrs := link.Attrs()
	msg := &protocol.Ifinfo{
		Header:  protocol.NewHeader(spec.KindIfinfo),
		Xid:     XidOf(link),
		Name:    attrs.Name,
		Net:     ns,
		Ifindex: int32(attrs.Index),
		Flags:   attrs.RawFlags,
		DevKind: DevKindOf(link),
		Reason:  protocol.IfinfoReasonDump,
	}
	if len(msg.Name) > protocol.IfNameSize {
		msg.Name = msg.Name[:protocol.IfNameSize]
	}
	if len(attrs.HardwareAddr) == protocol.EthAddrSize {
		copy(msg.Addr[:], attrs.HardwareAddr)
	}
	if msg.DevKind == protocol.DevKindVlan {
		msg.Kdata = uint32(protocol.EncapVlan)
	}
	return msg
}

// IfaFromAddr returns an Ifa or Ifa6 announcing addr on xid, or nil when
// addr is neither IPv4 nor IPv6.
func IfaFromAddr(xid protocol.Xid, addr netlink.Addr) protocol.Message {
	if addr.IPNet == nil {
		return nil
	}
	if ip4 := addr.IP.To4(); ip4 != nil {
		return &protocol.Ifa{
			Header:  protocol.NewHeader(spec.KindIfa),
			Xid:     xid,
			Event:   protocol.IfaAdd,
			Address: protocol.Addr4FromIP(ip4),
			Mask:    protocol.Addr4FromIP(maskOf(addr.Mask, net.IPv4len)),
		}
	}
	if len(addr.IP) != net.IPv6len {
		return nil
	}
	ones, _ := addr.Mask.Size()
	return &protocol.Ifa6{
		Header:  protocol.NewHeader(spec.KindIfa6),
		Xid:     xid,
		Event:   protocol.IfaAdd,
		Address: protocol.Addr6FromIP(addr.IP),
		Length:  uint8(ones),
	}
}

// maskOf returns the trailing n bytes of a mask that may be 16 bytes long.
func maskOf(mask net.IPMask, n int) net.IPMask {
	if len(mask) > n {
		return mask[len(mask)-n:]
	}
	return mask
}

// FibEntryFromRoute converts an IPv4 route. A nil Dst is the default route.
func FibEntryFromRoute(route netlink.Route, ns protocol.NetNs) *protocol.FibEntry {
	msg := &protocol.FibEntry{
		Header: protocol.NewHeader(spec.KindFibEntry),
		Net:    ns,
		Event:  protocol.FibEventEntryAdd,
		Tos:    uint8(route.Tos),
		Type:   protocol.RouteType(route.Type),
		Table:  protocol.RouteTable(route.Table),
	}
	if route.Dst != nil {
		msg.Address = protocol.Addr4FromIP(route.Dst.IP.Mask(route.Dst.Mask))
		msg.Mask = protocol.Addr4FromIP(maskOf(route.Dst.Mask, net.IPv4len))
	}
	scope := protocol.RouteScope(route.Scope)
	if len(route.MultiPath) > 0 {
		for _, nh := range route.MultiPath {
			msg.NextHops = append(msg.NextHops, protocol.NextHop{
				Ifindex: int32(nh.LinkIndex),
				Weight:  int32(nh.Hops + 1),
				Flags:   protocol.NextHopFlags(nh.Flags),
				Gw:      protocol.Addr4FromIP(nh.Gw),
				Scope:   scope,
			})
		}
		return msg
	}
	if route.LinkIndex > 0 || route.Gw != nil {
		msg.NextHops = []protocol.NextHop{{
			Ifindex: int32(route.LinkIndex),
			Weight:  1,
			Flags:   protocol.NextHopFlags(route.Flags),
			Gw:      protocol.Addr4FromIP(route.Gw),
			Scope:   scope,
		}}
	}
	return msg
}

// Fib6EntryFromRoute converts an IPv6 route. The first path is the entry's
// next hop; any others become siblings.
func Fib6EntryFromRoute(route netlink.Route, ns protocol.NetNs) *protocol.Fib6Entry {
	msg := &protocol.Fib6Entry{
		Header: protocol.NewHeader(spec.KindFib6Entry),
		Net:    ns,
		Event:  protocol.FibEventEntryAdd,
		Type:   protocol.RouteType(route.Type),
		Table:  protocol.RouteTable(route.Table),
	}
	if route.Dst != nil {
		ones, _ := route.Dst.Mask.Size()
		msg.Address = protocol.Addr6FromIP(route.Dst.IP.Mask(route.Dst.Mask))
		msg.Length = uint8(ones)
	}
	if len(route.MultiPath) == 0 {
		msg.NextHop = protocol.NextHop6{
			Ifindex: int32(route.LinkIndex),
			Weight:  1,
			Flags:   protocol.NextHopFlags(route.Flags),
		}
		if route.Gw != nil {
			msg.NextHop.Gw = protocol.Addr6FromIP(route.Gw)
		}
		return msg
	}
	for i, nh := range route.MultiPath {
		hop := protocol.NextHop6{
			Ifindex: int32(nh.LinkIndex),
			Weight:  int32(nh.Hops + 1),
			Flags:   protocol.NextHopFlags(nh.Flags),
		}
		if nh.Gw != nil {
			hop.Gw = protocol.Addr6FromIP(nh.Gw)
		}
		if i == 0 {
			msg.NextHop = hop
			continue
		}
		msg.Siblings = append(msg.Siblings, hop)
	}
	return msg
}

// NeighUpdateFromNeigh converts a neighbor entry, or returns nil when it
// has no usable IP address.
func NeighUpdateFromNeigh(neigh netlink.Neigh, ns protocol.NetNs) *protocol.NeighUpdate {
	msg := &protocol.NeighUpdate{
		Header:  protocol.NewHeader(spec.KindNeighUpdate),
		Net:     ns,
		Ifindex: int32(neigh.LinkIndex),
	}
	if ip4 := neigh.IP.To4(); ip4 != nil {
		msg.Family = unix.AF_INET
		msg.Len = net.IPv4len
		copy(msg.Dst[:], ip4)
	} else if len(neigh.IP) == net.IPv6len {
		msg.Family = unix.AF_INET6
		msg.Len = net.IPv6len
		copy(msg.Dst[:], neigh.IP)
	} else {
		return nil
	}
	if len(neigh.HardwareAddr) == protocol.EthAddrSize {
		copy(msg.Lladdr[:], neigh.HardwareAddr)
	}
	return msg
}
