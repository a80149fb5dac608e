package protocol

import (
	"fmt"
	"math/bits"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

const (
	VlanVidMask = 0x0fff
	VlanNVid    = 4096
)

// Xid is the external interface identifier shared by driver and agent.
// Values above VlanNVid qualify a lower xid with a vlan id.
type Xid uint32

func (xid Xid) String() string {
	if xid > VlanNVid {
		return fmt.Sprintf("(%d, %d)", xid&VlanVidMask, xid/VlanNVid)
	}
	return strconv.FormatUint(uint64(xid), 10)
}

// NetNs identifies a network namespace by its inode number.
type NetNs uint64

// DefaultNetNs is the id the driver uses for the initial namespace.
const DefaultNetNs NetNs = 1

func (ns NetNs) String() string {
	if ns == DefaultNetNs {
		return "default"
	}
	return strconv.FormatUint(uint64(ns), 10)
}

// Addr4 is an IPv4 address or mask held in host order; 10.0.0.1 is
// 0x0a000001. It is big-endian on the wire.
type Addr4 uint32

// Addr4From converts a 4-byte (or 4-in-6) address; other addresses map to 0.
func Addr4From(addr netip.Addr) Addr4 {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0
	}
	a := addr.As4()
	return Addr4(be.Uint32(a[:]))
}

// Addr4FromIP converts a net.IP or net.IPMask sized slice.
func Addr4FromIP(ip []byte) Addr4 {
	if len(ip) == net.IPv6len {
		ip = net.IP(ip).To4()
	}
	if len(ip) != net.IPv4len {
		return 0
	}
	return Addr4(be.Uint32(ip))
}

func (a Addr4) Addr() netip.Addr {
	var b [4]byte
	be.PutUint32(b[:], uint32(a))
	return netip.AddrFrom4(b)
}

// Ones returns the prefix length of a contiguous mask.
func (a Addr4) Ones() int { return bits.OnesCount32(uint32(a)) }

func (a Addr4) String() string { return a.Addr().String() }

// Addr6 is an IPv6 address in wire order.
type Addr6 [16]byte

func Addr6From(addr netip.Addr) Addr6 { return Addr6(addr.As16()) }

// Addr6FromIP converts a 16-byte net.IP; 4-byte addresses are mapped.
func Addr6FromIP(ip []byte) Addr6 {
	var a Addr6
	if ip16 := net.IP(ip).To16(); ip16 != nil {
		copy(a[:], ip16)
	}
	return a
}

func (a Addr6) Addr() netip.Addr { return netip.AddrFrom16(a) }

func (a Addr6) String() string { return a.Addr().String() }

type DevKind uint8

const (
	DevKindUnspec DevKind = iota
	DevKindPort
	DevKindVlan
	DevKindBridge
	DevKindLag
	DevKindLb
)

func (kind DevKind) String() string {
	switch kind {
	case DevKindUnspec:
		return "unspecified"
	case DevKindPort:
		return "port"
	case DevKindVlan:
		return "vlan"
	case DevKindBridge:
		return "bridge"
	case DevKindLag:
		return "lag"
	case DevKindLb:
		return "lb"
	}
	return fmt.Sprint("unknown-", uint8(kind))
}

type IfinfoReason uint8

const (
	IfinfoReasonNew IfinfoReason = iota
	IfinfoReasonDel
	IfinfoReasonUp
	IfinfoReasonDown
	IfinfoReasonDump
	IfinfoReasonReg
	IfinfoReasonUnreg
	IfinfoReasonFeatures
)

func (reason IfinfoReason) String() string {
	switch reason {
	case IfinfoReasonNew:
		return "new"
	case IfinfoReasonDel:
		return "del"
	case IfinfoReasonUp:
		return "up"
	case IfinfoReasonDown:
		return "down"
	case IfinfoReasonDump:
		return "dump"
	case IfinfoReasonReg:
		return "reg"
	case IfinfoReasonUnreg:
		return "unreg"
	case IfinfoReasonFeatures:
		return "features"
	}
	return fmt.Sprint("unknown-", uint8(reason))
}

// Encap is the kind data of a vlan device.
type Encap uint32

const (
	EncapVlan Encap = iota
	EncapVpls
)

const (
	EncapVlanVidBit  = 12
	EncapVplsVidBit  = 20
	EncapVlanVidMask = 1<<EncapVlanVidBit - 1
	EncapVplsVidMask = 1<<EncapVplsVidBit - 1
)

// VidMask returns the mask of the vid bits for the encapsulation.
func (encap Encap) VidMask() uint32 {
	if encap == EncapVpls {
		return EncapVplsVidMask
	}
	return EncapVlanVidMask
}

func (encap Encap) String() string {
	switch encap {
	case EncapVlan:
		return "vlan"
	case EncapVpls:
		return "vpls"
	}
	return fmt.Sprint("unknown-", uint32(encap))
}

type CarrierFlag uint8

const (
	CarrierOff CarrierFlag = iota
	CarrierOn
)

func (flag CarrierFlag) String() string {
	if flag == CarrierOn {
		return "on"
	}
	return "off"
}

// IfaEvent is the netdev event of an address message.
type IfaEvent uint32

const (
	IfaAdd IfaEvent = 1
	IfaDel IfaEvent = 2
)

func (event IfaEvent) String() string {
	switch event {
	case IfaAdd:
		return "add"
	case IfaDel:
		return "del"
	}
	return fmt.Sprint("unknown-", uint32(event))
}

type FibEvent uint8

const (
	FibEventEntryReplace FibEvent = iota
	FibEventEntryAppend
	FibEventEntryAdd
	FibEventEntryDel
	FibEventRuleAdd
	FibEventRuleDel
	FibEventNhAdd
	FibEventNhDel
)

func (event FibEvent) String() string {
	s, found := map[FibEvent]string{
		FibEventEntryReplace: "replace",
		FibEventEntryAppend:  "append",
		FibEventEntryAdd:     "add",
		FibEventEntryDel:     "del",
		FibEventRuleAdd:      "rule-add",
		FibEventRuleDel:      "rule-del",
		FibEventNhAdd:        "nh-add",
		FibEventNhDel:        "nh-del",
	}[event]
	if !found {
		s = fmt.Sprint("unknown-", uint8(event))
	}
	return s
}

// RouteType is the rtnetlink route type (RTN_*).
type RouteType uint8

const (
	RouteTypeUnspec RouteType = iota
	RouteTypeUnicast
	RouteTypeLocal
	RouteTypeBroadcast
	RouteTypeAnycast
	RouteTypeMulticast
	RouteTypeBlackhole
	RouteTypeUnreachable
	RouteTypeProhibit
	RouteTypeThrow
	RouteTypeNat
	RouteTypeXresolve
)

var routeTypeNames = [...]string{
	"unspec",
	"unicast",
	"local",
	"broadcast",
	"anycast",
	"multicast",
	"blackhole",
	"unreachable",
	"prohibit",
	"throw",
	"nat",
	"xresolve",
}

func (rtn RouteType) String() string {
	if int(rtn) < len(routeTypeNames) {
		return routeTypeNames[rtn]
	}
	return fmt.Sprint("unknown-", uint8(rtn))
}

// RouteScope is the rtnetlink scope (RT_SCOPE_*).
type RouteScope uint8

const (
	RouteScopeUniverse RouteScope = 0
	RouteScopeSite     RouteScope = 200
	RouteScopeLink     RouteScope = 253
	RouteScopeHost     RouteScope = 254
	RouteScopeNowhere  RouteScope = 255
)

func (scope RouteScope) String() string {
	switch scope {
	case RouteScopeUniverse:
		return "universe"
	case RouteScopeSite:
		return "site"
	case RouteScopeLink:
		return "link"
	case RouteScopeHost:
		return "host"
	case RouteScopeNowhere:
		return "nowhere"
	}
	return fmt.Sprint("undefined-", uint8(scope))
}

// RouteTable is the kernel routing table id (RT_TABLE_*).
type RouteTable uint32

const (
	RouteTableUnspec  RouteTable = 0
	RouteTableCompat  RouteTable = 252
	RouteTableDefault RouteTable = 253
	RouteTableMain    RouteTable = 254
	RouteTableLocal   RouteTable = 255
)

func (table RouteTable) String() string {
	switch table {
	case RouteTableUnspec:
		return "unspec"
	case RouteTableCompat:
		return "compat"
	case RouteTableDefault:
		return "default"
	case RouteTableMain:
		return "main"
	case RouteTableLocal:
		return "local"
	}
	return strconv.FormatUint(uint64(table), 10)
}

// NextHopFlags are the rtnexthop flags (RTNH_F_*).
type NextHopFlags uint32

const (
	NextHopDead NextHopFlags = 1 << iota
	NextHopPervasive
	NextHopOnLink
	NextHopOffload
	NextHopLinkDown
	NextHopUnresolved
)

func (flags NextHopFlags) String() string {
	var names []string
	for _, x := range []struct {
		flag NextHopFlags
		name string
	}{
		{NextHopDead, "dead"},
		{NextHopPervasive, "pervasive"},
		{NextHopOnLink, "on-link"},
		{NextHopOffload, "off-load"},
		{NextHopLinkDown, "link-down"},
		{NextHopUnresolved, "unresolved"},
	} {
		if flags&x.flag == x.flag {
			names = append(names, x.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

type Duplex uint8

const (
	DuplexHalf    Duplex = 0x00
	DuplexFull    Duplex = 0x01
	DuplexUnknown Duplex = 0xff
)

func (duplex Duplex) String() string {
	switch duplex {
	case DuplexHalf:
		return "half"
	case DuplexFull:
		return "full"
	case DuplexUnknown:
		return "unknown"
	}
	return fmt.Sprint("unknown-", uint8(duplex))
}

type DevPort uint8

const (
	PortTP    DevPort = 0x00
	PortAUI   DevPort = 0x01
	PortBNC   DevPort = 0x02
	PortMII   DevPort = 0x03
	PortFibre DevPort = 0x04
	PortDA    DevPort = 0x05
	PortNone  DevPort = 0xef
	PortOther DevPort = 0xff
)

func (port DevPort) String() string {
	switch port {
	case PortTP:
		return "tp"
	case PortAUI:
		return "aui"
	case PortBNC:
		return "bnc"
	case PortMII:
		return "mii"
	case PortFibre:
		return "fibre"
	case PortDA:
		return "da"
	case PortNone:
		return "none"
	case PortOther:
		return "other"
	}
	return fmt.Sprint("unknown-", uint8(port))
}

type AutoNeg uint8

const (
	AutoNegDisable AutoNeg = 0x00
	AutoNegEnable  AutoNeg = 0x01
)

func (autoneg AutoNeg) String() string {
	switch autoneg {
	case AutoNegDisable:
		return "disabled"
	case AutoNegEnable:
		return "enabled"
	}
	return fmt.Sprint("unknown-", uint8(autoneg))
}

// LinkStat indexes the link statistics carried by LinkStat messages.
type LinkStat uint32

const (
	LinkStatRxPackets LinkStat = iota
	LinkStatTxPackets
	LinkStatRxBytes
	LinkStatTxBytes
	LinkStatRxErrors
	LinkStatTxErrors
	LinkStatRxDropped
	LinkStatTxDropped
	LinkStatMulticast
	LinkStatCollisions
	LinkStatRxLengthErrors
	LinkStatRxOverErrors
	LinkStatRxCrcErrors
	LinkStatRxFrameErrors
	LinkStatRxFifoErrors
	LinkStatRxMissedErrors
	LinkStatTxAbortedErrors
	LinkStatTxCarrierErrors
	LinkStatTxFifoErrors
	LinkStatTxHeartbeatErrors
	LinkStatTxWindowErrors
	LinkStatRxCompressed
	LinkStatTxCompressed
	LinkStatRxNohandler

	NumLinkStats
)

var linkStatNames = [NumLinkStats]string{
	"rx-packets",
	"tx-packets",
	"rx-bytes",
	"tx-bytes",
	"rx-errors",
	"tx-errors",
	"rx-dropped",
	"tx-dropped",
	"multicast",
	"collisions",
	"rx-length-errors",
	"rx-over-errors",
	"rx-crc-errors",
	"rx-frame-errors",
	"rx-fifo-errors",
	"rx-missed-errors",
	"tx-aborted-errors",
	"tx-carrier-errors",
	"tx-fifo-errors",
	"tx-heartbeat-errors",
	"tx-window-errors",
	"rx-compressed",
	"tx-compressed",
	"rx-nohandler",
}

func (stat LinkStat) String() string {
	if stat < NumLinkStats {
		return linkStatNames[stat]
	}
	return "invalid-link-stat"
}

// LinkModes is an ethtool link mode bitmap.
type LinkModes uint64

var linkModeNames = []string{
	"10baseT-half",
	"10baseT-full",
	"100baseT-half",
	"100baseT-full",
	"1000baseT-half",
	"1000baseT-full",
	"Autoneg",
	"TP",
	"AUI",
	"MII",
	"FIBRE",
	"BNC",
	"10000baseT-full",
	"Pause",
	"Asym-Pause",
	"2500baseX-full",
	"Backplane",
	"1000baseKX-full",
	"10000baseKX4-full",
	"10000baseKR-full",
	"10000baseR-FEC",
	"20000baseMLD2-full",
	"20000baseKR2-full",
	"40000baseKR4-full",
	"40000baseCR4-full",
	"40000baseSR4-full",
	"40000baseLR4-full",
	"56000baseKR4-full",
	"56000baseCR4-full",
	"56000baseSR4-full",
	"56000baseLR4-full",
	"25000baseCR-full",
	"25000baseKR-full",
	"25000baseSR-full",
	"50000baseCR2-full",
	"50000baseKR2-full",
	"100000baseKR4-full",
	"100000baseSR4-full",
	"100000baseCR4-full",
	"100000baseLR4-ER4-full",
	"50000baseSR2-full",
	"1000baseX-full",
	"10000baseCR-full",
	"10000baseSR-full",
	"10000baseLR-full",
	"10000baseLRM-full",
	"10000baseER-full",
	"2500baseT-full",
	"5000baseT-full",
	"fec-none",
	"fec-rs",
	"fec-baser",
}

// Test reports whether bit i is set.
func (modes LinkModes) Test(i uint) bool { return i < 64 && modes&(1<<i) != 0 }

func (modes LinkModes) String() string {
	var names []string
	for i, s := range linkModeNames {
		if modes.Test(uint(i)) {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
