package protocol

import (
	"net"
	"net/netip"

	"xeth-go/pkg/protocol/spec"
)

// Message is one decoded side-band message. The set of implementations is
// closed; switch on the concrete type:
//
//	switch m := msg.(type) {
//	case *protocol.Ifinfo:
//	case *protocol.FibEntry:
//	...
//	}
type Message interface {
	// Kind is the discriminant written to the header.
	Kind() spec.Kind
	// Size is the encoded length in bytes.
	Size() int

	marshal(b []byte) error
	unmarshal(b []byte)
}

// newMessage returns the zero value of the variant for h.Kind.
func newMessage(h Header) Message {
	switch h.Kind {
	case spec.KindBreak:
		return &Break{Header: h}
	case spec.KindLinkStat, spec.KindEthtoolStat:
		return &Stat{Header: h}
	case spec.KindEthtoolFlags:
		return &EthtoolFlags{Header: h}
	case spec.KindEthtoolSettings:
		return &EthtoolSettings{Header: h}
	case spec.KindEthtoolLinkModesSupported,
		spec.KindEthtoolLinkModesAdvertising,
		spec.KindEthtoolLinkModesLPAdvertising:
		return &EthtoolLinkModes{Header: h}
	case spec.KindDumpIfinfo:
		return &DumpIfinfo{Header: h}
	case spec.KindCarrier:
		return &Carrier{Header: h}
	case spec.KindSpeed:
		return &Speed{Header: h}
	case spec.KindIfinfo:
		return &Ifinfo{Header: h}
	case spec.KindIfa:
		return &Ifa{Header: h}
	case spec.KindIfa6:
		return &Ifa6{Header: h}
	case spec.KindDumpFibinfo:
		return &DumpFibinfo{Header: h}
	case spec.KindFibEntry:
		return &FibEntry{Header: h}
	case spec.KindFib6Entry:
		return &Fib6Entry{Header: h}
	case spec.KindNeighUpdate:
		return &NeighUpdate{Header: h}
	case spec.KindChangeUpperXid:
		return &ChangeUpperXid{Header: h}
	case spec.KindNetnsAdd, spec.KindNetnsDel:
		return &Netns{Header: h}
	}
	return nil
}

// Break ends a dump.
type Break struct {
	Header
}

func NewBreak() *Break { return &Break{Header: NewHeader(spec.KindBreak)} }

// DumpIfinfo asks the driver to send Ifinfo for every device, then Break.
type DumpIfinfo struct {
	Header
}

func NewDumpIfinfo() *DumpIfinfo { return &DumpIfinfo{Header: NewHeader(spec.KindDumpIfinfo)} }

// DumpFibinfo asks the driver to send its fib and neighbors, then Break.
type DumpFibinfo struct {
	Header
}

func NewDumpFibinfo() *DumpFibinfo { return &DumpFibinfo{Header: NewHeader(spec.KindDumpFibinfo)} }

type Carrier struct {
	Header
	Xid  Xid
	Flag CarrierFlag
}

func NewCarrier(xid Xid, on bool) *Carrier {
	msg := &Carrier{Header: NewHeader(spec.KindCarrier), Xid: xid}
	if on {
		msg.Flag = CarrierOn
	}
	return msg
}

type Speed struct {
	Header
	Xid  Xid
	Mbps uint32
}

func NewSpeed(xid Xid, mbps uint32) *Speed {
	return &Speed{Header: NewHeader(spec.KindSpeed), Xid: xid, Mbps: mbps}
}

type EthtoolFlags struct {
	Header
	Xid   Xid
	Flags uint32
}

// Stat carries one counter; Header.Kind is KindLinkStat or KindEthtoolStat.
type Stat struct {
	Header
	Xid   Xid
	Index uint32
	Count uint64
}

func NewLinkStat(xid Xid, stat LinkStat, count uint64) *Stat {
	return &Stat{Header: NewHeader(spec.KindLinkStat), Xid: xid, Index: uint32(stat), Count: count}
}

func NewEthtoolStat(xid Xid, index uint32, count uint64) *Stat {
	return &Stat{Header: NewHeader(spec.KindEthtoolStat), Xid: xid, Index: index, Count: count}
}

// LinkStat names Index; it is only meaningful for KindLinkStat.
func (m *Stat) LinkStat() LinkStat { return LinkStat(m.Index) }

type EthtoolSettings struct {
	Header
	Xid           Xid
	Speed         uint32
	Duplex        Duplex
	Port          DevPort
	PhyAddress    uint8
	AutoNeg       AutoNeg
	MdioSupport   uint8
	EthTpMdix     uint8
	EthTpMdixCtrl uint8
}

// EthtoolLinkModes is shared by the supported, advertising and
// link-partner advertising kinds; Header.Kind tells which.
type EthtoolLinkModes struct {
	Header
	Xid   Xid
	Modes LinkModes
}

func NewEthtoolLinkModes(kind spec.Kind, xid Xid, modes LinkModes) *EthtoolLinkModes {
	return &EthtoolLinkModes{Header: NewHeader(kind), Xid: xid, Modes: modes}
}

type ChangeUpperXid struct {
	Header
	Upper   Xid
	Lower   Xid
	Linking bool
}

type Ifa struct {
	Header
	Xid     Xid
	Event   IfaEvent
	Address Addr4
	Mask    Addr4
}

// Prefix returns the interface address with the mask length.
func (m *Ifa) Prefix() netip.Prefix {
	return netip.PrefixFrom(m.Address.Addr(), m.Mask.Ones())
}

type Ifa6 struct {
	Header
	Xid     Xid
	Event   IfaEvent
	Address Addr6
	Length  uint8
}

func (m *Ifa6) Prefix() netip.Prefix {
	return netip.PrefixFrom(m.Address.Addr(), int(m.Length))
}

type Ifinfo struct {
	Header
	Xid Xid
	// Kdata is kind specific: the Encap of a vlan device or the channel of
	// a loopback-channel device.
	Kdata    uint32
	Name     string
	Net      NetNs
	Ifindex  int32
	Flags    uint32
	Addr     [EthAddrSize]byte
	DevKind  DevKind
	Reason   IfinfoReason
	Features uint64
}

func (m *Ifinfo) Encap() Encap { return Encap(m.Kdata) }

func (m *Ifinfo) Channel() uint8 { return uint8(m.Kdata) }

func (m *Ifinfo) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), m.Addr[:]...))
}

// Linux net_device flags.
const (
	iffUp           = 0x1
	iffBroadcast    = 0x2
	iffLoopback     = 0x8
	iffPointToPoint = 0x10
	iffRunning      = 0x40
	iffMulticast    = 0x1000
)

// NetFlags maps the IFF_* device flags onto net.Flags.
func (m *Ifinfo) NetFlags() net.Flags {
	var flags net.Flags
	for _, x := range []struct {
		iff  uint32
		flag net.Flags
	}{
		{iffUp, net.FlagUp},
		{iffBroadcast, net.FlagBroadcast},
		{iffLoopback, net.FlagLoopback},
		{iffPointToPoint, net.FlagPointToPoint},
		{iffMulticast, net.FlagMulticast},
		{iffRunning, net.FlagRunning},
	} {
		if m.Flags&x.iff != 0 {
			flags |= x.flag
		}
	}
	return flags
}

type NeighUpdate struct {
	Header
	Net     NetNs
	Ifindex int32
	Family  uint8
	// Len is the number of significant bytes of Dst.
	Len    uint8
	Dst    [16]byte
	Lladdr [EthAddrSize]byte
}

func (m *NeighUpdate) IP() net.IP {
	n := min(int(m.Len), len(m.Dst))
	return net.IP(append([]byte(nil), m.Dst[:n]...))
}

func (m *NeighUpdate) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), m.Lladdr[:]...))
}

// Netns announces a namespace; Header.Kind is KindNetnsAdd or KindNetnsDel.
type Netns struct {
	Header
	Net NetNs
}

type NextHop struct {
	Ifindex int32
	Weight  int32
	Flags   NextHopFlags
	Gw      Addr4
	Scope   RouteScope
}

type FibEntry struct {
	Header
	Net     NetNs
	Address Addr4
	Mask    Addr4
	Event   FibEvent
	Tos     uint8
	Type    RouteType
	Table   RouteTable
	// NextHops is nil when the entry has none. Its length is the nhs count
	// written on encode.
	NextHops []NextHop
}

func (m *FibEntry) Prefix() netip.Prefix {
	return netip.PrefixFrom(m.Address.Addr(), m.Mask.Ones())
}

type NextHop6 struct {
	Ifindex int32
	Weight  int32
	Flags   NextHopFlags
	Gw      Addr6
}

type Fib6Entry struct {
	Header
	Net     NetNs
	Address Addr6
	Length  uint8
	Event   FibEvent
	Type    RouteType
	Table   RouteTable
	NextHop NextHop6
	// Siblings is nil when there are none; its length is the nsiblings count
	// written on encode.
	Siblings []NextHop6
}

func (m *Fib6Entry) Prefix() netip.Prefix {
	return netip.PrefixFrom(m.Address.Addr(), int(m.Length))
}

func (*Break) Kind() spec.Kind              { return spec.KindBreak }
func (*DumpIfinfo) Kind() spec.Kind         { return spec.KindDumpIfinfo }
func (*DumpFibinfo) Kind() spec.Kind        { return spec.KindDumpFibinfo }
func (*Carrier) Kind() spec.Kind            { return spec.KindCarrier }
func (*Speed) Kind() spec.Kind              { return spec.KindSpeed }
func (*EthtoolFlags) Kind() spec.Kind       { return spec.KindEthtoolFlags }
func (m *Stat) Kind() spec.Kind             { return m.Header.Kind }
func (*EthtoolSettings) Kind() spec.Kind    { return spec.KindEthtoolSettings }
func (m *EthtoolLinkModes) Kind() spec.Kind { return m.Header.Kind }
func (*ChangeUpperXid) Kind() spec.Kind     { return spec.KindChangeUpperXid }
func (*Ifa) Kind() spec.Kind                { return spec.KindIfa }
func (*Ifa6) Kind() spec.Kind               { return spec.KindIfa6 }
func (*Ifinfo) Kind() spec.Kind             { return spec.KindIfinfo }
func (*NeighUpdate) Kind() spec.Kind        { return spec.KindNeighUpdate }
func (m *Netns) Kind() spec.Kind            { return m.Header.Kind }
func (*FibEntry) Kind() spec.Kind           { return spec.KindFibEntry }
func (*Fib6Entry) Kind() spec.Kind          { return spec.KindFib6Entry }

func (*Break) Size() int            { return SizeofBreak }
func (*DumpIfinfo) Size() int       { return SizeofDumpIfinfo }
func (*DumpFibinfo) Size() int      { return SizeofDumpFibinfo }
func (*Carrier) Size() int          { return SizeofCarrier }
func (*Speed) Size() int            { return SizeofSpeed }
func (*EthtoolFlags) Size() int     { return SizeofEthtoolFlags }
func (*Stat) Size() int             { return SizeofStat }
func (*EthtoolSettings) Size() int  { return SizeofEthtoolSettings }
func (*EthtoolLinkModes) Size() int { return SizeofEthtoolLinkModes }
func (*ChangeUpperXid) Size() int   { return SizeofChangeUpperXid }
func (*Ifa) Size() int              { return SizeofIfa }
func (*Ifa6) Size() int             { return SizeofIfa6 }
func (*Ifinfo) Size() int           { return SizeofIfinfo }
func (*NeighUpdate) Size() int      { return SizeofNeighUpdate }
func (*Netns) Size() int            { return SizeofNetns }

func (m *FibEntry) Size() int {
	return SizeofFibEntry + len(m.NextHops)*SizeofNextHop
}

func (m *Fib6Entry) Size() int {
	return SizeofFib6Entry + len(m.Siblings)*SizeofNextHop6
}
