package protocol

import (
	"bytes"

	"xeth-go/pkg/protocol/spec"
)

// Decode parses one message. The checks run in order: header length, zero
// guard fields, version, kind, then the exact length the kind implies.
// Failures are *DecodeError wrapping one of ErrTruncated, ErrNotAMessage,
// ErrVersionMismatch, ErrUnknownKind or ErrMalformed.
//
// The returned message does not alias b.
func Decode(b []byte) (Message, error) {
	if len(b) < SizeofHeader {
		return nil, &DecodeError{Err: ErrTruncated, Len: len(b), Want: SizeofHeader}
	}
	if !IsMessage(b) {
		return nil, &DecodeError{Err: ErrNotAMessage, Len: len(b)}
	}
	h := readHeader(b)
	if h.Version != MsgVersion {
		return nil, &DecodeError{Err: ErrVersionMismatch, Kind: h.Kind, Version: h.Version, Len: len(b)}
	}
	msg := newMessage(h)
	if msg == nil {
		return nil, &DecodeError{Err: ErrUnknownKind, Kind: h.Kind, Version: h.Version, Len: len(b)}
	}
	want, ok := wireLen(h.Kind, b)
	if !ok {
		return nil, &DecodeError{Err: ErrTruncated, Kind: h.Kind, Version: h.Version, Len: len(b), Want: want}
	}
	switch {
	case len(b) < want:
		return nil, &DecodeError{Err: ErrTruncated, Kind: h.Kind, Version: h.Version, Len: len(b), Want: want}
	case len(b) > want:
		return nil, &DecodeError{Err: ErrMalformed, Kind: h.Kind, Version: h.Version, Len: len(b), Want: want}
	}
	msg.unmarshal(b)
	return msg, nil
}

// wireLen returns the exact length of a message of kind k. For the fib
// variants it reads the count byte and reports false, with the fixed size,
// when b is too short to hold it.
func wireLen(k spec.Kind, b []byte) (int, bool) {
	switch k {
	case spec.KindFibEntry:
		if len(b) < SizeofFibEntry {
			return SizeofFibEntry, false
		}
		return SizeofFibEntry + int(b[33])*SizeofNextHop, true
	case spec.KindFib6Entry:
		if len(b) < SizeofFib6Entry {
			return SizeofFib6Entry, false
		}
		return SizeofFib6Entry + int(b[42])*SizeofNextHop6, true
	}
	return fixedLen[k], true
}

var fixedLen = [spec.NumKinds]int{
	spec.KindBreak:                         SizeofBreak,
	spec.KindLinkStat:                      SizeofStat,
	spec.KindEthtoolStat:                   SizeofStat,
	spec.KindEthtoolFlags:                  SizeofEthtoolFlags,
	spec.KindEthtoolSettings:               SizeofEthtoolSettings,
	spec.KindEthtoolLinkModesSupported:     SizeofEthtoolLinkModes,
	spec.KindEthtoolLinkModesAdvertising:   SizeofEthtoolLinkModes,
	spec.KindEthtoolLinkModesLPAdvertising: SizeofEthtoolLinkModes,
	spec.KindDumpIfinfo:                    SizeofDumpIfinfo,
	spec.KindCarrier:                       SizeofCarrier,
	spec.KindSpeed:                         SizeofSpeed,
	spec.KindIfinfo:                        SizeofIfinfo,
	spec.KindIfa:                           SizeofIfa,
	spec.KindIfa6:                          SizeofIfa6,
	spec.KindDumpFibinfo:                   SizeofDumpFibinfo,
	spec.KindFibEntry:                      SizeofFibEntry,
	spec.KindFib6Entry:                     SizeofFib6Entry,
	spec.KindNeighUpdate:                   SizeofNeighUpdate,
	spec.KindChangeUpperXid:                SizeofChangeUpperXid,
	spec.KindNetnsAdd:                      SizeofNetns,
	spec.KindNetnsDel:                      SizeofNetns,
}

// MinSize returns the smallest valid encoding of kind k, or 0 when k is not
// assigned.
func MinSize(k spec.Kind) int {
	if !k.Known() {
		return 0
	}
	return fixedLen[k]
}

func (*Break) unmarshal([]byte)       {}
func (*DumpIfinfo) unmarshal([]byte)  {}
func (*DumpFibinfo) unmarshal([]byte) {}

func (m *Carrier) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Flag = CarrierFlag(b[20])
}

func (m *Speed) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Mbps = ne.Uint32(b[20:24])
}

func (m *EthtoolFlags) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Flags = ne.Uint32(b[20:24])
}

func (m *Stat) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Index = ne.Uint32(b[20:24])
	m.Count = ne.Uint64(b[24:32])
}

func (m *EthtoolSettings) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Speed = ne.Uint32(b[20:24])
	m.Duplex = Duplex(b[24])
	m.Port = DevPort(b[25])
	m.PhyAddress = b[26]
	m.AutoNeg = AutoNeg(b[27])
	m.MdioSupport = b[28]
	m.EthTpMdix = b[29]
	m.EthTpMdixCtrl = b[30]
}

func (m *EthtoolLinkModes) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Modes = LinkModes(ne.Uint64(b[24:32]))
}

func (m *ChangeUpperXid) unmarshal(b []byte) {
	m.Upper = Xid(ne.Uint32(b[16:20]))
	m.Lower = Xid(ne.Uint32(b[20:24]))
	m.Linking = b[24] != 0
}

func (m *Ifa) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Event = IfaEvent(ne.Uint32(b[20:24]))
	m.Address = Addr4(be.Uint32(b[24:28]))
	m.Mask = Addr4(be.Uint32(b[28:32]))
}

func (m *Ifa6) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Event = IfaEvent(ne.Uint32(b[20:24]))
	copy(m.Address[:], b[24:40])
	m.Length = b[40]
}

func (m *Ifinfo) unmarshal(b []byte) {
	m.Xid = Xid(ne.Uint32(b[16:20]))
	m.Kdata = ne.Uint32(b[20:24])
	name := b[24:40]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	m.Name = string(name)
	m.Net = NetNs(ne.Uint64(b[40:48]))
	m.Ifindex = int32(ne.Uint32(b[48:52]))
	m.Flags = ne.Uint32(b[52:56])
	copy(m.Addr[:], b[56:62])
	m.DevKind = DevKind(b[62])
	m.Reason = IfinfoReason(b[63])
	m.Features = ne.Uint64(b[64:72])
}

func (m *NeighUpdate) unmarshal(b []byte) {
	m.Net = NetNs(ne.Uint64(b[16:24]))
	m.Ifindex = int32(ne.Uint32(b[24:28]))
	m.Family = b[28]
	m.Len = b[29]
	copy(m.Dst[:], b[32:48])
	copy(m.Lladdr[:], b[48:54])
}

func (m *Netns) unmarshal(b []byte) {
	m.Net = NetNs(ne.Uint64(b[16:24]))
}

func (nh *NextHop) unmarshal(b []byte) {
	nh.Ifindex = int32(ne.Uint32(b[0:4]))
	nh.Weight = int32(ne.Uint32(b[4:8]))
	nh.Flags = NextHopFlags(ne.Uint32(b[8:12]))
	nh.Gw = Addr4(be.Uint32(b[12:16]))
	nh.Scope = RouteScope(b[16])
}

func (m *FibEntry) unmarshal(b []byte) {
	m.Net = NetNs(ne.Uint64(b[16:24]))
	m.Address = Addr4(be.Uint32(b[24:28]))
	m.Mask = Addr4(be.Uint32(b[28:32]))
	m.Event = FibEvent(b[32])
	m.Tos = b[34]
	m.Type = RouteType(b[35])
	m.Table = RouteTable(ne.Uint32(b[36:40]))
	if nhs := int(b[33]); nhs > 0 {
		m.NextHops = make([]NextHop, nhs)
		for i := range m.NextHops {
			off := SizeofFibEntry + i*SizeofNextHop
			m.NextHops[i].unmarshal(b[off : off+SizeofNextHop])
		}
	}
}

func (nh *NextHop6) unmarshal(b []byte) {
	nh.Ifindex = int32(ne.Uint32(b[0:4]))
	nh.Weight = int32(ne.Uint32(b[4:8]))
	nh.Flags = NextHopFlags(ne.Uint32(b[8:12]))
	copy(nh.Gw[:], b[16:32])
}

func (m *Fib6Entry) unmarshal(b []byte) {
	m.Net = NetNs(ne.Uint64(b[16:24]))
	copy(m.Address[:], b[24:40])
	m.Length = b[40]
	m.Event = FibEvent(b[41])
	m.Type = RouteType(b[43])
	m.Table = RouteTable(ne.Uint32(b[44:48]))
	m.NextHop.unmarshal(b[48:SizeofFib6Entry])
	if n := int(b[42]); n > 0 {
		m.Siblings = make([]NextHop6, n)
		for i := range m.Siblings {
			off := SizeofFib6Entry + i*SizeofNextHop6
			m.Siblings[i].unmarshal(b[off : off+SizeofNextHop6])
		}
	}
}
