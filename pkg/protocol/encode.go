package protocol

import (
	"fmt"
	"slices"
	"strings"

	"xeth-go/pkg/protocol/spec"
)

// Encode returns the wire form of msg.
func Encode(msg Message) ([]byte, error) {
	return AppendEncode(nil, msg)
}

// AppendEncode appends the wire form of msg to dst. On error dst is returned
// unchanged.
func AppendEncode(dst []byte, msg Message) ([]byte, error) {
	n := msg.Size()
	dst = slices.Grow(dst, n)
	b := dst[len(dst) : len(dst)+n]
	clear(b)
	InitHeader(b, msg.Kind())
	if err := msg.marshal(b); err != nil {
		return dst, err
	}
	return dst[:len(dst)+n], nil
}

func (*Break) marshal([]byte) error       { return nil }
func (*DumpIfinfo) marshal([]byte) error  { return nil }
func (*DumpFibinfo) marshal([]byte) error { return nil }

func (m *Carrier) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	b[20] = uint8(m.Flag)
	return nil
}

func (m *Speed) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], m.Mbps)
	return nil
}

func (m *EthtoolFlags) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], m.Flags)
	return nil
}

func (m *Stat) marshal(b []byte) error {
	switch m.Header.Kind {
	case spec.KindLinkStat, spec.KindEthtoolStat:
	default:
		return kindMismatch(m.Header.Kind)
	}
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], m.Index)
	ne.PutUint64(b[24:32], m.Count)
	return nil
}

func (m *EthtoolSettings) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], m.Speed)
	b[24] = uint8(m.Duplex)
	b[25] = uint8(m.Port)
	b[26] = m.PhyAddress
	b[27] = uint8(m.AutoNeg)
	b[28] = m.MdioSupport
	b[29] = m.EthTpMdix
	b[30] = m.EthTpMdixCtrl
	return nil
}

func (m *EthtoolLinkModes) marshal(b []byte) error {
	switch m.Header.Kind {
	case spec.KindEthtoolLinkModesSupported,
		spec.KindEthtoolLinkModesAdvertising,
		spec.KindEthtoolLinkModesLPAdvertising:
	default:
		return kindMismatch(m.Header.Kind)
	}
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint64(b[24:32], uint64(m.Modes))
	return nil
}

func (m *ChangeUpperXid) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Upper))
	ne.PutUint32(b[20:24], uint32(m.Lower))
	if m.Linking {
		b[24] = 1
	}
	return nil
}

func (m *Ifa) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], uint32(m.Event))
	be.PutUint32(b[24:28], uint32(m.Address))
	be.PutUint32(b[28:32], uint32(m.Mask))
	return nil
}

func (m *Ifa6) marshal(b []byte) error {
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], uint32(m.Event))
	copy(b[24:40], m.Address[:])
	b[40] = m.Length
	return nil
}

func (m *Ifinfo) marshal(b []byte) error {
	if len(m.Name) > IfNameSize {
		return ErrNameTooLong
	}
	// The name is NUL padded, so an embedded NUL would not survive decode.
	if strings.IndexByte(m.Name, 0) >= 0 {
		return ErrMalformedName
	}
	ne.PutUint32(b[16:20], uint32(m.Xid))
	ne.PutUint32(b[20:24], m.Kdata)
	copy(b[24:40], m.Name)
	ne.PutUint64(b[40:48], uint64(m.Net))
	ne.PutUint32(b[48:52], uint32(m.Ifindex))
	ne.PutUint32(b[52:56], m.Flags)
	copy(b[56:62], m.Addr[:])
	b[62] = uint8(m.DevKind)
	b[63] = uint8(m.Reason)
	ne.PutUint64(b[64:72], m.Features)
	return nil
}

func (m *NeighUpdate) marshal(b []byte) error {
	ne.PutUint64(b[16:24], uint64(m.Net))
	ne.PutUint32(b[24:28], uint32(m.Ifindex))
	b[28] = m.Family
	b[29] = m.Len
	copy(b[32:48], m.Dst[:])
	copy(b[48:54], m.Lladdr[:])
	return nil
}

func (m *Netns) marshal(b []byte) error {
	switch m.Header.Kind {
	case spec.KindNetnsAdd, spec.KindNetnsDel:
	default:
		return kindMismatch(m.Header.Kind)
	}
	ne.PutUint64(b[16:24], uint64(m.Net))
	return nil
}

func (nh *NextHop) marshal(b []byte) {
	ne.PutUint32(b[0:4], uint32(nh.Ifindex))
	ne.PutUint32(b[4:8], uint32(nh.Weight))
	ne.PutUint32(b[8:12], uint32(nh.Flags))
	be.PutUint32(b[12:16], uint32(nh.Gw))
	b[16] = uint8(nh.Scope)
}

func (m *FibEntry) marshal(b []byte) error {
	if len(m.NextHops) > MaxNextHops {
		return ErrTooManyNextHops
	}
	ne.PutUint64(b[16:24], uint64(m.Net))
	be.PutUint32(b[24:28], uint32(m.Address))
	be.PutUint32(b[28:32], uint32(m.Mask))
	b[32] = uint8(m.Event)
	b[33] = uint8(len(m.NextHops))
	b[34] = m.Tos
	b[35] = uint8(m.Type)
	ne.PutUint32(b[36:40], uint32(m.Table))
	off := SizeofFibEntry
	for i := range m.NextHops {
		m.NextHops[i].marshal(b[off : off+SizeofNextHop])
		off += SizeofNextHop
	}
	return nil
}

func (nh *NextHop6) marshal(b []byte) {
	ne.PutUint32(b[0:4], uint32(nh.Ifindex))
	ne.PutUint32(b[4:8], uint32(nh.Weight))
	ne.PutUint32(b[8:12], uint32(nh.Flags))
	copy(b[16:32], nh.Gw[:])
}

func (m *Fib6Entry) marshal(b []byte) error {
	if len(m.Siblings) > MaxNextHops {
		return ErrTooManyNextHops
	}
	ne.PutUint64(b[16:24], uint64(m.Net))
	copy(b[24:40], m.Address[:])
	b[40] = m.Length
	b[41] = uint8(m.Event)
	b[42] = uint8(len(m.Siblings))
	b[43] = uint8(m.Type)
	ne.PutUint32(b[44:48], uint32(m.Table))
	m.NextHop.marshal(b[48:SizeofFib6Entry])
	off := SizeofFib6Entry
	for i := range m.Siblings {
		m.Siblings[i].marshal(b[off : off+SizeofNextHop6])
		off += SizeofNextHop6
	}
	return nil
}

func kindMismatch(kind spec.Kind) error {
	return fmt.Errorf("%w: %s", ErrKindMismatch, kind)
}
