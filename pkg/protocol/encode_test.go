package protocol

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xeth-go/pkg/protocol/spec"
)

// sampleMessages returns one populated value of every variant.
func sampleMessages() []Message {
	gw6 := Addr6From(netip.MustParseAddr("fe80::1"))
	return []Message{
		NewBreak(),
		NewDumpIfinfo(),
		NewDumpFibinfo(),
		NewCarrier(3, true),
		NewSpeed(3, 100000),
		&EthtoolFlags{Header: NewHeader(spec.KindEthtoolFlags), Xid: 3, Flags: 0x5},
		NewLinkStat(3, LinkStatRxBytes, 1<<40),
		NewEthtoolStat(3, 17, 99),
		&EthtoolSettings{
			Header:        NewHeader(spec.KindEthtoolSettings),
			Xid:           3,
			Speed:         25000,
			Duplex:        DuplexFull,
			Port:          PortFibre,
			PhyAddress:    2,
			AutoNeg:       AutoNegEnable,
			MdioSupport:   1,
			EthTpMdix:     2,
			EthTpMdixCtrl: 3,
		},
		NewEthtoolLinkModes(spec.KindEthtoolLinkModesSupported, 3, 0x8000_0000_0000_0001),
		NewEthtoolLinkModes(spec.KindEthtoolLinkModesAdvertising, 3, 0x10),
		NewEthtoolLinkModes(spec.KindEthtoolLinkModesLPAdvertising, 3, 0x20),
		&ChangeUpperXid{Header: NewHeader(spec.KindChangeUpperXid), Upper: 4096*2 + 10, Lower: 2, Linking: true},
		&Ifa{
			Header:  NewHeader(spec.KindIfa),
			Xid:     3,
			Event:   IfaAdd,
			Address: Addr4From(netip.MustParseAddr("10.0.0.1")),
			Mask:    Addr4From(netip.MustParseAddr("255.255.255.0")),
		},
		&Ifa6{
			Header:  NewHeader(spec.KindIfa6),
			Xid:     3,
			Event:   IfaDel,
			Address: Addr6From(netip.MustParseAddr("2001:db8::7")),
			Length:  64,
		},
		&Ifinfo{
			Header:   NewHeader(spec.KindIfinfo),
			Xid:      3,
			Kdata:    uint32(EncapVlan),
			Name:     "xeth3",
			Net:      DefaultNetNs,
			Ifindex:  42,
			Flags:    iffUp | iffBroadcast | iffMulticast,
			Addr:     [EthAddrSize]byte{0x02, 0, 0, 0, 0, 3},
			DevKind:  DevKindPort,
			Reason:   IfinfoReasonDump,
			Features: 0xdead_beef,
		},
		&NeighUpdate{
			Header:  NewHeader(spec.KindNeighUpdate),
			Net:     DefaultNetNs,
			Ifindex: 42,
			Family:  2,
			Len:     4,
			Dst:     [16]byte{192, 168, 1, 9},
			Lladdr:  [EthAddrSize]byte{0x02, 0, 0, 0, 0, 9},
		},
		&Netns{Header: NewHeader(spec.KindNetnsAdd), Net: 4026532000},
		&Netns{Header: NewHeader(spec.KindNetnsDel), Net: 4026532000},
		&FibEntry{
			Header:  NewHeader(spec.KindFibEntry),
			Net:     DefaultNetNs,
			Address: Addr4From(netip.MustParseAddr("10.1.0.0")),
			Mask:    Addr4From(netip.MustParseAddr("255.255.0.0")),
			Event:   FibEventEntryReplace,
			Tos:     0,
			Type:    RouteTypeUnicast,
			Table:   RouteTableMain,
		},
		&FibEntry{
			Header:  NewHeader(spec.KindFibEntry),
			Net:     DefaultNetNs,
			Address: Addr4From(netip.MustParseAddr("10.2.0.0")),
			Mask:    Addr4From(netip.MustParseAddr("255.255.255.0")),
			Event:   FibEventEntryAdd,
			Tos:     4,
			Type:    RouteTypeUnicast,
			Table:   RouteTableMain,
			NextHops: []NextHop{
				{Ifindex: 42, Weight: 1, Gw: Addr4From(netip.MustParseAddr("10.0.0.2")), Scope: RouteScopeUniverse},
				{Ifindex: 43, Weight: 2, Flags: NextHopOnLink, Gw: Addr4From(netip.MustParseAddr("10.0.0.3")), Scope: RouteScopeLink},
			},
		},
		&Fib6Entry{
			Header:  NewHeader(spec.KindFib6Entry),
			Net:     DefaultNetNs,
			Address: Addr6From(netip.MustParseAddr("2001:db8:1::")),
			Length:  48,
			Event:   FibEventEntryAdd,
			Type:    RouteTypeUnicast,
			Table:   RouteTableMain,
			NextHop: NextHop6{Ifindex: 42, Weight: 1, Gw: gw6},
			Siblings: []NextHop6{
				{Ifindex: 43, Weight: 1, Flags: NextHopDead, Gw: gw6},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, msg := range sampleMessages() {
		t.Run(msg.Kind().String(), func(t *testing.T) {
			b, err := Encode(msg)
			require.NoError(t, err)
			require.Len(t, b, msg.Size())
			assert.True(t, IsMessage(b))
			assert.True(t, VersionMatches(b))

			got, err := Decode(b)
			require.NoError(t, err)
			assert.Equal(t, msg, got)
		})
	}
}

func TestEveryKindHasSample(t *testing.T) {
	seen := make(map[spec.Kind]bool)
	for _, msg := range sampleMessages() {
		seen[msg.Kind()] = true
	}
	for _, kind := range spec.Kinds() {
		assert.True(t, seen[kind], kind.String())
	}
}

func TestEncodeIfaByteOrder(t *testing.T) {
	msg := &Ifa{
		Header:  NewHeader(spec.KindIfa),
		Xid:     1,
		Event:   IfaAdd,
		Address: 0x0a000001,
		Mask:    0xffffff00,
	}
	b, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x00, 0x00, 0x01}, b[24:28])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0x00}, b[28:32])

	got, err := Decode(b)
	require.NoError(t, err)
	ifa := got.(*Ifa)
	assert.Equal(t, Addr4(0x0a000001), ifa.Address)
	assert.Equal(t, "10.0.0.1/24", ifa.Prefix().String())
}

func TestEncodeNextHopGatewayByteOrder(t *testing.T) {
	msg := &FibEntry{
		Header:   NewHeader(spec.KindFibEntry),
		NextHops: []NextHop{{Gw: 0xc0a80101}},
	}
	b, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 168, 1, 1}, b[SizeofFibEntry+12:SizeofFibEntry+16])
}

func TestEncodeZeroesPadding(t *testing.T) {
	dst := make([]byte, 0, 128)
	dst = append(dst, 0xaa)
	for i := 1; i < cap(dst); i++ {
		dst = append(dst, 0xee)
	}
	dst = dst[:1]

	b, err := AppendEncode(dst, &ChangeUpperXid{Header: NewHeader(spec.KindChangeUpperXid), Upper: 1, Lower: 2})
	require.NoError(t, err)
	require.Len(t, b, 1+SizeofChangeUpperXid)
	assert.Equal(t, byte(0xaa), b[0])

	msg := b[1:]
	assert.Equal(t, make([]byte, 8), msg[24:32])
	assert.True(t, IsMessage(msg))
}

func TestEncodeCountFromSlice(t *testing.T) {
	msg := &FibEntry{
		Header:   NewHeader(spec.KindFibEntry),
		NextHops: make([]NextHop, 3),
	}
	b, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, byte(3), b[33])
	assert.Len(t, b, SizeofFibEntry+3*SizeofNextHop)

	msg6 := &Fib6Entry{
		Header:   NewHeader(spec.KindFib6Entry),
		Siblings: make([]NextHop6, 2),
	}
	b, err = Encode(msg6)
	require.NoError(t, err)
	assert.Equal(t, byte(2), b[42])
	assert.Len(t, b, SizeofFib6Entry+2*SizeofNextHop6)
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(&FibEntry{
		Header:   NewHeader(spec.KindFibEntry),
		NextHops: make([]NextHop, MaxNextHops+1),
	})
	assert.ErrorIs(t, err, ErrTooManyNextHops)

	_, err = Encode(&Fib6Entry{
		Header:   NewHeader(spec.KindFib6Entry),
		Siblings: make([]NextHop6, MaxNextHops+1),
	})
	assert.ErrorIs(t, err, ErrTooManyNextHops)

	_, err = Encode(&Ifinfo{Name: strings.Repeat("x", IfNameSize+1)})
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = Encode(&Ifinfo{Header: NewHeader(spec.KindIfinfo), Name: "eth\x000"})
	assert.ErrorIs(t, err, ErrMalformedName)

	_, err = Encode(&Stat{Header: NewHeader(spec.KindCarrier)})
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = Encode(&EthtoolLinkModes{Header: NewHeader(spec.KindLinkStat)})
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = Encode(&Netns{})
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestEncodeFullLengthName(t *testing.T) {
	name := strings.Repeat("n", IfNameSize)
	b, err := Encode(&Ifinfo{Header: NewHeader(spec.KindIfinfo), Name: name})
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, name, got.(*Ifinfo).Name)
}

func TestEncodeIgnoresHeaderOfFixedKinds(t *testing.T) {
	// A zero Header on a single-kind variant still encodes its own kind.
	b, err := Encode(&Carrier{Xid: 9, Flag: CarrierOn})
	require.NoError(t, err)
	assert.Equal(t, byte(spec.KindCarrier), b[offKind])
	assert.Equal(t, byte(MsgVersion), b[offVersion])
}
