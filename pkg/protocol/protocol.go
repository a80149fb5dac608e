// Package protocol implements the XETH side-band channel message codec.
//
// Every message starts with a 16 byte header:
//
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//	|                             z64 (zero)                                |
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//	|            z32 (zero)             |   z16 (zero)    |version |  kind  |
//	+--------+--------+--------+--------+--------+--------+--------+--------+
//
// The zero fields let a receiver tell protocol traffic apart from anything
// else sharing the channel. The kind byte selects one of the variants
// implementing Message. Integer fields are in host byte order except the IPv4
// addresses and masks of Ifa, FibEntry and NextHop, which are big-endian.
//
// Decode and Encode are pure functions and safe for concurrent use.
package protocol

import (
	"encoding/binary"

	"xeth-go/pkg/protocol/spec"
)

// MsgVersion is the only protocol generation this package speaks.
const MsgVersion = 2

const (
	SizeofHeader           = 16
	SizeofBreak            = SizeofHeader
	SizeofDumpIfinfo       = SizeofHeader
	SizeofDumpFibinfo      = SizeofHeader
	SizeofCarrier          = SizeofHeader + 8
	SizeofSpeed            = SizeofHeader + 8
	SizeofEthtoolFlags     = SizeofHeader + 8
	SizeofStat             = SizeofHeader + 16
	SizeofEthtoolSettings  = SizeofHeader + 16
	SizeofEthtoolLinkModes = SizeofHeader + 16
	SizeofChangeUpperXid   = SizeofHeader + 16
	SizeofIfa              = SizeofHeader + 16
	SizeofIfa6             = SizeofHeader + 32
	SizeofIfinfo           = SizeofHeader + 56
	SizeofNeighUpdate      = SizeofHeader + 40
	SizeofNetns            = SizeofHeader + 8
	SizeofNextHop          = 24
	SizeofNextHop6         = 32
	// SizeofFibEntry is the fixed part, before the next hop array.
	SizeofFibEntry = SizeofHeader + 24
	// SizeofFib6Entry is the fixed part including the inline next hop,
	// before the sibling array.
	SizeofFib6Entry = SizeofHeader + 32 + SizeofNextHop6
)

const (
	IfNameSize     = 16
	EthAddrSize    = 6
	JumboFrameSize = 9728
)

// MaxNextHops is the largest next hop (or sibling) count a count byte holds.
const MaxNextHops = 255

const (
	offZ64     = 0
	offZ32     = 8
	offZ16     = 12
	offVersion = 14
	offKind    = 15
)

var (
	ne = binary.NativeEndian
	be = binary.BigEndian
)

// Header is the common prefix of every message.
type Header struct {
	Version uint8
	Kind    spec.Kind
}

// NewHeader returns the header the encoder writes for kind.
func NewHeader(kind spec.Kind) Header {
	return Header{Version: MsgVersion, Kind: kind}
}

// IsMessage reports whether b is long enough to hold a header and its zero
// fields are all zero.
func IsMessage(b []byte) bool {
	if len(b) < SizeofHeader {
		return false
	}
	return ne.Uint64(b[offZ64:offZ32]) == 0 &&
		ne.Uint32(b[offZ32:offZ16]) == 0 &&
		ne.Uint16(b[offZ16:offVersion]) == 0
}

// KindOf returns the kind byte of b. Callers are expected to have checked
// IsMessage; a buffer shorter than the header fails with ErrTruncated.
func KindOf(b []byte) (spec.Kind, error) {
	if len(b) < SizeofHeader {
		return 0, &DecodeError{Err: ErrTruncated, Len: len(b), Want: SizeofHeader}
	}
	return spec.Kind(b[offKind]), nil
}

// VersionMatches reports whether the version byte of b is MsgVersion.
func VersionMatches(b []byte) bool {
	return len(b) >= SizeofHeader && b[offVersion] == MsgVersion
}

// InitHeader zeroes the guard fields of b and writes the current version and
// kind. b must be at least SizeofHeader long.
func InitHeader(b []byte, kind spec.Kind) {
	_ = b[SizeofHeader-1]
	clear(b[offZ64:offVersion])
	b[offVersion] = MsgVersion
	b[offKind] = byte(kind)
}

func readHeader(b []byte) Header {
	return Header{Version: b[offVersion], Kind: spec.Kind(b[offKind])}
}
