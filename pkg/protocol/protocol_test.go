package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xeth-go/pkg/protocol/spec"
)

func TestInitHeader(t *testing.T) {
	b := make([]byte, SizeofHeader)
	for i := range b {
		b[i] = 0xff
	}
	InitHeader(b, spec.KindIfinfo)

	assert.Equal(t, make([]byte, 14), b[:14])
	assert.Equal(t, byte(MsgVersion), b[14])
	assert.Equal(t, byte(spec.KindIfinfo), b[15])
	assert.True(t, IsMessage(b))
	assert.True(t, VersionMatches(b))

	kind, err := KindOf(b)
	require.NoError(t, err)
	assert.Equal(t, spec.KindIfinfo, kind)
}

func TestIsMessage(t *testing.T) {
	assert.False(t, IsMessage(nil))
	assert.False(t, IsMessage(make([]byte, SizeofHeader-1)))

	b := make([]byte, SizeofHeader)
	assert.True(t, IsMessage(b))

	for i := 0; i < offVersion; i++ {
		c := append([]byte(nil), b...)
		c[i] = 1
		assert.False(t, IsMessage(c), "guard byte %d", i)
	}

	// version and kind bytes are not guard fields
	b[offVersion] = 7
	b[offKind] = 200
	assert.True(t, IsMessage(b))
}

func TestVersionMatches(t *testing.T) {
	b := make([]byte, SizeofHeader)
	InitHeader(b, spec.KindBreak)
	assert.True(t, VersionMatches(b))

	for _, v := range []byte{0, 1, 3, 255} {
		b[offVersion] = v
		assert.False(t, VersionMatches(b), "version %d", v)
	}
	assert.False(t, VersionMatches(b[:SizeofHeader-1]))
}

func TestKindOfTruncated(t *testing.T) {
	_, err := KindOf(make([]byte, 3))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestSizes(t *testing.T) {
	for kind, want := range map[spec.Kind]int{
		spec.KindBreak:                         16,
		spec.KindDumpIfinfo:                    16,
		spec.KindDumpFibinfo:                   16,
		spec.KindCarrier:                       24,
		spec.KindSpeed:                         24,
		spec.KindEthtoolFlags:                  24,
		spec.KindNetnsAdd:                      24,
		spec.KindNetnsDel:                      24,
		spec.KindLinkStat:                      32,
		spec.KindEthtoolStat:                   32,
		spec.KindEthtoolSettings:               32,
		spec.KindEthtoolLinkModesSupported:     32,
		spec.KindEthtoolLinkModesAdvertising:   32,
		spec.KindEthtoolLinkModesLPAdvertising: 32,
		spec.KindChangeUpperXid:                32,
		spec.KindIfa:                           32,
		spec.KindIfa6:                          48,
		spec.KindNeighUpdate:                   56,
		spec.KindIfinfo:                        72,
		spec.KindFibEntry:                      40,
		spec.KindFib6Entry:                     80,
	} {
		assert.Equal(t, want, MinSize(kind), kind.String())
		msg := newMessage(NewHeader(kind))
		require.NotNil(t, msg, kind.String())
		assert.Equal(t, want, msg.Size(), kind.String())
		assert.Equal(t, kind, msg.Kind())
	}
	assert.Zero(t, MinSize(spec.NumKinds))
	assert.Nil(t, newMessage(NewHeader(spec.NumKinds)))
}
