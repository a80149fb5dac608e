package capture

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xeth-go/pkg/protocol"
)

func TestRoundTrip(t *testing.T) {
	carrier, err := protocol.Encode(protocol.NewCarrier(1, true))
	require.NoError(t, err)
	brk, err := protocol.Encode(protocol.NewBreak())
	require.NoError(t, err)
	garbage := []byte{0xde, 0xad}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, zstd.SpeedFastest)
	require.NoError(t, err)
	for _, b := range [][]byte{carrier, garbage, {}, brk} {
		require.NoError(t, w.Record(b))
	}
	assert.Equal(t, 4, w.Records())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.All()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, carrier, records[0])
	assert.Equal(t, garbage, records[1])
	assert.Empty(t, records[2])
	assert.Equal(t, brk, records[3])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xeth.zst")
	w, err := Create(path, zstd.SpeedDefault)
	require.NoError(t, err)
	require.NoError(t, w.Record([]byte("one")))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())
	assert.Error(t, w.Record([]byte("late")))

	r, err := Open(path)
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), b)
	require.NoError(t, r.Close())
}

func TestRecordTooLarge(t *testing.T) {
	w, err := NewWriter(io.Discard, zstd.SpeedFastest)
	require.NoError(t, err)
	defer w.Close()
	assert.ErrorIs(t, w.Record(make([]byte, MaxRecordSize+1)), ErrRecordTooLarge)
}

func TestTruncatedRecord(t *testing.T) {
	var plain bytes.Buffer
	plain.Write(magic[:])
	plain.Write([]byte{0, 0, 0, 10, 1, 2, 3})

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(plain.Bytes())
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBadMagic(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte("NOTXETH!more"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	_, err = NewReader(&buf)
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = NewReader(bytes.NewReader([]byte("plain text, not zstd")))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zstd.SpeedDefault, level)

	level, err = ParseLevel("fastest")
	require.NoError(t, err)
	assert.Equal(t, zstd.SpeedFastest, level)

	_, err = ParseLevel("ludicrous")
	assert.Error(t, err)
}
