// Package capture stores side-band traffic in zstd compressed files. A file
// is a zstd stream holding an 8 byte magic followed by records of a 4 byte
// big-endian length and the raw message bytes. Records are kept raw, so
// traffic that fails to decode is preserved as well.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"xeth-go/pkg/buffers"
)

var magic = [8]byte{'X', 'E', 'T', 'H', 'C', 'A', 'P', 1}

// MaxRecordSize is the largest record a Reader accepts.
const MaxRecordSize = buffers.JumboFrameSize

var (
	ErrBadMagic       = errors.New("capture: not a capture file")
	ErrRecordTooLarge = errors.New("capture: record too large")
)

// ParseLevel maps "fastest", "default", "better" or "best" to an encoder
// level. The empty string is the default level.
func ParseLevel(name string) (zstd.EncoderLevel, error) {
	if name == "" {
		return zstd.SpeedDefault, nil
	}
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return 0, oops.In("capture").With("level", name).Errorf("unknown compression level %q", name)
	}
	return level, nil
}

// Writer appends records to a capture stream. It is safe for concurrent
// use and implements wire.Recorder.
type Writer struct {
	mu      sync.Mutex
	enc     *zstd.Encoder
	closer  io.Closer
	records int
}

// NewWriter starts a capture stream on w.
func NewWriter(w io.Writer, level zstd.EncoderLevel) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, oops.In("capture").Wrapf(err, "init zstd encoder")
	}
	if _, err := enc.Write(magic[:]); err != nil {
		enc.Close()
		return nil, oops.In("capture").Wrapf(err, "write magic")
	}
	return &Writer{enc: enc}, nil
}

// Create truncates or creates path and starts a capture stream in it.
// Close also closes the file.
func Create(path string, level zstd.EncoderLevel) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, oops.In("capture").With("path", path).Wrapf(err, "create")
	}
	w, err := NewWriter(f, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// Record appends b as one record.
func (w *Writer) Record(b []byte) error {
	if len(b) > MaxRecordSize {
		return oops.In("capture").With("len", len(b)).Wrap(ErrRecordTooLarge)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return oops.In("capture").Errorf("writer closed")
	}
	if _, err := w.enc.Write(hdr[:]); err != nil {
		return oops.In("capture").Wrapf(err, "write record header")
	}
	if _, err := w.enc.Write(b); err != nil {
		return oops.In("capture").Wrapf(err, "write record")
	}
	w.records++
	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Flush pushes buffered records to the underlying writer as a complete
// zstd block.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return nil
	}
	return w.enc.Flush()
}

// Close finishes the stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return nil
	}
	err := w.enc.Close()
	w.enc = nil
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return oops.In("capture").Wrapf(err, "close")
	}
	return nil
}

// Reader reads records back in order.
type Reader struct {
	dec    *zstd.Decoder
	r      *bufio.Reader
	closer io.Closer
}

// NewReader checks the stream magic of r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, oops.In("capture").Wrapf(err, "init zstd decoder")
	}
	br := bufio.NewReader(dec)
	var got [len(magic)]byte
	if _, err := io.ReadFull(br, got[:]); err != nil || got != magic {
		dec.Close()
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, oops.In("capture").Wrapf(err, "read magic")
		}
		return nil, ErrBadMagic
	}
	return &Reader{dec: dec, r: br}, nil
}

// Open opens a capture file; Close also closes the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.In("capture").With("path", path).Wrapf(err, "open")
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next record. It returns io.EOF after the last record and
// io.ErrUnexpectedEOF when the stream ends inside one.
func (r *Reader) Next() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxRecordSize {
		return nil, oops.In("capture").With("len", n).Wrap(ErrRecordTooLarge)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// All returns every remaining record.
func (r *Reader) All() ([][]byte, error) {
	var records [][]byte
	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, b)
	}
}

func (r *Reader) Close() error {
	r.dec.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
