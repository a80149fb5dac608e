// Package wire moves protocol messages over the side-band channel. A
// Handler reads packets from a message-boundary preserving Conn, decodes
// them and delivers the results on a channel; in the other direction it
// encodes and writes messages either immediately (Send) or through a small
// leaky queue that drops when the driver falls behind (Queue).
package wire

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"xeth-go/pkg/buffers"
	"xeth-go/pkg/log"
	"xeth-go/pkg/protocol"
)

// Conn abstracts the side-band socket. Each Read returns one message and
// each Write sends one.
type Conn interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	Close() error
}

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

// Recorder receives every raw packet before it is decoded.
type Recorder interface {
	Record(b []byte) error
}

// MessageFunc handles one decoded message.
type MessageFunc func(protocol.Message) error

const (
	DefaultQueueDepth = 4
	rxDepth           = 4
	// queuedTimeout bounds writes from the leaky queue.
	queuedTimeout = 10 * time.Millisecond
	// A read that times out is retried after a doubling pause; one that
	// still fails after maxReadBackoff, or any other read error, ends the
	// read loop.
	minReadBackoff = 10 * time.Millisecond
	maxReadBackoff = 320 * time.Millisecond
)

var ErrClosed = errors.New("wire: handler closed")

// Handler manages message transmission and reception on one Conn.
type Handler struct {
	conn     Conn
	pool     *buffers.BufferPool
	recorder Recorder
	logger   zerolog.Logger

	rx   chan protocol.Message
	tx   chan []byte
	stop chan struct{}
	wg   sync.WaitGroup

	txLock    sync.Mutex
	startOnce sync.Once
	stopOnce  sync.Once

	stats counters

	errMu sync.Mutex
	err   error
}

type Option func(*Handler)

// WithRxPool sets the pool receive buffers come from; its buffer size
// bounds the largest message that can be read.
func WithRxPool(pool *buffers.BufferPool) Option {
	return func(h *Handler) { h.pool = pool }
}

// WithQueueDepth sets the number of messages Queue holds before dropping.
func WithQueueDepth(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.tx = make(chan []byte, n)
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// NewHandler creates a Handler for conn. Call Start to begin reading.
func NewHandler(conn Conn, opts ...Option) *Handler {
	h := &Handler{
		conn:   conn,
		pool:   buffers.RxPool,
		rx:     make(chan protocol.Message, rxDepth),
		tx:     make(chan []byte, DefaultQueueDepth),
		stop:   make(chan struct{}),
		logger: log.Logger().With().Str("component", "wire").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches the read and queued-transmit loops.
func (h *Handler) Start() {
	h.startOnce.Do(func() {
		h.wg.Add(2)
		go h.readLoop()
		go h.txLoop()
	})
}

// Stop closes the connection and waits for the loops to finish. The
// Messages channel is closed once the read loop exits.
func (h *Handler) Stop() error {
	var err error
	h.stopOnce.Do(func() {
		close(h.stop)
		err = h.conn.Close()
		h.wg.Wait()
	})
	return err
}

// Messages delivers decoded messages in arrival order. It is closed when
// the connection ends; Err then reports why, if it failed.
func (h *Handler) Messages() <-chan protocol.Message { return h.rx }

// Err returns the read error that ended the read loop, or nil after a clean
// end of stream or Stop.
func (h *Handler) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

func (h *Handler) setErr(err error) {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	h.err = oops.In("wire").Wrapf(err, "read")
}

func (h *Handler) stopped() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

func (h *Handler) readLoop() {
	defer h.wg.Done()
	defer close(h.rx)
	backoff := minReadBackoff
	for {
		buf := h.pool.Get()
		n, err := h.conn.Read(buf)
		if err != nil {
			h.pool.Put(buf)
			if h.stopped() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			h.stats.readErrors.Add(1)
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() && backoff < maxReadBackoff {
				h.logger.Debug().Err(err).Dur("backoff", backoff).Msg("read timed out")
				select {
				case <-time.After(backoff):
				case <-h.stop:
					return
				}
				backoff *= 2
				continue
			}
			h.logger.Error().Err(err).Msg("read failed")
			h.setErr(err)
			return
		}
		backoff = minReadBackoff
		if n == 0 {
			h.pool.Put(buf)
			continue
		}
		msg := h.receive(buf[:n])
		h.pool.Put(buf)
		if msg == nil {
			continue
		}
		select {
		case h.rx <- msg:
		case <-h.stop:
			return
		}
	}
}

// receive records, decodes and counts one packet. It returns nil for
// packets that did not decode.
func (h *Handler) receive(b []byte) protocol.Message {
	h.stats.received.Add(1)
	if h.recorder != nil {
		if err := h.recorder.Record(b); err != nil {
			h.logger.Warn().Err(err).Msg("capture failed")
		}
	}
	msg, err := protocol.Decode(b)
	if err == nil {
		h.stats.decoded.Add(1)
		h.stats.kinds[msg.Kind()].Add(1)
		return msg
	}
	h.stats.countError(err)
	switch {
	case errors.Is(err, protocol.ErrUnknownKind):
		kind, _ := protocol.UnknownKind(err)
		h.logger.Debug().Uint8("kind", kind).Int("len", len(b)).Msg("skipping unknown kind")
	case errors.Is(err, protocol.ErrVersionMismatch):
		h.logger.Error().Err(err).Int("len", len(b)).Msg("driver speaks another protocol version")
	default:
		h.logger.Warn().Err(err).Int("len", len(b)).Msg("dropping undecodable message")
	}
	return nil
}

// Send encodes msg and writes it immediately, bypassing the queue.
func (h *Handler) Send(msg protocol.Message) error {
	if h.stopped() {
		return ErrClosed
	}
	buf := buffers.TxPool.Get()
	defer buffers.TxPool.Put(buf)
	b, err := protocol.AppendEncode(buf[:0], msg)
	if err != nil {
		return oops.In("wire").With("kind", msg.Kind().String()).Wrapf(err, "encode")
	}
	return h.write(b, 0)
}

// Queue encodes msg for the transmit loop. When the queue is full the
// message is dropped and counted; that is not an error.
func (h *Handler) Queue(msg protocol.Message) error {
	if h.stopped() {
		return ErrClosed
	}
	b, err := protocol.Encode(msg)
	if err != nil {
		return oops.In("wire").With("kind", msg.Kind().String()).Wrapf(err, "encode")
	}
	select {
	case h.tx <- b:
	default:
		h.stats.dropped.Add(1)
	}
	return nil
}

func (h *Handler) txLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.stop:
			return
		case b := <-h.tx:
			if err := h.write(b, queuedTimeout); err != nil && !h.stopped() {
				h.logger.Debug().Err(err).Msg("queued write failed")
			}
		}
	}
}

func (h *Handler) write(b []byte, timeout time.Duration) error {
	h.txLock.Lock()
	defer h.txLock.Unlock()
	if wd, ok := h.conn.(writeDeadliner); ok {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := wd.SetWriteDeadline(deadline); err != nil {
			return oops.In("wire").Wrapf(err, "set write deadline")
		}
	}
	if _, err := h.conn.Write(b); err != nil {
		h.stats.writeErrors.Add(1)
		return oops.In("wire").With("len", len(b)).Wrapf(err, "write")
	}
	h.stats.sent.Add(1)
	return nil
}

// DumpIfinfo asks the driver for every interface.
func (h *Handler) DumpIfinfo() error { return h.Send(protocol.NewDumpIfinfo()) }

// DumpFibinfo asks the driver for its fib and neighbor tables.
func (h *Handler) DumpFibinfo() error { return h.Send(protocol.NewDumpFibinfo()) }

func (h *Handler) SetCarrier(xid protocol.Xid, on bool) error {
	return h.Send(protocol.NewCarrier(xid, on))
}

func (h *Handler) SetSpeed(xid protocol.Xid, mbps uint32) error {
	return h.Send(protocol.NewSpeed(xid, mbps))
}

// SetLinkStat and SetEthtoolStat go through the queue; counters are
// refreshed often enough that a dropped update does not matter.
func (h *Handler) SetLinkStat(xid protocol.Xid, stat protocol.LinkStat, count uint64) error {
	return h.Queue(protocol.NewLinkStat(xid, stat, count))
}

func (h *Handler) SetEthtoolStat(xid protocol.Xid, index uint32, count uint64) error {
	return h.Queue(protocol.NewEthtoolStat(xid, index, count))
}

// UntilBreak passes messages to fn until a Break arrives, fn fails, the
// handler stops or ctx ends. A failed connection returns its read error.
func (h *Handler) UntilBreak(ctx context.Context, fn MessageFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-h.rx:
			if !ok {
				if err := h.Err(); err != nil {
					return err
				}
				return ErrClosed
			}
			if _, isBreak := msg.(*protocol.Break); isBreak {
				return nil
			}
			if err := fn(msg); err != nil {
				return err
			}
		}
	}
}

// Serve passes every message to fn until ctx ends or the handler stops. It
// returns the read error if the connection failed.
func (h *Handler) Serve(ctx context.Context, fn MessageFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-h.rx:
			if !ok {
				return h.Err()
			}
			if err := fn(msg); err != nil {
				return err
			}
		}
	}
}
