package wire

import (
	"errors"
	"sync/atomic"

	"xeth-go/pkg/protocol"
	"xeth-go/pkg/protocol/spec"
)

type counters struct {
	received, decoded          atomic.Uint64
	truncated, notAMessage     atomic.Uint64
	versionMismatch, malformed atomic.Uint64
	sent, dropped              atomic.Uint64
	readErrors, writeErrors    atomic.Uint64
	kinds                      [256]atomic.Uint64
	unknownKinds               [256]atomic.Uint64
}

func (c *counters) countError(err error) {
	switch {
	case errors.Is(err, protocol.ErrUnknownKind):
		kind, _ := protocol.UnknownKind(err)
		c.unknownKinds[kind].Add(1)
	case errors.Is(err, protocol.ErrVersionMismatch):
		c.versionMismatch.Add(1)
	case errors.Is(err, protocol.ErrNotAMessage):
		c.notAMessage.Add(1)
	case errors.Is(err, protocol.ErrTruncated):
		c.truncated.Add(1)
	case errors.Is(err, protocol.ErrMalformed):
		c.malformed.Add(1)
	}
}

// Stats is a snapshot of a Handler's counters.
type Stats struct {
	Received        uint64            `json:"received"`
	Decoded         uint64            `json:"decoded"`
	Truncated       uint64            `json:"truncated"`
	NotAMessage     uint64            `json:"not_a_message"`
	VersionMismatch uint64            `json:"version_mismatch"`
	Malformed       uint64            `json:"malformed"`
	Sent            uint64            `json:"sent"`
	Dropped         uint64            `json:"dropped"`
	ReadErrors      uint64            `json:"read_errors"`
	WriteErrors     uint64            `json:"write_errors"`
	Kinds           map[string]uint64 `json:"kinds,omitempty"`
	// UnknownKinds is keyed by the raw kind byte.
	UnknownKinds map[uint8]uint64 `json:"unknown_kinds,omitempty"`
}

// Stats returns the current counters.
func (h *Handler) Stats() Stats {
	c := &h.stats
	s := Stats{
		Received:        c.received.Load(),
		Decoded:         c.decoded.Load(),
		Truncated:       c.truncated.Load(),
		NotAMessage:     c.notAMessage.Load(),
		VersionMismatch: c.versionMismatch.Load(),
		Malformed:       c.malformed.Load(),
		Sent:            c.sent.Load(),
		Dropped:         c.dropped.Load(),
		ReadErrors:      c.readErrors.Load(),
		WriteErrors:     c.writeErrors.Load(),
	}
	for i := range c.kinds {
		if n := c.kinds[i].Load(); n > 0 {
			if s.Kinds == nil {
				s.Kinds = make(map[string]uint64)
			}
			s.Kinds[spec.Kind(i).String()] = n
		}
	}
	for i := range c.unknownKinds {
		if n := c.unknownKinds[i].Load(); n > 0 {
			if s.UnknownKinds == nil {
				s.UnknownKinds = make(map[uint8]uint64)
			}
			s.UnknownKinds[uint8(i)] = n
		}
	}
	return s
}
