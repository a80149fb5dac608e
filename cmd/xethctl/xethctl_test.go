package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xeth-go/pkg/capture"
	"xeth-go/pkg/protocol"
	"xeth-go/pkg/protocol/spec"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Break", describe(protocol.NewBreak()))
	assert.Equal(t, "Carrier xid=3 on", describe(protocol.NewCarrier(3, true)))
	assert.Equal(t, "Speed xid=(100, 3) 1000Mb/s", describe(protocol.NewSpeed(3*protocol.VlanNVid+100, 1000)))

	ifa := &protocol.Ifa{
		Header:  protocol.NewHeader(spec.KindIfa),
		Xid:     3,
		Event:   protocol.IfaAdd,
		Address: 0x0a000001,
		Mask:    0xffffff00,
	}
	assert.Equal(t, "Ifa xid=3 add 10.0.0.1/24", describe(ifa))

	fib := &protocol.FibEntry{
		Header:   protocol.NewHeader(spec.KindFibEntry),
		Net:      protocol.DefaultNetNs,
		Address:  0x0a010000,
		Mask:     0xffff0000,
		Event:    protocol.FibEventEntryAdd,
		Type:     protocol.RouteTypeUnicast,
		Table:    protocol.RouteTableMain,
		NextHops: []protocol.NextHop{{Ifindex: 4, Weight: 1, Gw: 0x0a000002}},
	}
	assert.Equal(t,
		"FibEntry add 10.1.0.0/16 table=main type=unicast netns=default [via 10.0.0.2 ifindex=4 weight=1 universe]",
		describe(fib))
}

func TestDecodeRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.zst")
	w, err := capture.Create(path, zstd.SpeedFastest)
	require.NoError(t, err)

	unknown := make([]byte, protocol.SizeofHeader)
	protocol.InitHeader(unknown, spec.Kind(99))
	require.NoError(t, writeMessages(w, []protocol.Message{
		protocol.NewCarrier(1, true),
		protocol.NewSpeed(1, 10000),
	}))
	require.NoError(t, w.Record(unknown))
	require.NoError(t, w.Record([]byte("junk")))
	require.NoError(t, writeMessages(w, []protocol.Message{protocol.NewBreak()}))
	require.NoError(t, w.Close())

	r, err := capture.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var out bytes.Buffer
	sum, err := decodeRecords(r, &out)
	require.NoError(t, err)
	assert.Equal(t, decodeSummary{records: 5, decoded: 3, unknown: 1, invalid: 1}, sum)
	assert.Contains(t, out.String(), "Carrier xid=1 on\n")
	assert.Contains(t, out.String(), "#3 skipped unknown kind 99 (16 bytes)\n")
	assert.Contains(t, out.String(), "#4 protocol: truncated message")
}

func TestParseTimeSpec(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ts, err := parseTimeSpec("90m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute), ts)

	ts, err = parseTimeSpec("2025-02-28T10:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), ts.UTC())

	_, err = parseTimeSpec("yesterday", now)
	assert.Error(t, err)
}
