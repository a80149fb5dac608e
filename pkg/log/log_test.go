package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotInitialized(t *testing.T) {
	_, err := Last(3)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = Since(time.Now(), 0)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, Close())
}

func TestSQLiteSink(t *testing.T) {
	start := time.Now().Add(-time.Second)
	require.NoError(t, Init(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { Close() })

	require.Error(t, Init(filepath.Join(t.TempDir(), "again.db")))

	Info().Str("kind", "Ifinfo").Int("len", 72).Msg("rx")
	Warn().Str("kind", "FibEntry").Msg("truncated")
	Info().Str("kind", "Ifinfo").Int("len", 72).Msg("rx")
	Printf("dump done after %d messages", 3)

	entries, err := Last(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].ID, entries[1].ID)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[1].Data), &last))
	assert.Equal(t, "dump done after 3 messages", last["message"])

	all, err := SinceStart()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	ifinfo, err := ByKind("Ifinfo", 0)
	require.NoError(t, err)
	assert.Len(t, ifinfo, 2)

	since, err := Since(start, 0)
	require.NoError(t, err)
	assert.Len(t, since, 4)

	none, err := Last(0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, Close())
	_, err = Last(1)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBetweenComparesInstants(t *testing.T) {
	require.NoError(t, Init(filepath.Join(t.TempDir(), "between.db")))
	t.Cleanup(func() { Close() })

	mu.RLock()
	s := sink
	mu.RUnlock()
	for _, ts := range []string{
		"2025-03-01T09:30:00.5Z",
		"2025-03-01T10:00:00+01:00",
		"2025-03-01T09:30:00Z",
		"2025-03-01T11:00:00Z",
		"2025-03-01T09:59:59.999+01:00",
	} {
		_, err := s.Write([]byte(`{"level":"info","time":"` + ts + `","message":"x"}`))
		require.NoError(t, err)
	}

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 9, 30, 0, 500_000_000, time.UTC)
	entries, err := Between(start, end, 0)
	require.NoError(t, err)

	var times []string
	for _, e := range entries {
		var f struct {
			Time string `json:"time"`
		}
		require.NoError(t, json.Unmarshal([]byte(e.Data), &f))
		times = append(times, f.Time)
	}
	assert.Equal(t, []string{
		"2025-03-01T10:00:00+01:00",
		"2025-03-01T09:30:00Z",
		"2025-03-01T09:30:00.5Z",
	}, times)
}

func TestSetVerbose(t *testing.T) {
	SetVerbose(true)
	assert.Equal(t, "debug", level.String())
	SetVerbose(false)
	assert.Equal(t, "info", level.String())
}

func TestParseTimestamp(t *testing.T) {
	assert.Equal(t, 2024, parseTimestamp("2024-03-01 10:00:00").Year())
	assert.True(t, parseTimestamp("garbage").IsZero())
}
