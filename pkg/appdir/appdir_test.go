package appdir

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	once, dir, mkdErr = sync.Once{}, "", nil
	t.Cleanup(func() { once, dir, mkdErr = sync.Once{}, "", nil })
}

func TestAppDirCreates(t *testing.T) {
	reset(t)
	want := filepath.Join(t.TempDir(), "state")
	t.Setenv(EnvHome, want)

	got, err := AppDir()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.DirExists(t, want)
}

func TestAppDirReportsMkdirFailure(t *testing.T) {
	reset(t)
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	t.Setenv(EnvHome, filepath.Join(file, "state"))

	_, err := AppDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appdir: create")

	// The failure sticks for later callers.
	_, err = AppDir()
	assert.Error(t, err)
}
