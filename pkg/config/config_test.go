package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "@xeth", cfg.Socket)
	assert.Equal(t, 4096, cfg.RxBufferSize)
	assert.Equal(t, 4, cfg.TxQueueDepth)
	assert.Equal(t, "127.0.0.1:7779", cfg.APIListenAddr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "xethctl.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
socket: "@xeth-test"
tx_queue_depth: 16
capture_file: /tmp/xeth.zst
capture_level: fastest
`), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "@xeth-test", cfg.Socket)
	assert.Equal(t, 16, cfg.TxQueueDepth)
	assert.Equal(t, 4096, cfg.RxBufferSize)
	assert.Equal(t, "/tmp/xeth.zst", cfg.CaptureFile)
	assert.Equal(t, "fastest", cfg.CaptureLevel)
	assert.Equal(t, file, cfg.ConfigFile)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("XETH_SOCKET", "@from-env")
	t.Setenv("XETH_RX_BUFFER_SIZE", "9728")

	file := filepath.Join(t.TempDir(), "xethctl.yaml")
	require.NoError(t, os.WriteFile(file, []byte("socket: \"@from-file\"\n"), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "@from-env", cfg.Socket)
	assert.Equal(t, 9728, cfg.RxBufferSize)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RxBufferSize = 8
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RxBufferSize = 1 << 20
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TxQueueDepth = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Socket = ""
	assert.Error(t, cfg.Validate())
}
