package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "process", cfg.ID)
	assert.Equal(t, 2*time.Second, cfg.Interval())
	assert.Empty(t, cfg.Interface)
	assert.False(t, cfg.Blkio)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
id: web-1
group: docker/abc123
interface: auto
interval_ms: 500
blkio: true
metrics_addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "web-1", cfg.ID)
	assert.Equal(t, "docker/abc123", cfg.Group)
	assert.Equal(t, AutoInterface, cfg.Interface)
	assert.Equal(t, 500*time.Millisecond, cfg.Interval())
	assert.True(t, cfg.Blkio)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	// untouched keys keep defaults
	assert.Equal(t, "/sys/fs/cgroup", cfg.CgroupPath)
	assert.Equal(t, "127.0.0.1:7070", cfg.Listen)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("bad_yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "interval_ms: [1"))
		assert.Error(t, err)
	})
	t.Run("invalid_values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "interval_ms: 0\ngroup: \"\"\n"))
		require.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "interval_ms")
		assert.Contains(t, err.Error(), "group")
	})
}

func TestConfig_Monitor(t *testing.T) {
	cfg := Default()
	cfg.Interface = AutoInterface
	cfg.Blkio = true

	m := cfg.Monitor("eth0", 100)
	assert.Equal(t, "eth0", m.Interface)
	assert.Equal(t, uint64(100), m.ClockTicks)
	assert.Equal(t, 2*time.Second, m.Interval)
	assert.True(t, m.EnableIO)
	assert.Equal(t, cfg.Group, m.Group)
}
