package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobug "go.bug.st/serial"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, 8, cfg.DataBits)
	assert.Equal(t, "N", cfg.Parity)
	assert.Equal(t, 1, cfg.StopBits)
	assert.True(t, cfg.Timestamps)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.Empty(t, cfg.LogPath)
	assert.Empty(t, cfg.FilterPattern)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: /dev/ttyUSB0
baud: 921600
log: logs/capture.log
filter: "ERR|WARN"
timestamps: false
poll_interval: 25ms
queue_size: 512
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.PortName)
	assert.Equal(t, 921600, cfg.BaudRate)
	assert.Equal(t, "logs/capture.log", cfg.LogPath)
	assert.Equal(t, "ERR|WARN", cfg.FilterPattern)
	assert.False(t, cfg.Timestamps)
	assert.Equal(t, 25*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 512, cfg.QueueSize)

	// Omitted keys keep their defaults.
	assert.Equal(t, 8, cfg.DataBits)
	assert.Equal(t, "N", cfg.Parity)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o644))

	_, err := LoadConfigFile(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestConfigMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaudRate = 74880
	cfg.Parity = "E"
	cfg.StopBits = 2

	mode, err := cfg.Mode()
	require.NoError(t, err)

	assert.Equal(t, 74880, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, gobug.EvenParity, mode.Parity)
	assert.Equal(t, gobug.TwoStopBits, mode.StopBits)
}

func TestConfigModeRejectsBadFraming(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parity = "X"
	_, err := cfg.Mode()
	assert.ErrorContains(t, err, "unsupported parity")

	cfg = DefaultConfig()
	cfg.StopBits = 3
	_, err = cfg.Mode()
	assert.ErrorContains(t, err, "unsupported stop bits")
}

func TestParseParity(t *testing.T) {
	for in, want := range map[string]Parity{
		"":  ParityNone,
		"N": ParityNone,
		"n": ParityNone,
		"O": ParityOdd,
		"E": ParityEven,
		"M": ParityMark,
		"S": ParitySpace,
	} {
		got, err := ParseParity(in)
		require.NoError(t, err, "parity %q", in)
		assert.Equal(t, want, got, "parity %q", in)
	}

	_, err := ParseParity("Z")
	assert.Error(t, err)
}
