package monitor

import (
	"fmt"
	"os"
	"time"

	gobug "go.bug.st/serial"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPollInterval is the idle wait between empty reads. 10ms keeps
	// CPU usage negligible without visible latency at serial baud rates.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultQueueSize bounds the log queue. At 115200 baud the link
	// produces at most ~11KB/s, so 256 queued lines rides out multi-second
	// disk stalls before backpressure reaches the read loop.
	DefaultQueueSize = 256

	// DefaultReadBufferSize is the per-read chunk size.
	DefaultReadBufferSize = 1024
)

// Config describes one monitoring session. The zero value is not usable;
// start from DefaultConfig or LoadConfigFile.
type Config struct {
	PortName string `yaml:"port"`
	BaudRate int    `yaml:"baud"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`

	// LogPath, when non-empty, enables the append-only capture log.
	LogPath string `yaml:"log"`

	// FilterPattern, when non-empty, is a regular expression; only lines it
	// matches are forwarded to the console and the capture log.
	FilterPattern string `yaml:"filter"`

	// Timestamps prefixes every rendered line with [HH:MM:SS.mmm].
	Timestamps bool `yaml:"timestamps"`

	PollInterval   time.Duration `yaml:"poll_interval"`
	QueueSize      int           `yaml:"queue_size"`
	ReadBufferSize int           `yaml:"read_buffer_size"`
}

// DefaultConfig returns the conventional ESP32 console settings: 115200-8N1,
// timestamps on, no filter, no capture log.
func DefaultConfig() Config {
	return Config{
		BaudRate:       Baud115200.Int(),
		DataBits:       DataBits8.Int(),
		Parity:         "N",
		StopBits:       1,
		Timestamps:     true,
		PollInterval:   DefaultPollInterval,
		QueueSize:      DefaultQueueSize,
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// LoadConfigFile reads a YAML session config, overlaying DefaultConfig so
// omitted keys keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Mode translates the framing fields into a go.bug.st serial mode.
func (c Config) Mode() (*gobug.Mode, error) {
	parity, err := ParseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := ParseStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}

	dataBits := c.DataBits
	if dataBits == 0 {
		dataBits = DataBits8.Int()
	}

	return &gobug.Mode{
		BaudRate: c.BaudRate,
		DataBits: dataBits,
		Parity:   parity.Get(),
		StopBits: stopBits.Get(),
	}, nil
}
