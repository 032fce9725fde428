package monitor

import "fmt"

// ValidateConfig validates session configuration parameters. It runs before
// any port is opened so a bad configuration never claims the device.
func ValidateConfig(cfg *Config) error {
	if cfg.PortName == "" {
		return fmt.Errorf("port name cannot be empty")
	}

	if !isSupportedBaudRate(cfg.BaudRate) {
		return fmt.Errorf("invalid baud rate %d, must be one of: %v", cfg.BaudRate, supportedBaudRates)
	}

	if cfg.DataBits != 0 && (cfg.DataBits < DataBits5.Int() || cfg.DataBits > DataBits8.Int()) {
		return fmt.Errorf("data bits must be 5-8, got: %d", cfg.DataBits)
	}

	if _, err := ParseParity(cfg.Parity); err != nil {
		return err
	}
	if _, err := ParseStopBits(cfg.StopBits); err != nil {
		return err
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %v", cfg.PollInterval)
	}

	if cfg.QueueSize < 0 {
		return fmt.Errorf("queue size cannot be negative: %d", cfg.QueueSize)
	}
	if cfg.QueueSize > 65536 {
		return fmt.Errorf("queue size too large (max 65536): %d", cfg.QueueSize)
	}

	if cfg.ReadBufferSize < 0 {
		return fmt.Errorf("read buffer size cannot be negative: %d", cfg.ReadBufferSize)
	}
	if cfg.ReadBufferSize > MaxBufferSize {
		return fmt.Errorf("read buffer size too large (max %d): %d", MaxBufferSize, cfg.ReadBufferSize)
	}

	return nil
}

func isSupportedBaudRate(rate int) bool {
	for _, v := range supportedBaudRates {
		if rate == v.Int() {
			return true
		}
	}
	return false
}
