package monitor

import (
	"fmt"
	"sync"

	gobug "go.bug.st/serial"
	"go.uber.org/atomic"
)

// allow tests to override external dependencies
var (
	openPort = func(name string, mode *gobug.Mode) (SerialPort, error) {
		p, err := gobug.Open(name, mode)
		if err != nil {
			return nil, err
		}
		return &bugstPort{Port: p}, nil
	}
	getPortsList = gobug.GetPortsList
)

// MaxBufferSize caps the buffer accepted by a single ReadAvailable or Write
// call. 64KB comfortably exceeds the OS serial buffer, so a larger request
// is a caller bug rather than a real need.
const MaxBufferSize = 64 * 1024

// Port owns the lifecycle of one serial link. It carries no session logic:
// reconnects and retries are the controller's concern.
//
// Reads and writes are independent directions of the same descriptor and may
// proceed concurrently. Close is synchronized against both so neither
// touches an already-closed handle.
type Port struct {
	name string
	mode *gobug.Mode

	handle SerialPort
	opened atomic.Bool

	writeMu   sync.Mutex
	mu        sync.RWMutex
	closeOnce sync.Once
}

// OpenPort claims the configured serial port. The port must be present in
// the system's port list; the read timeout is set to the poll interval so a
// ReadAvailable call never blocks past one poll.
func OpenPort(cfg Config) (*Port, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	ok, err := isPortAvailable(cfg.PortName)
	if err != nil {
		return nil, fmt.Errorf("listing ports: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPortName, cfg.PortName)
	}

	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}

	handle, err := openPort(cfg.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", cfg.PortName, err)
	}

	if err = handle.SetReadTimeout(cfg.PollInterval); err != nil {
		err = fmt.Errorf("setting read timeout: %w", err)
		if closeErr := handle.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close port: %v)", err, closeErr)
		}
		return nil, err
	}

	p := &Port{
		name:   cfg.PortName,
		mode:   mode,
		handle: handle,
	}
	p.opened.Store(true)
	return p, nil
}

// Name returns the device path the port was opened with.
func (p *Port) Name() string {
	return p.name
}

// IsOpen reports whether Close has not yet been called.
func (p *Port) IsOpen() bool {
	return p.opened.Load()
}

// ReadAvailable reads whatever bytes the transport has buffered into buf.
// It blocks at most the configured poll interval and returns (0, nil) when
// nothing arrived in that window.
func (p *Port) ReadAvailable(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, ErrInvalidBuffer
	}
	if len(buf) > MaxBufferSize {
		return 0, ErrBufferTooLarge
	}

	// Hold the read lock across the handle access so Close cannot
	// invalidate the handle mid-read.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.opened.Load() || p.handle == nil {
		return 0, ErrPortClosed
	}
	return p.handle.Read(buf)
}

// Write writes all of b to the port, serialized against concurrent writers.
func (p *Port) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) > MaxBufferSize {
		return 0, ErrBufferTooLarge
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.opened.Load() || p.handle == nil {
		return 0, ErrPortClosed
	}

	written := 0
	for written < len(b) {
		n, err := p.handle.Write(b[written:])
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, fmt.Errorf("partial write: %d of %d bytes", written, len(b))
		}
		written += n
	}
	return written, nil
}

// Close releases the port. It is idempotent and safe to call concurrently
// with ReadAvailable and Write; in-flight operations finish first.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.opened.Store(false)

		p.mu.Lock()
		defer p.mu.Unlock()

		h := p.handle
		p.handle = nil
		if h != nil {
			err = h.Close()
		}
	})
	return err
}
