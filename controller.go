package monitor

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// statusInterval paces the periodic session stats line.
const statusInterval = 30 * time.Second

// State is the controller lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateMonitoring
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateMonitoring:
		return "monitoring"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Controller orchestrates one monitoring session: it opens the port, starts
// the log sink's consumer, runs the read/assemble/dispatch loop, accepts
// operator command injection, and tears everything down on cancellation or
// error.
//
// Exactly two goroutines touch session state while monitoring: the read
// loop (sole producer into the log queue) and the LogSink consumer (sole
// reader of it). Command injection shares the port with the read loop but
// is fenced from close by sendMu.
type Controller struct {
	cfg     Config
	log     zerolog.Logger
	filter  *regexp.Regexp // nil means pass everything
	console *ConsoleSink
	sink    *LogSink // nil when no capture log is configured
	metrics *Metrics
	bufPool *BufferPool

	port  *Port
	state atomic.Int32

	sendMu sync.Mutex
}

// NewController wires a session from cfg: console sink on consoleOut, an
// optional capture log, and the compiled filter. An invalid filter pattern
// fails here, before any port is claimed.
func NewController(cfg Config, consoleOut io.Writer, logger zerolog.Logger) (*Controller, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	filter, err := CompileFilter(cfg.FilterPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling filter pattern %q: %w", cfg.FilterPattern, err)
	}

	m := &Metrics{}
	c := &Controller{
		cfg:     cfg,
		log:     logger,
		filter:  filter,
		console: NewConsoleSink(consoleOut, cfg.Timestamps),
		metrics: m,
		bufPool: NewBufferPool(cfg.ReadBufferSize),
	}
	if cfg.LogPath != "" {
		c.sink = NewLogSink(cfg.LogPath, cfg.QueueSize, m)
	}
	return c, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Metrics exposes the session counters.
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// Run drives the session until ctx is cancelled or an unrecoverable I/O
// error occurs. Cancellation is a clean stop and returns nil; a connection
// failure leaves the controller Stopped and returns the open error.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.connect(); err != nil {
		return err
	}
	return c.shutdown(c.readLoop(ctx))
}

// SendOnce connects, writes text plus a newline, echoes whatever the device
// answers within window, then disconnects. It does not enter the long-lived
// monitor loop.
func (c *Controller) SendOnce(ctx context.Context, text string, window time.Duration) error {
	if err := c.connect(); err != nil {
		return err
	}
	return c.shutdown(c.sendOnceLoop(ctx, text, window))
}

// Send injects one operator command: text plus a trailing newline, written
// to the device. Serialized so it can never interleave with shutdown's
// close of the shared port.
func (c *Controller) Send(text string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	switch c.State() {
	case StateMonitoring:
	case StateShuttingDown, StateStopped:
		return ErrShuttingDown
	default:
		return ErrNotMonitoring
	}

	n, err := c.port.Write(append([]byte(text), '\n'))
	if err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	c.metrics.CommandsSent.Add(1)
	c.metrics.BytesWritten.Add(int64(n))
	c.log.Debug().Str("command", text).Msg("command sent")
	return nil
}

// connect transitions Idle → Connecting → Monitoring, or Idle → Connecting
// → Stopped on failure.
func (c *Controller) connect() error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrAlreadyStarted
	}

	port, err := OpenPort(c.cfg)
	if err != nil {
		c.state.Store(int32(StateStopped))
		return err
	}
	c.port = port
	c.log.Info().Str("port", c.cfg.PortName).Int("baud", c.cfg.BaudRate).Msg("connected")

	if c.sink != nil {
		c.sink.Start()
		c.log.Info().Str("path", c.sink.Path()).Msg("capturing to log file")
	}

	c.state.Store(int32(StateMonitoring))
	return nil
}

// readLoop is the Monitoring steady state. It returns nil on cancellation
// and the terminal error otherwise.
func (c *Controller) readLoop(ctx context.Context) error {
	asm := NewLineAssembler(c.filter, c.metrics)
	buf := c.bufPool.Get()
	defer c.bufPool.Put(buf)

	status := time.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-status.C:
			c.log.Debug().Object("stats", c.metrics.Snapshot()).Msg("session stats")
		default:
		}

		// A failed capture-log write ends the session: a silently
		// incomplete log is worse than an early stop.
		if c.sink != nil {
			if err := c.sink.Err(); err != nil {
				return fmt.Errorf("writing capture log: %w", err)
			}
		}

		got, err := c.pollOnce(asm, buf)
		if err != nil {
			return err
		}
		if !got {
			// The port read timeout already waited one poll interval, but
			// some drivers return immediately; bound CPU here too.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.PollInterval):
			}
		}
	}
}

func (c *Controller) sendOnceLoop(ctx context.Context, text string, window time.Duration) error {
	n, err := c.port.Write(append([]byte(text), '\n'))
	if err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	c.metrics.CommandsSent.Add(1)
	c.metrics.BytesWritten.Add(int64(n))

	asm := NewLineAssembler(c.filter, c.metrics)
	buf := c.bufPool.Get()
	defer c.bufPool.Put(buf)

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		got, err := c.pollOnce(asm, buf)
		if err != nil {
			return err
		}
		if !got {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.cfg.PollInterval):
			}
		}
	}
	return nil
}

// pollOnce performs one read/assemble/dispatch cycle and reports whether
// any data arrived.
func (c *Controller) pollOnce(asm *LineAssembler, buf []byte) (bool, error) {
	n, err := c.port.ReadAvailable(buf)
	if err != nil {
		c.metrics.ReadErrors.Add(1)
		return false, fmt.Errorf("reading from %s: %w", c.cfg.PortName, err)
	}
	if n == 0 {
		return false, nil
	}

	c.metrics.ReadOperations.Add(1)
	c.metrics.BytesRead.Add(int64(n))
	c.dispatch(asm.Push(buf[:n]))
	return true, nil
}

// dispatch forwards passed records: console first (synchronous, arrival
// order), then the capture log queue.
func (c *Controller) dispatch(records []Record) {
	for _, rec := range records {
		if !rec.Passed {
			continue
		}
		c.console.Emit(rec)
		if c.sink != nil {
			if err := c.sink.Enqueue(FormatRecord(rec, c.cfg.Timestamps)); err != nil {
				// Sink already closing; the loop exits on its next check.
				c.log.Debug().Err(err).Msg("capture log enqueue refused")
			}
		}
	}
}

// shutdown runs every cleanup step even when an earlier one fails; the
// first error is remembered and reported after cleanup completes.
func (c *Controller) shutdown(runErr error) error {
	c.state.Store(int32(StateShuttingDown))

	// Fence command injection: an in-flight Send finishes before the port
	// closes, later ones are refused by state.
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	first := runErr
	if c.sink != nil {
		if err := c.sink.Close(); err != nil {
			c.log.Error().Err(err).Msg("closing capture log failed")
			if first == nil {
				first = fmt.Errorf("closing capture log: %w", err)
			}
		}
	}
	if c.port != nil {
		if err := c.port.Close(); err != nil {
			c.log.Error().Err(err).Msg("closing port failed")
			if first == nil {
				first = fmt.Errorf("closing port: %w", err)
			}
		}
	}

	c.state.Store(int32(StateStopped))
	c.log.Info().Object("stats", c.metrics.Snapshot()).Msg("disconnected")
	return first
}
