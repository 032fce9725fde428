package monitor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/atomic"
)

// allow tests to override the capture log destination
var openLogFile = func(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// LogSink appends formatted lines to the capture log from a background
// consumer, decoupled from the read loop by a bounded queue. Each line is
// written unbuffered, so a crash loses at most the in-flight record. When
// the queue fills, Enqueue blocks: backpressure is preferred over data loss,
// and serial volume is bounded by the baud rate anyway.
//
// The read loop is the sole producer. Enqueue must not be called after
// Close.
type LogSink struct {
	path    string
	queue   chan string
	metrics *Metrics

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}

	// writeErr retains the first write failure. The controller polls it and
	// shuts the session down rather than silently retrying.
	writeErr atomic.Error
}

// NewLogSink creates a sink for path. The file is opened lazily on the
// first write, never truncated and never rotated here.
func NewLogSink(path string, queueSize int, m *Metrics) *LogSink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &LogSink{
		path:    path,
		queue:   make(chan string, queueSize),
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Path returns the capture log destination.
func (s *LogSink) Path() string {
	return s.path
}

// Start launches the background consumer. Safe to call more than once.
func (s *LogSink) Start() {
	s.startOnce.Do(func() {
		go s.consume()
	})
}

// Enqueue hands one formatted line to the consumer, blocking while the
// queue is full. It returns ErrShuttingDown once the sink is closed.
func (s *LogSink) Enqueue(line string) (err error) {
	defer func() {
		// Close may win a race with a late producer; a send on the closed
		// queue must surface as an error, not a panic.
		if recover() != nil {
			err = ErrShuttingDown
		}
	}()

	if s.closed.Load() {
		return ErrShuttingDown
	}

	select {
	case s.queue <- line:
		return nil
	case <-s.done:
		return ErrShuttingDown
	}
}

// Err returns the first write error, or nil.
func (s *LogSink) Err() error {
	return s.writeErr.Load()
}

// QueueDepth reports how many lines await the consumer.
func (s *LogSink) QueueDepth() int {
	return len(s.queue)
}

// Close drains everything already enqueued, closes the file and stops the
// consumer. It is idempotent and returns the first write error, if any.
func (s *LogSink) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		// Ensure a consumer exists so the queue actually drains.
		s.Start()
		close(s.queue)
	})
	<-s.done
	return s.writeErr.Load()
}

func (s *LogSink) consume() {
	defer close(s.done)

	var f io.WriteCloser
	defer func() {
		if f != nil {
			if err := f.Close(); err != nil {
				s.writeErr.CompareAndSwap(nil, err)
			}
		}
	}()

	for line := range s.queue {
		if s.writeErr.Load() != nil {
			// Already failed; keep draining so producers never block on a
			// dead sink.
			continue
		}

		if f == nil {
			handle, err := openLogFile(s.path)
			if err != nil {
				s.fail(err)
				continue
			}
			f = handle
		}

		if _, err := io.WriteString(f, line+"\n"); err != nil {
			s.fail(err)
			continue
		}
		s.metrics.LinesLogged.Add(1)
	}
}

func (s *LogSink) fail(err error) {
	s.writeErr.CompareAndSwap(nil, err)
	s.metrics.LogWriteErrors.Add(1)
}
