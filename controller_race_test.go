package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

// TestSendShutdownRace hammers command injection against session teardown.
// Send must never touch a closed port and never panic, regardless of how the
// cancellation interleaves with in-flight writes.
func TestSendShutdownRace(t *testing.T) {
	for i := 0; i < 30; i++ {
		t.Run(fmt.Sprintf("iteration_%d", i), func(t *testing.T) {
			mh := newMockHandle()
			withMockPort(t, mh)

			ctrl := newTestController(t, testConfig(), &syncBuffer{})

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- ctrl.Run(ctx) }()

			waitFor(t, time.Second, func() bool { return ctrl.State() == StateMonitoring }, "monitoring state")

			var wg sync.WaitGroup
			for g := 0; g < 4; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 20; j++ {
						err := ctrl.Send("status")
						if err != nil && !errors.Is(err, ErrShuttingDown) {
							t.Errorf("unexpected Send error: %v", err)
							return
						}
						if err != nil {
							// Shutdown reached; later sends stay refused.
							return
						}
					}
				}()
			}

			// Let some sends land, then pull the plug mid-stream.
			time.Sleep(time.Millisecond)
			cancel()

			wg.Wait()
			if err := <-errCh; err != nil {
				t.Fatalf("Run: %v", err)
			}
			if ctrl.State() != StateStopped {
				t.Fatalf("expected Stopped, got %v", ctrl.State())
			}
		})
	}
}

// TestEnqueueCloseRace drives the log queue's producer side against Close.
// The sink must drain what it accepted and refuse the rest without panic.
func TestEnqueueCloseRace(t *testing.T) {
	for i := 0; i < 30; i++ {
		sink := NewLogSink("race.log", 4, &Metrics{})
		w := &slowWriteCloser{}
		prev := openLogFile
		openLogFile = func(path string) (io.WriteCloser, error) { return w, nil }

		sink.Start()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := sink.Enqueue("line"); err != nil {
					return
				}
			}
		}()

		time.Sleep(time.Duration(i%5) * 100 * time.Microsecond)
		if err := sink.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		wg.Wait()

		openLogFile = prev
	}
}
