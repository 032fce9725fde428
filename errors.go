package monitor

import "errors"

var (
	// ErrPortClosed is returned by read/write operations on a closed port.
	ErrPortClosed = errors.New("monitor: port closed")

	// ErrInvalidPortName is returned when the requested port is not present
	// in the system's port list or does not look like a serial device path.
	ErrInvalidPortName = errors.New("monitor: invalid port name")

	// ErrShuttingDown is returned when an operation arrives while the
	// session is being torn down.
	ErrShuttingDown = errors.New("monitor: shutting down")

	// ErrNotMonitoring is returned by Send when the controller is not in the
	// Monitoring state.
	ErrNotMonitoring = errors.New("monitor: not monitoring")

	// ErrAlreadyStarted is returned by Run when the controller has already
	// left the Idle state. A Controller drives exactly one session.
	ErrAlreadyStarted = errors.New("monitor: controller already started")

	ErrInvalidBuffer  = errors.New("monitor: invalid buffer")
	ErrBufferTooLarge = errors.New("monitor: buffer exceeds maximum size")
)
