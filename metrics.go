package monitor

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Metrics tracks session health statistics. All fields are updated with
// atomic operations; a single instance is shared by the assembler, the log
// sink and the controller.
type Metrics struct {
	// Ingestion
	ReadOperations atomic.Int64 // Reads that returned data
	BytesRead      atomic.Int64 // Total bytes ingested
	ReadErrors     atomic.Int64 // Transport read failures

	// Assembly
	LinesAssembled  atomic.Int64 // Complete lines extracted
	LinesForwarded  atomic.Int64 // Lines that passed the filter
	LinesFiltered   atomic.Int64 // Lines suppressed by the filter
	DecodeAnomalies atomic.Int64 // Lines with invalid byte sequences
	OverlongDrops   atomic.Int64 // Unterminated lines dropped at the size cap

	// Capture log
	LinesLogged    atomic.Int64 // Lines written to the capture log
	LogWriteErrors atomic.Int64 // Capture log write failures

	// Outbound
	CommandsSent atomic.Int64 // Operator commands written to the device
	BytesWritten atomic.Int64 // Total bytes written to the device
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Timestamp time.Time

	ReadOperations  int64
	BytesRead       int64
	ReadErrors      int64
	LinesAssembled  int64
	LinesForwarded  int64
	LinesFiltered   int64
	DecodeAnomalies int64
	OverlongDrops   int64
	LinesLogged     int64
	LogWriteErrors  int64
	CommandsSent    int64
	BytesWritten    int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:       time.Now(),
		ReadOperations:  m.ReadOperations.Load(),
		BytesRead:       m.BytesRead.Load(),
		ReadErrors:      m.ReadErrors.Load(),
		LinesAssembled:  m.LinesAssembled.Load(),
		LinesForwarded:  m.LinesForwarded.Load(),
		LinesFiltered:   m.LinesFiltered.Load(),
		DecodeAnomalies: m.DecodeAnomalies.Load(),
		OverlongDrops:   m.OverlongDrops.Load(),
		LinesLogged:     m.LinesLogged.Load(),
		LogWriteErrors:  m.LogWriteErrors.Load(),
		CommandsSent:    m.CommandsSent.Load(),
		BytesWritten:    m.BytesWritten.Load(),
	}
}

// MarshalZerologObject lets a Snapshot be attached to a log event with
// Object(), keyed the way the periodic status line expects.
func (s Snapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("bytes_read", s.BytesRead).
		Int64("lines", s.LinesAssembled).
		Int64("forwarded", s.LinesForwarded).
		Int64("filtered", s.LinesFiltered).
		Int64("decode_anomalies", s.DecodeAnomalies).
		Int64("overlong_drops", s.OverlongDrops).
		Int64("logged", s.LinesLogged).
		Int64("log_errors", s.LogWriteErrors).
		Int64("commands", s.CommandsSent)
}
