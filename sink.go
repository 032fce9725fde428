package monitor

import (
	"fmt"
	"io"
)

// timestampLayout renders capture times at millisecond resolution.
const timestampLayout = "15:04:05.000"

// FormatRecord renders a record the way both sinks present it:
// "[HH:MM:SS.mmm] <text>", or the bare text with timestamps disabled.
func FormatRecord(rec Record, timestamps bool) string {
	if !timestamps {
		return rec.Text
	}
	return "[" + rec.At.Format(timestampLayout) + "] " + rec.Text
}

// ConsoleSink renders records to the operator console, synchronously and in
// arrival order. It never buffers: a record is on the terminal before the
// read loop moves on.
type ConsoleSink struct {
	w          io.Writer
	timestamps bool
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer, timestamps bool) *ConsoleSink {
	return &ConsoleSink{w: w, timestamps: timestamps}
}

// Emit writes one record. Console write failures are not fatal to the
// session: a closed terminal should not stop capture to the log file.
func (s *ConsoleSink) Emit(rec Record) {
	fmt.Fprintln(s.w, FormatRecord(rec, s.timestamps))
}
