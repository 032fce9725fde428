package monitor

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// maxLineSize caps the pending buffer so a device that never sends a
// terminator cannot grow it without bound. Well-formed console output stays
// far below this.
const maxLineSize = 16 * 1024

// decodeReplacement substitutes invalid byte sequences so a corrupt byte
// never crashes or silently truncates a line.
const decodeReplacement = "�"

// Record is one decoded, timestamped line captured from the device. It is
// immutable once constructed.
type Record struct {
	// Text is the line content with the trailing carriage return stripped
	// and invalid byte sequences replaced.
	Text string

	// At is the wall-clock capture time.
	At time.Time

	// Passed reports whether the line matched the session filter (always
	// true when no filter is configured). Only passed records reach the
	// sinks.
	Passed bool
}

// CompileFilter compiles an optional filter pattern. An empty pattern means
// "pass everything" and yields a nil filter.
func CompileFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// LineAssembler converts raw byte chunks into Records. It is not safe for
// concurrent use: the read loop is its only caller.
type LineAssembler struct {
	pending []byte
	filter  *regexp.Regexp
	metrics *Metrics

	// now is injectable for tests.
	now func() time.Time
}

// NewLineAssembler creates an assembler. filter may be nil; metrics must not.
func NewLineAssembler(filter *regexp.Regexp, m *Metrics) *LineAssembler {
	return &LineAssembler{
		filter:  filter,
		metrics: m,
		now:     time.Now,
	}
}

// Push appends a chunk to the pending buffer and returns every complete line
// it now holds, in order. Splitting the same bytes differently across calls
// never changes the resulting records. Bytes after the last terminator stay
// pending; a line the device never terminates is never emitted.
func (a *LineAssembler) Push(chunk []byte) []Record {
	if len(chunk) == 0 {
		return nil
	}
	a.pending = append(a.pending, chunk...)

	var records []Record
	rest := a.pending
	for {
		idx := bytes.IndexByte(rest, '\n')
		if idx == -1 {
			break
		}
		records = append(records, a.makeRecord(rest[:idx]))
		rest = rest[idx+1:]
	}

	// Compact the remainder to the front so the backing array does not
	// grow with the lifetime of the session.
	a.pending = append(a.pending[:0], rest...)

	if len(a.pending) > maxLineSize {
		a.pending = a.pending[:0]
		a.metrics.OverlongDrops.Add(1)
	}

	return records
}

// PendingBytes reports how many bytes await a terminator.
func (a *LineAssembler) PendingBytes() int {
	return len(a.pending)
}

func (a *LineAssembler) makeRecord(line []byte) Record {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}

	var text string
	if utf8.Valid(line) {
		text = string(line)
	} else {
		text = strings.ToValidUTF8(string(line), decodeReplacement)
		a.metrics.DecodeAnomalies.Add(1)
	}

	passed := a.filter == nil || a.filter.MatchString(text)

	a.metrics.LinesAssembled.Add(1)
	if passed {
		a.metrics.LinesForwarded.Add(1)
	} else {
		a.metrics.LinesFiltered.Add(1)
	}

	return Record{Text: text, At: a.now(), Passed: passed}
}
