package monitor

import (
	"fmt"

	gobug "go.bug.st/serial"
)

type Parity gobug.Parity

func (pa Parity) Get() gobug.Parity {
	return gobug.Parity(pa)
}

const (
	// ParityNone represents no parity bit
	ParityNone = Parity(gobug.NoParity)
	// ParityOdd represents odd parity bit
	ParityOdd = Parity(gobug.OddParity)
	// ParityEven represents even parity bit
	ParityEven = Parity(gobug.EvenParity)
	// ParityMark represents mark parity bit (always 1)
	ParityMark = Parity(gobug.MarkParity)
	// ParitySpace represents space parity bit (always 0)
	ParitySpace = Parity(gobug.SpaceParity)
)

// ParseParity maps the single-letter convention used on the command line and
// in config files (N, O, E, M, S) to a Parity value.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "", "N", "n":
		return ParityNone, nil
	case "O", "o":
		return ParityOdd, nil
	case "E", "e":
		return ParityEven, nil
	case "M", "m":
		return ParityMark, nil
	case "S", "s":
		return ParitySpace, nil
	}
	return ParityNone, fmt.Errorf("unsupported parity %q (use N, O, E, M or S)", s)
}
