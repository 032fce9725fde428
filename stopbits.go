package monitor

import (
	"fmt"

	gobug "go.bug.st/serial"
)

type StopBits gobug.StopBits

func (sb StopBits) Get() gobug.StopBits {
	return gobug.StopBits(sb)
}

const (
	// StopBits1 represents 1 stop bit
	StopBits1 = StopBits(gobug.OneStopBit)
	// StopBits2 represents 2 stop bits
	StopBits2 = StopBits(gobug.TwoStopBits)
)

// ParseStopBits maps the numeric convention used on the command line to a
// StopBits value. 1.5 stop bits is not used by any supported device.
func ParseStopBits(n int) (StopBits, error) {
	switch n {
	case 0, 1:
		return StopBits1, nil
	case 2:
		return StopBits2, nil
	}
	return StopBits1, fmt.Errorf("unsupported stop bits %d (use 1 or 2)", n)
}
