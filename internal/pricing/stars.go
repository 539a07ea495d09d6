package pricing

import "math"

// StarsPolicy converts a UAH total into Telegram Stars. Two policies were
// in use at different times; which one is active is a config choice, so
// both live behind this interface and the checkout path never cares.
type StarsPolicy interface {
	Stars(uah float64, platform Platform) int
}

// CeilPolicy multiplies by a per-platform commission rate and rounds up.
// The desktop rate is higher because Telegram takes a bigger cut there.
type CeilPolicy struct {
	MobileRate  float64 // default 1.0
	DesktopRate float64 // default 1.2
}

func (p CeilPolicy) Stars(uah float64, platform Platform) int {
	rate := p.MobileRate
	if platform == PlatformDesktop {
		rate = p.DesktopRate
	}
	return int(math.Ceil(uah * rate))
}

// HundredsPolicy divides by a per-platform rate and rounds the result to
// the nearest hundred, with the cutoff at 90 so that e.g. 2589 stays at
// 2500 while 2590 moves up to 2600.
type HundredsPolicy struct{}

const (
	hundredsMobileRate  = 0.99
	hundredsDesktopRate = 0.84
)

func (HundredsPolicy) Stars(uah float64, platform Platform) int {
	rate := hundredsDesktopRate
	if platform == PlatformMobile {
		rate = hundredsMobileRate
	}
	return RoundToHundreds(uah / rate)
}

// RoundToHundreds snaps a raw star amount to a round hundred. Remainders
// below 90 round down, 90 and above round up.
func RoundToHundreds(raw float64) int {
	n := int(math.Round(raw))
	if n <= 0 {
		return 0
	}
	r := n % 100
	if r < 90 {
		return n - r
	}
	return n - r + 100
}
