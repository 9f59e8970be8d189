package types

import (
	"fmt"
	"time"
)

// Bytes is a size in bytes, printed with 1024-based units.
type Bytes uint64

var byteUnits = []string{"KB", "MB", "GB", "TB"}

// Humanized picks the largest unit that keeps the value >= 1, e.g. "1.50 KB".
// Values under 1 KB are printed as whole bytes.
func (b Bytes) Humanized() string {
	if b < 1024 {
		return fmt.Sprintf("%d B", uint64(b))
	}
	v := float64(b) / 1024
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[unit])
}

func (b Bytes) String() string { return b.Humanized() }

// Rate formats the growth of a byte counter from prev to cur over d. A
// counter that went backwards (reset) or a non-positive d yields "0 B/s".
func Rate(prev, cur Bytes, d time.Duration) string {
	if cur < prev || d <= 0 {
		return "0 B/s"
	}
	perSec := Bytes(float64(cur-prev) / d.Seconds())
	return perSec.Humanized() + "/s"
}
