package safe

import (
	"math"
)

// Int64 converts an ELF address or size to int64, clamping at math.MaxInt64.
// The boolean reports whether clamping occurred.
func Int64(val uint64) (int64, bool) {
	if val > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(val), false
}
