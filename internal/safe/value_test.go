package safe

import (
	"math"
	"testing"
)

func TestInt64(t *testing.T) {
	tests := []struct {
		name            string
		input           uint64
		expectedValue   int64
		expectedClamped bool
	}{
		{name: "zero address", input: 0, expectedValue: 0},
		{name: "flash config address", input: 0x400, expectedValue: 0x400},
		{name: "sram upper half", input: 0x2000_3000, expectedValue: 0x2000_3000},
		{name: "max int64", input: math.MaxInt64, expectedValue: math.MaxInt64},
		{name: "overflow", input: math.MaxUint64, expectedValue: math.MaxInt64, expectedClamped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Int64(tt.input)
			if got != tt.expectedValue {
				t.Errorf("Int64(%d) value = %d, want %d", tt.input, got, tt.expectedValue)
			}
			if clamped != tt.expectedClamped {
				t.Errorf("Int64(%d) clamped = %v, want %v", tt.input, clamped, tt.expectedClamped)
			}
		})
	}
}
