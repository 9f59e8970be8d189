//go:build linux

package util

import "math"

// EMA is an exponential moving average whose weight shrinks with the number
// of samples seen: the n-th sample is blended with alpha = 2/(n+1).
type EMA struct {
	value float64
	n     uint64
}

// Next feeds v into the average and returns the new value rounded to two
// decimals. The first sample passes through unchanged.
func (e *EMA) Next(v float64) float64 {
	e.n++
	if e.n == 1 {
		e.value = v
		return e.value
	}
	alpha := 2 / float64(e.n+1)
	e.value = Round2((v-e.value)*alpha + e.value)
	return e.value
}

// Value returns the current average.
func (e *EMA) Value() float64 { return e.value }

// Count returns how many samples were fed into the average.
func (e *EMA) Count() uint64 { return e.n }

func DeltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	// counter wrapped or reset
	return 0
}

func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	// guard against NaN
	if math.IsNaN(x) {
		return 0
	}
	return x
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x*100) / 100
}
