// Package gauge turns monotonic counters into rates.
package gauge

import "time"

// Unsigned is the set of counter types a Pair can hold.
type Unsigned interface {
	~uint32 | ~uint64
}

// Pair holds the two most recent samples of a monotonic counter.
// Current is the latest sample and Previous the one before it.
type Pair[T Unsigned] struct {
	Previous T
	Current  T
	samples  int
}

// Push records a new sample, shifting Current into Previous.
func (p *Pair[T]) Push(v T) {
	p.Previous = p.Current
	p.Current = v
	if p.samples < 2 {
		p.samples++
	}
}

// Warm reports whether two samples have been pushed.
func (p *Pair[T]) Warm() bool {
	return p.samples >= 2
}

// Delta returns Current - Previous, clamped at zero so a counter reset never
// goes negative. ok is false while the pair is cold.
func (p *Pair[T]) Delta() (delta T, ok bool) {
	if !p.Warm() {
		return 0, false
	}
	return Sub(p.Current, p.Previous), true
}

// Rate returns the per-second change over elapsed. ok is false while the pair
// is cold or elapsed is not positive.
func (p *Pair[T]) Rate(elapsed time.Duration) (rate float64, ok bool) {
	d, ok := p.Delta()
	if !ok || elapsed <= 0 {
		return 0, false
	}
	return float64(d) / elapsed.Seconds(), true
}

// Sub is saturating subtraction.
func Sub[T Unsigned](a, b T) T {
	if b > a {
		return 0
	}
	return a - b
}
