// Package timing - Single-call latency measurement and statistical reduction.
package timing

import (
	"errors"
	"fmt"
	"time"
)

// Reduction names a strategy for collapsing an ordered sequence of latency
// samples into one representative value.
type Reduction string

const (
	// ReductionMedian selects the positional midpoint of the samples.
	ReductionMedian Reduction = "median"
	// ReductionGMean averages the samples after dropping a fixed-size prefix.
	ReductionGMean Reduction = "gmean"
)

// DropLargest is the number of samples the gmean reduction discards before
// averaging.
const DropLargest = 3

// ErrNoSamples is returned when a result is requested before any post-warmup
// sample has been recorded.
var ErrNoSamples = errors.New("timing: no samples recorded")

// ParseReduction validates a reduction name from configuration.
func ParseReduction(name string) (Reduction, error) {
	switch r := Reduction(name); r {
	case ReductionMedian, ReductionGMean:
		return r, nil
	default:
		return "", fmt.Errorf("timing: unsupported reduction %q", name)
	}
}

// Median returns the positional midpoint of samples. The sequence is kept in
// arrival order; with an even length the two middle positions are averaged.
// This is a sorted median only when the input happens to be sorted.
func Median(samples []float64) (float64, error) {
	l := len(samples)
	if l == 0 {
		return 0, ErrNoSamples
	}
	mid := l / 2
	if l%2 == 0 {
		return (samples[mid] + samples[mid-1]) / 2, nil
	}
	return samples[mid], nil
}

// TrimmedMean drops the first DropLargest samples and averages the remainder.
// The divisor is calls, the timer's total call count with the warmup prefix
// included, not the length of the trimmed sequence.
func TrimmedMean(samples []float64, calls int) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if len(samples) <= DropLargest || calls <= DropLargest {
		return 0, fmt.Errorf("timing: gmean needs more than %d samples, have %d of %d calls",
			DropLargest, len(samples), calls)
	}
	var sum float64
	for _, v := range samples[DropLargest:] {
		sum += v
	}
	return sum / float64(calls-DropLargest), nil
}

// Timer measures single-call latency on the monotonic clock and reduces a
// batch of measurements to one representative value. The first warmup samples
// of each record are excluded from the reduction.
//
// A Timer is not safe for concurrent use.
type Timer struct {
	warmup    int
	reduction Reduction
	record    []float64
	calls     int
	started   time.Time
	armed     bool
}

// NewTimer returns a Timer that discards the first warmup samples and reduces
// the remainder with the named strategy.
func NewTimer(warmup int, reduction Reduction) *Timer {
	return &Timer{warmup: warmup, reduction: reduction}
}

// Start arms the stopwatch. Starting an already armed timer is an error.
func (t *Timer) Start() error {
	if t.armed {
		return errors.New("timing: timer already started")
	}
	t.armed = true
	t.started = time.Now()
	return nil
}

// Stop records the elapsed milliseconds since the matching Start and rearms
// the stopwatch for the next cycle.
func (t *Timer) Stop() error {
	if !t.armed {
		return errors.New("timing: timer stopped without a matching start")
	}
	elapsed := time.Since(t.started)
	t.record = append(t.record, float64(elapsed.Nanoseconds())/1e6)
	t.calls++
	t.armed = false
	return nil
}

// Reset clears the record and the call counter so samples from separate
// measurement loops never mix.
func (t *Timer) Reset() {
	t.record = t.record[:0]
	t.calls = 0
	t.armed = false
}

// Count returns the number of samples currently recorded, warmup included.
func (t *Timer) Count() int { return len(t.record) }

// Calls returns the total number of completed start/stop cycles since the
// last reset.
func (t *Timer) Calls() int { return t.calls }

// Result reduces the post-warmup samples with the configured strategy.
func (t *Timer) Result() (float64, error) {
	if len(t.record) <= t.warmup {
		return 0, ErrNoSamples
	}
	samples := t.record[t.warmup:]
	switch t.reduction {
	case ReductionMedian:
		return Median(samples)
	case ReductionGMean:
		return TrimmedMean(samples, t.calls)
	default:
		return 0, fmt.Errorf("timing: unsupported reduction %q", t.reduction)
	}
}
