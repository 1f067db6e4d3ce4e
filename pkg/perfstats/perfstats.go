// Package perfstats is a single place where we record how long the various
// pipeline stages take, so that it's easy to compare models and hardware.
package perfstats

import (
	"sync/atomic"
)

// MovingAverage is an exponentially weighted average of int64 samples
// (typically nanoseconds). It is safe for concurrent use, but we don't
// bother with CompareAndSwap loops: this is sampled stats, and it's OK
// to miss one or two samples.
type MovingAverage struct {
	v atomic.Int64
}

func (m *MovingAverage) Update(sample int64) {
	if m.v.Load() == 0 {
		m.v.Store(sample)
	} else {
		m.v.Store((m.v.Load()*63 + sample) >> 6)
	}
}

func (m *MovingAverage) Value() int64 {
	return m.v.Load()
}

func (m *MovingAverage) Milliseconds() float64 {
	return float64(m.v.Load()) / 1e6
}
