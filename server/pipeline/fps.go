package pipeline

import (
	"math"
	"time"

	"github.com/bmharper/ringbuffer"
)

// DefaultRateWindow is the number of recent frame intervals used for the
// rolling frame rate estimate
const DefaultRateWindow = 30

// RateTracker estimates the frame rate over a rolling window of inter-frame
// intervals. Construction seeds the reference time, so the very first
// OnFrameCompleted() records a real interval (from construction to the first
// frame) rather than discarding it.
// Not safe for concurrent use; it belongs to the frame loop.
type RateTracker struct {
	intervals ringbuffer.RingP[time.Duration]
	lastTime  time.Time
	now       func() time.Time // overridable for tests
}

// NewRateTracker creates a tracker whose window holds at least 'window'
// samples. The ring requires a power-of-two capacity, so the window is
// rounded up.
func NewRateTracker(window int) *RateTracker {
	if window < 1 {
		window = DefaultRateWindow
	}
	return &RateTracker{
		intervals: ringbuffer.NewRingP[time.Duration](nextPowerOf2(window)),
		lastTime:  time.Now(),
		now:       time.Now,
	}
}

// OnFrameCompleted records the interval since the previous completion
// (evicting the oldest interval once the window is full), and returns the
// current estimate. Returns 0 when no interval has been recorded yet.
func (t *RateTracker) OnFrameCompleted() float64 {
	now := t.now()
	t.intervals.Add(now.Sub(t.lastTime))
	t.lastTime = now
	return t.Rate()
}

// Rate returns frames per second over the current window, or 0 when empty
func (t *RateTracker) Rate() float64 {
	n := t.intervals.Len()
	if n == 0 {
		return 0
	}
	sum := time.Duration(0)
	for i := 0; i < n; i++ {
		sum += t.intervals.Peek(i)
	}
	if sum <= 0 {
		return 0
	}
	return float64(n) / sum.Seconds()
}

func nextPowerOf2(n int) int {
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
