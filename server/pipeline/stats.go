package pipeline

import (
	"math"
	"sync"
	"time"
)

// Statistics accumulates detection counts across frames.
// Safe for concurrent use: the frame loop updates it while the HTTP API
// reads snapshots and issues resets.
type Statistics struct {
	lock           sync.Mutex
	containerCount int64
	withClosure    int64
	withoutClosure int64
	totalFrames    int64
	labelCounts    map[string]int64
	startTime      time.Time
}

// StatsSnapshot is a consistent copy of the cumulative statistics, plus the
// derived averages.
type StatsSnapshot struct {
	ContainerCount        int64            `json:"containerCount"`
	WithClosure           int64            `json:"withClosure"`
	WithoutClosure        int64            `json:"withoutClosure"`
	TotalFrames           int64            `json:"totalFrames"`
	Brands                map[string]int64 `json:"brands"`
	ElapsedSeconds        float64          `json:"elapsedSeconds"`
	AvgContainersPerFrame float64          `json:"avgContainersPerFrame"`
	AvgFrameRate          float64          `json:"avgFrameRate"`
}

func NewStatistics() *Statistics {
	return &Statistics{
		labelCounts: map[string]int64{},
		startTime:   time.Now(),
	}
}

// Update adds one frame's worth of counts.
// Duplicate labels bump their count once per occurrence: the table records
// frequency, not presence. Deduplication, where wanted, is a display concern.
func (s *Statistics) Update(containers, withClosure, withoutClosure int, labels []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.containerCount += int64(containers)
	s.withClosure += int64(withClosure)
	s.withoutClosure += int64(withoutClosure)
	s.totalFrames++
	for _, label := range labels {
		s.labelCounts[label]++
	}
}

// UpdateFromResult is Update() fed from a FrameResult
func (s *Statistics) UpdateFromResult(r *FrameResult) {
	s.Update(len(r.Containers),
		r.CountByCategory(CategoryWithClosure),
		r.CountByCategory(CategoryWithoutClosure),
		r.BrandLabels())
}

// Reset zeroes every counter and restarts the elapsed-time clock
func (s *Statistics) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.containerCount = 0
	s.withClosure = 0
	s.withoutClosure = 0
	s.totalFrames = 0
	s.labelCounts = map[string]int64{}
	s.startTime = time.Now()
}

func (s *Statistics) Snapshot() StatsSnapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	elapsed := time.Since(s.startTime).Seconds()
	brands := make(map[string]int64, len(s.labelCounts))
	for k, v := range s.labelCounts {
		brands[k] = v
	}
	return StatsSnapshot{
		ContainerCount:        s.containerCount,
		WithClosure:           s.withClosure,
		WithoutClosure:        s.withoutClosure,
		TotalFrames:           s.totalFrames,
		Brands:                brands,
		ElapsedSeconds:        elapsed,
		AvgContainersPerFrame: float64(s.containerCount) / float64(max(int64(1), s.totalFrames)),
		AvgFrameRate:          float64(s.totalFrames) / math.Max(1, elapsed),
	}
}
