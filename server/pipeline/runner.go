package pipeline

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
)

// Runner drives the pipeline: it pulls frames from the source, processes them
// one at a time, updates the rate tracker and statistics, and hands the
// result to sinks and watchers. One Runner owns one goroutine.
type Runner struct {
	Log      logs.Log
	Pipeline *Pipeline
	Stats    *Statistics

	// MinFrameInterval throttles the loop when the source is faster than we
	// want to run (eg looping over a directory). Zero means run flat out.
	MinFrameInterval time.Duration

	source   FrameSource
	sinks    []Sink
	rate     *RateTracker
	hub      watcherHub
	lastRate atomic.Uint64 // float64 bits; written by the loop, read by the API

	mustStop      atomic.Bool
	runnerStopped chan bool
	startStopLock sync.Mutex
}

func NewRunner(logger logs.Log, pipe *Pipeline, source FrameSource, sinks ...Sink) *Runner {
	return &Runner{
		Log:      logger,
		Pipeline: pipe,
		Stats:    NewStatistics(),
		source:   source,
		sinks:    sinks,
		rate:     NewRateTracker(DefaultRateWindow),
	}
}

// Start launches the frame loop
func (r *Runner) Start() {
	r.startStopLock.Lock()
	defer r.startStopLock.Unlock()
	r.mustStop.Store(false)
	r.runnerStopped = make(chan bool)
	go r.loop()
}

// Stop halts the frame loop and waits for it to exit.
// The frame in flight is finished, not abandoned.
func (r *Runner) Stop() {
	r.startStopLock.Lock()
	defer r.startStopLock.Unlock()
	if r.runnerStopped == nil {
		return
	}
	r.mustStop.Store(true)
	<-r.runnerStopped
	r.runnerStopped = nil
}

// AddWatcher registers to receive one FrameUpdate per processed frame
func (r *Runner) AddWatcher() chan *FrameUpdate {
	return r.hub.AddWatcher()
}

func (r *Runner) RemoveWatcher(ch chan *FrameUpdate) {
	r.hub.RemoveWatcher(ch)
}

// Rate returns the most recent rolling frame rate estimate
func (r *Runner) Rate() float64 {
	return math.Float64frombits(r.lastRate.Load())
}

func (r *Runner) loop() {
	r.Log.Infof("Frame loop started")
	for !r.mustStop.Load() {
		frameStart := time.Now()

		frame, err := r.source.NextFrame()
		if errors.Is(err, io.EOF) {
			r.Log.Infof("Frame source finished")
			break
		}
		if err != nil {
			// A bad frame is not fatal; a broken source will hit EOF or keep failing
			r.Log.Warnf("Error reading frame: %v", err)
			continue
		}

		result := r.Pipeline.ProcessFrame(frame)
		rate := r.rate.OnFrameCompleted()
		r.lastRate.Store(math.Float64bits(rate))
		r.Stats.UpdateFromResult(result)

		update := &FrameUpdate{
			Result: result,
			Rate:   rate,
			Stats:  r.Stats.Snapshot(),
			Frame:  frame,
		}
		for _, sink := range r.sinks {
			sink.Consume(update)
		}
		r.hub.send(update, func(msg string) { r.Log.Warnf("%v", msg) })

		if r.MinFrameInterval > 0 {
			if sleep := r.MinFrameInterval - time.Since(frameStart); sleep > 0 {
				time.Sleep(sleep)
			}
		}
	}
	r.Log.Infof("Frame loop stopped")
	close(r.runnerStopped)
}
