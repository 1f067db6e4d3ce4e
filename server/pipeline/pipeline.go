package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/perfstats"
	"github.com/cyclopcam/logs"
)

// Pipeline fuses the container detector, the closure detector, and the brand
// classifier into a per-frame result. Frames are processed strictly one at a
// time on the caller's goroutine; the only state shared with other goroutines
// is the config pointer, which is swapped whole so a frame never observes a
// partial update.
type Pipeline struct {
	Log logs.Log

	// Per-stage timings, exposed on the stats API
	PerfContainerDetect perfstats.MovingAverage
	PerfClosureDetect   perfstats.MovingAverage
	PerfClassify        perfstats.MovingAverage

	container *Detector
	closure   *Detector
	brand     *BrandClassifier
	config    atomic.Pointer[Config]
}

func NewPipeline(logger logs.Log, container *Detector, closure *Detector, brand *BrandClassifier) *Pipeline {
	p := &Pipeline{
		Log:       logger,
		container: container,
		closure:   closure,
		brand:     brand,
	}
	cfg := DefaultConfig()
	p.config.Store(&cfg)
	return p
}

// Config returns the current config snapshot
func (p *Pipeline) Config() Config {
	return *p.config.Load()
}

// SetConfig replaces the entire config, effective from the next frame
func (p *Pipeline) SetConfig(cfg Config) {
	p.config.Store(&cfg)
}

// UpdateConfig merges a partial update into the live config. Out-of-range
// values reject the whole update and the prior config stays in effect.
func (p *Pipeline) UpdateConfig(update *ConfigUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	// CAS loop so concurrent writers can't lose each other's fields
	for {
		current := p.config.Load()
		merged := update.Apply(*current)
		if p.config.CompareAndSwap(current, &merged) {
			return nil
		}
	}
}

// ProcessFrame runs detection and classification on one frame.
// It never fails: every internal failure degrades to empty fields.
func (p *Pipeline) ProcessFrame(frame *cimg.Image) *FrameResult {
	cfg := *p.config.Load() // one consistent snapshot for the whole frame

	result := &FrameResult{
		Containers:  []Detection{},
		Closures:    []Detection{},
		FrameWidth:  frame.Width,
		FrameHeight: frame.Height,
		FramePTS:    time.Now(),
	}

	if cfg.EnableContainerDetection {
		start := time.Now()
		result.Containers = p.container.Detect(frame, cfg)
		p.PerfContainerDetect.Update(time.Since(start).Nanoseconds())

		if cfg.EnableBrandClassification {
			start = time.Now()
			for i := range result.Containers {
				result.Containers[i].Brand = p.brand.Classify(frame, result.Containers[i].Box, cfg)
			}
			p.PerfClassify.Update(time.Since(start).Nanoseconds())
		}
	}

	if cfg.EnableClosureDetection {
		start := time.Now()
		result.Closures = p.closure.Detect(frame, cfg)
		p.PerfClosureDetect.Update(time.Since(start).Nanoseconds())
	}

	// Keep the slices non-nil, so JSON consumers always see arrays
	if result.Containers == nil {
		result.Containers = []Detection{}
	}
	if result.Closures == nil {
		result.Closures = []Detection{}
	}

	associateClosures(result.Containers, result.Closures)
	return result
}

// ModelInfo reports which models are loaded, for the status API
type ModelInfo struct {
	ContainerDetector bool     `json:"containerDetector"`
	ClosureDetector   bool     `json:"closureDetector"`
	BrandClassifier   bool     `json:"brandClassifier"`
	Brands            []string `json:"brands"`
}

func (p *Pipeline) Models() ModelInfo {
	return ModelInfo{
		ContainerDetector: p.container.Available(),
		ClosureDetector:   p.closure.Available(),
		BrandClassifier:   p.brand.Available(),
		Brands:            p.brand.labels,
	}
}
