package pipeline

import (
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/cyclopcam/logs"
)

// BrandClassifier wraps a classification backend, feeding it regions cut out
// around container detections. A nil backend or an empty label vocabulary
// puts it in degraded mode, where Classify always returns nil.
type BrandClassifier struct {
	log       logs.Log
	backend   nn.ImageClassifier
	labels    []string
	padding   float32
	lastErrAt time.Time
}

func NewBrandClassifier(logger logs.Log, backend nn.ImageClassifier, labels []string) *BrandClassifier {
	if backend == nil {
		logger.Warnf("Brand classification model unavailable, brand classification disabled")
	} else if len(labels) == 0 {
		logger.Warnf("No brand labels available, brand classification disabled")
	}
	return &BrandClassifier{
		log:     logger,
		backend: backend,
		labels:  labels,
		padding: DefaultRegionPadding,
	}
}

func (c *BrandClassifier) Available() bool {
	return c.backend != nil && len(c.labels) != 0
}

// Classify crops the box out of the frame and runs the classifier on it.
// Returns nil when the classifier is unavailable, the region is degenerate,
// or the winning probability is below the brand threshold. None of these are
// errors; classification is best-effort.
func (c *BrandClassifier) Classify(frame *cimg.Image, box nn.Rect, cfg Config) *Classification {
	if !c.Available() {
		return nil
	}

	region := ExtractRegion(frame, box, c.padding)
	if region == nil {
		// Expected for boxes hugging the frame edge. Not worth logging.
		return nil
	}

	probs, err := c.backend.ClassProbabilities(NormalizeRegion(region))
	if err != nil {
		if time.Since(c.lastErrAt) > detectorErrLogInterval {
			c.log.Errorf("Error classifying brand: %v", err)
			c.lastErrAt = time.Now()
		}
		return nil
	}

	best := 0
	for i := 1; i < len(probs) && i < len(c.labels); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	if len(probs) == 0 || best >= len(c.labels) || probs[best] < cfg.BrandThreshold {
		return nil
	}
	return &Classification{
		Label:      c.labels[best],
		Confidence: probs[best],
	}
}
