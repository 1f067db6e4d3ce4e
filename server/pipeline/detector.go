package pipeline

import (
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/cyclopcam/logs"
)

// COCO class id of "bottle", which is what the stock container model emits
const ContainerClassID = 39

// DefaultClosureCategories maps the closure model's raw class ids onto our
// categories. The model was trained with redundant classes (two flavours
// each of sealed and unsealed), which collapse here.
var DefaultClosureCategories = map[int]string{
	0: CategoryBroken,
	1: CategoryWithClosure,
	2: CategoryWithoutClosure,
	3: CategoryWithoutClosure,
	4: CategoryWithClosure,
}

const detectorErrLogInterval = 15 * time.Second

// Detector wraps an object detection backend for one detection task.
// It filters raw model output down to the classes this detector is
// responsible for, applies the confidence floor, and runs NMS.
// A Detector with a nil backend is in degraded mode and always returns
// an empty result.
type Detector struct {
	log        logs.Log
	kind       DetectionKind
	backend    nn.ObjectDetector // nil when the model failed to load
	target     int               // class id to keep, or -1 to keep all
	categoryOf map[int]string    // class id -> category (nil means all detections get CategoryContainer)
	lastErrAt  time.Time
}

// NewContainerDetector keeps only the container class from a general-purpose
// detection model. backend may be nil (degraded mode).
func NewContainerDetector(logger logs.Log, backend nn.ObjectDetector) *Detector {
	if backend == nil {
		logger.Warnf("Container detection model unavailable, container detection disabled")
	}
	return &Detector{
		log:     logger,
		kind:    KindContainer,
		backend: backend,
		target:  ContainerClassID,
	}
}

// NewClosureDetector keeps every class of the dedicated closure model, mapped
// through the class->category table. backend may be nil (degraded mode).
func NewClosureDetector(logger logs.Log, backend nn.ObjectDetector) *Detector {
	if backend == nil {
		logger.Warnf("Closure detection model unavailable, closure detection disabled")
	}
	return &Detector{
		log:        logger,
		kind:       KindClosure,
		backend:    backend,
		target:     -1,
		categoryOf: DefaultClosureCategories,
	}
}

func (d *Detector) Available() bool {
	return d.backend != nil
}

// threshold returns this detector's confidence floor from the config snapshot
func (d *Detector) threshold(cfg Config) float32 {
	if d.kind == KindClosure {
		return cfg.ClosureThreshold
	}
	return cfg.ContainerThreshold
}

// Detect runs one inference pass on the frame.
// Never returns an error: an unavailable backend yields an empty result, and
// an inference failure yields an empty result for this frame only, with a
// rate-limited log message.
func (d *Detector) Detect(frame *cimg.Image, cfg Config) []Detection {
	if d.backend == nil {
		return nil
	}

	params := nn.NewDetectionParams()
	params.ProbabilityThreshold = d.threshold(cfg)
	params.NmsIouThreshold = cfg.NmsIouThreshold

	img := nn.WholeImage(frame.NChan(), frame.Pixels, frame.Width, frame.Height)
	objects, err := d.backend.DetectObjects(img, params)
	if err != nil {
		if time.Since(d.lastErrAt) > detectorErrLogInterval {
			d.log.Errorf("Error detecting %v objects: %v", d.kind, err)
			d.lastErrAt = time.Now()
		}
		return nil
	}

	// Backends are expected to have thresholded and NMS'ed already, but we
	// don't trust that: re-filter so the contract holds for any backend.
	threshold := d.threshold(cfg)
	candidates := make([]Detection, 0, len(objects))
	for _, obj := range objects {
		if d.target >= 0 && obj.Class != d.target {
			continue
		}
		if obj.Confidence < threshold || !obj.Box.IsValid() {
			continue
		}
		candidates = append(candidates, Detection{
			Kind:       d.kind,
			Category:   d.category(obj.Class),
			Box:        obj.Box,
			Confidence: obj.Confidence,
			ClassID:    obj.Class,
			Container:  -1,
		})
	}

	boxes := make([]nn.Rect, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Confidence
	}
	keep := nn.NonMaxSuppression(boxes, scores, cfg.NmsIouThreshold)

	result := make([]Detection, 0, len(keep))
	for _, i := range keep {
		result = append(result, candidates[i])
	}
	return result
}

func (d *Detector) category(classID int) string {
	if d.categoryOf == nil {
		return CategoryContainer
	}
	if cat, ok := d.categoryOf[classID]; ok {
		return cat
	}
	return CategoryUnknown
}
