package pipeline

import (
	"time"

	"github.com/capwatch/capwatch/pkg/nn"
)

// DetectionKind says which detector produced a Detection
type DetectionKind string

const (
	KindContainer DetectionKind = "container"
	KindClosure   DetectionKind = "closure"
)

// Closure categories. The closure model was trained with several raw classes
// that collapse into these.
const (
	CategoryContainer      = "container"
	CategoryWithClosure    = "with-closure"
	CategoryWithoutClosure = "without-closure"
	CategoryBroken         = "broken"
	CategoryUnknown        = "unknown"
)

// Classification is an optional brand annotation on a container detection.
// Absence means "below the confidence bar or classifier unavailable",
// never an error.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Detection is one object found in a frame. Immutable once created; owned by
// the FrameResult that references it.
type Detection struct {
	Kind       DetectionKind `json:"kind"`
	Category   string        `json:"category"`
	Box        nn.Rect       `json:"box"`
	Confidence float32       `json:"confidence"`
	ClassID    int           `json:"classID"` // raw model class id

	// Brand is set on container detections when classification succeeded
	Brand *Classification `json:"brand,omitempty"`

	// Container is the index (into FrameResult.Containers) of the container
	// this closure sits on, or -1 when unmatched. Only meaningful on closures.
	Container int `json:"container"`
}

// FrameResult is everything the pipeline found in one frame.
// Created fresh per frame and never mutated after ProcessFrame returns.
type FrameResult struct {
	Containers  []Detection `json:"containers"`
	Closures    []Detection `json:"closures"`
	FrameWidth  int         `json:"frameWidth"`
	FrameHeight int         `json:"frameHeight"`
	FramePTS    time.Time   `json:"framePTS"`
}

// CountByCategory returns the number of closures in the given category
func (r *FrameResult) CountByCategory(category string) int {
	n := 0
	for _, d := range r.Closures {
		if d.Category == category {
			n++
		}
	}
	return n
}

// BrandLabels returns the brand label of every classified container,
// one entry per container (duplicates included).
func (r *FrameResult) BrandLabels() []string {
	labels := []string{}
	for _, d := range r.Containers {
		if d.Brand != nil {
			labels = append(labels, d.Brand.Label)
		}
	}
	return labels
}
