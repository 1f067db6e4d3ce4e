package pipeline

import (
	"fmt"

	"github.com/capwatch/capwatch/pkg/nn"
)

// Default thresholds. Tuned on the production line; the closure model needs
// a higher bar than the generic container model.
const (
	DefaultContainerThreshold = nn.DefaultProbabilityThreshold
	DefaultClosureThreshold   = 0.6
	DefaultNmsIouThreshold    = nn.DefaultNmsIouThreshold
	DefaultBrandThreshold     = 0.4
)

// Config holds the runtime-tunable parameters of the pipeline.
// Treat values as immutable: Pipeline stores a *Config and swaps the whole
// pointer on update, so a frame never sees a half-written config.
type Config struct {
	ContainerThreshold float32 `json:"containerThreshold"` // Confidence floor for container detections
	ClosureThreshold   float32 `json:"closureThreshold"`   // Confidence floor for closure detections
	NmsIouThreshold    float32 `json:"nmsIouThreshold"`    // IoU at which overlapping boxes are suppressed
	BrandThreshold     float32 `json:"brandThreshold"`     // Confidence floor for brand classification

	EnableContainerDetection  bool `json:"enableContainerDetection"`
	EnableClosureDetection    bool `json:"enableClosureDetection"`
	EnableBrandClassification bool `json:"enableBrandClassification"`
}

func DefaultConfig() Config {
	return Config{
		ContainerThreshold:        DefaultContainerThreshold,
		ClosureThreshold:          DefaultClosureThreshold,
		NmsIouThreshold:           DefaultNmsIouThreshold,
		BrandThreshold:            DefaultBrandThreshold,
		EnableContainerDetection:  true,
		EnableClosureDetection:    true,
		EnableBrandClassification: true,
	}
}

// ConfigUpdate is a partial config change. Nil fields are left at their
// current values.
type ConfigUpdate struct {
	ContainerThreshold *float32 `json:"containerThreshold,omitempty"`
	ClosureThreshold   *float32 `json:"closureThreshold,omitempty"`
	NmsIouThreshold    *float32 `json:"nmsIouThreshold,omitempty"`
	BrandThreshold     *float32 `json:"brandThreshold,omitempty"`

	EnableContainerDetection  *bool `json:"enableContainerDetection,omitempty"`
	EnableClosureDetection    *bool `json:"enableClosureDetection,omitempty"`
	EnableBrandClassification *bool `json:"enableBrandClassification,omitempty"`
}

func checkUnitRange(name string, v *float32) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%v must be between 0 and 1 (got %v)", name, *v)
	}
	return nil
}

// Validate returns an error if any provided threshold is outside [0,1].
func (u *ConfigUpdate) Validate() error {
	if err := checkUnitRange("containerThreshold", u.ContainerThreshold); err != nil {
		return err
	}
	if err := checkUnitRange("closureThreshold", u.ClosureThreshold); err != nil {
		return err
	}
	if err := checkUnitRange("nmsIouThreshold", u.NmsIouThreshold); err != nil {
		return err
	}
	return checkUnitRange("brandThreshold", u.BrandThreshold)
}

// Apply returns a copy of cfg with the update's non-nil fields merged in.
func (u *ConfigUpdate) Apply(cfg Config) Config {
	if u.ContainerThreshold != nil {
		cfg.ContainerThreshold = *u.ContainerThreshold
	}
	if u.ClosureThreshold != nil {
		cfg.ClosureThreshold = *u.ClosureThreshold
	}
	if u.NmsIouThreshold != nil {
		cfg.NmsIouThreshold = *u.NmsIouThreshold
	}
	if u.BrandThreshold != nil {
		cfg.BrandThreshold = *u.BrandThreshold
	}
	if u.EnableContainerDetection != nil {
		cfg.EnableContainerDetection = *u.EnableContainerDetection
	}
	if u.EnableClosureDetection != nil {
		cfg.EnableClosureDetection = *u.EnableClosureDetection
	}
	if u.EnableBrandClassification != nil {
		cfg.EnableBrandClassification = *u.EnableBrandClassification
	}
	return cfg
}
