// Package nn is the neural network interface layer: geometry, detection
// types, and the backend contracts that concrete model runtimes implement.
// To load a model, use a backend package such as nnonnx.
package nn

import (
	"encoding/json"
	"os"
)

const DefaultProbabilityThreshold = 0.5
const DefaultNmsIouThreshold = 0.45

// ObjectDetection is an object that a neural network has found in an image
type ObjectDetection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// NN object detection parameters
type DetectionParams struct {
	ProbabilityThreshold float32 // Value between 0 and 1. Lower values will find more objects. Zero value will use the default.
	NmsIouThreshold      float32 // Value between 0 and 1. Lower values will merge more objects together into one. Zero value will use the default.
}

func NewDetectionParams() *DetectionParams {
	return &DetectionParams{
		ProbabilityThreshold: DefaultProbabilityThreshold,
		NmsIouThreshold:      DefaultNmsIouThreshold,
	}
}

// ObjectDetector is given an image, and returns zero or more detected objects.
// Implementations are expected to apply the probability threshold in params,
// but callers may not rely on that: the pipeline re-applies its own
// thresholding and NMS, so a backend that returns raw candidates is fine.
type ObjectDetector interface {
	// Close releases the model (backends typically hold native resources)
	Close()
	// DetectObjects returns a list of objects detected in the image.
	// img is expected to be 3-channel RGB.
	DetectObjects(img ImageCrop, params *DetectionParams) ([]ObjectDetection, error)
	// Model Config.
	// Callers assume that ModelConfig remains constant once the detector has been created.
	Config() *ModelConfig
}

// ImageClassifier is given a preprocessed region, and returns one probability
// per class in Config().Classes.
type ImageClassifier interface {
	Close()
	ClassProbabilities(region Region) ([]float32, error)
	Config() *ModelConfig
}

// Region is a fixed-size classifier input: unit-range float32 pixels, HWC layout.
type Region struct {
	Width  int
	Height int
	NChan  int
	Data   []float32
}

// ModelConfig is saved in a JSON file along with the weights of the NN model
type ModelConfig struct {
	Architecture string   `json:"architecture"` // eg "yolov8"
	Width        int      `json:"width"`        // eg 640
	Height       int      `json:"height"`       // eg 640
	Classes      []string `json:"classes"`      // eg ["with-closure", "without-closure", ...]
}

// Load model config from a JSON file
func LoadModelConfig(filename string) (*ModelConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	config := &ModelConfig{}
	err = json.Unmarshal(b, config)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Load a JSON file containing an array of class names
func LoadClassList(filename string) ([]string, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	classes := []string{}
	if err := json.Unmarshal(b, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}
