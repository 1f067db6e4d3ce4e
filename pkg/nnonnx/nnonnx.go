// Package nnonnx runs object detection and image classification models
// through ONNX Runtime. It is the concrete implementation behind the
// nn.ObjectDetector and nn.ImageClassifier interfaces.
package nnonnx

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var initOnce sync.Once
var initErr error

// Initialize loads the ONNX Runtime shared library. Safe to call more than
// once. libraryPath may be empty, in which case the system default is used.
func Initialize(libraryPath string) error {
	initOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

func statModel(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file %v: %w", modelPath, err)
	}
	return nil
}
