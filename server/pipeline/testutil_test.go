package pipeline

import (
	"errors"
	"io"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/nn"
)

// fakeDetector returns a canned set of raw detections, so tests control
// exactly what the pipeline has to filter
type fakeDetector struct {
	objects []nn.ObjectDetection
	err     error
	calls   int
}

func (d *fakeDetector) Close() {}

func (d *fakeDetector) DetectObjects(img nn.ImageCrop, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.objects, nil
}

func (d *fakeDetector) Config() *nn.ModelConfig {
	return &nn.ModelConfig{Width: 640, Height: 640, Classes: make([]string, 80)}
}

// fakeClassifier returns a canned probability vector
type fakeClassifier struct {
	probs []float32
	err   error
	calls int
}

func (c *fakeClassifier) Close() {}

func (c *fakeClassifier) ClassProbabilities(region nn.Region) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.probs, nil
}

func (c *fakeClassifier) Config() *nn.ModelConfig {
	return &nn.ModelConfig{Width: ClassifierInputWidth, Height: ClassifierInputHeight}
}

func testFrame(width, height int) *cimg.Image {
	return cimg.NewImage(width, height, cimg.PixelFormatRGB)
}

func rawDetection(class int, conf float32, box nn.Rect) nn.ObjectDetection {
	return nn.ObjectDetection{Class: class, Confidence: conf, Box: box}
}

// memorySource serves a fixed list of frames, then io.EOF
type memorySource struct {
	frames []*cimg.Image
	next   int
}

func (s *memorySource) NextFrame() (*cimg.Image, error) {
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *memorySource) Close() {}

var errBackendDown = errors.New("backend exploded")
