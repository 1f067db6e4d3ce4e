package nnonnx

import (
	"fmt"
	"sync"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/nn"
	ort "github.com/yalue/onnxruntime_go"
)

// Detector runs a YOLOv8-style detection model through ONNX Runtime.
type Detector struct {
	config       *nn.ModelConfig
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	numAnchors   int

	// ONNX Runtime sessions are not safe for concurrent Run() calls on the
	// same tensors, so we serialize.
	runLock sync.Mutex
}

// NewDetector loads a YOLOv8 ONNX model. config describes the model input
// size and class vocabulary (the sidecar JSON saved next to the weights).
func NewDetector(modelPath string, config *nn.ModelConfig) (*Detector, error) {
	if err := statModel(modelPath); err != nil {
		return nil, err
	}
	if len(config.Classes) == 0 {
		return nil, fmt.Errorf("model config for %v has no classes", modelPath)
	}

	// YOLOv8 has a fixed anchor count of (w/8)^2 + (w/16)^2 + (w/32)^2 for
	// square inputs; 8400 for 640x640.
	numAnchors := (config.Width/8)*(config.Height/8) +
		(config.Width/16)*(config.Height/16) +
		(config.Width/32)*(config.Height/32)

	inputShape := ort.NewShape(1, 3, int64(config.Height), int64(config.Width))
	outputShape := ort.NewShape(1, int64(4+len(config.Classes)), int64(numAnchors))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"images"}, []string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session for %v: %w", modelPath, err)
	}

	return &Detector{
		config:       config,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		numAnchors:   numAnchors,
	}, nil
}

func (d *Detector) Close() {
	d.runLock.Lock()
	defer d.runLock.Unlock()
	if d.session != nil {
		d.session.Destroy()
		d.inputTensor.Destroy()
		d.outputTensor.Destroy()
		d.session = nil
	}
}

func (d *Detector) Config() *nn.ModelConfig {
	return d.config
}

// DetectObjects resizes the crop to the model input, runs inference, and
// returns thresholded+NMS'ed detections in crop coordinates.
func (d *Detector) DetectObjects(img nn.ImageCrop, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	d.runLock.Lock()
	defer d.runLock.Unlock()
	if d.session == nil {
		return nil, fmt.Errorf("detector is closed")
	}

	d.fillInput(img)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	scaleX := float32(img.CropWidth) / float32(d.config.Width)
	scaleY := float32(img.CropHeight) / float32(d.config.Height)
	raw := decodeYOLO(d.outputTensor.GetData(), len(d.config.Classes), d.numAnchors, scaleX, scaleY, params.ProbabilityThreshold)

	// Clip to the crop, and reject anything that degenerated to zero area
	frame := nn.MakeRect(0, 0, img.CropWidth, img.CropHeight)
	candidates := raw[:0]
	for _, obj := range raw {
		obj.Box = obj.Box.Intersection(frame)
		if obj.Box.IsValid() {
			candidates = append(candidates, obj)
		}
	}

	boxes := make([]nn.Rect, len(candidates))
	scores := make([]float32, len(candidates))
	for i, obj := range candidates {
		boxes[i] = obj.Box
		scores[i] = obj.Confidence
	}
	keep := nn.NonMaxSuppression(boxes, scores, params.NmsIouThreshold)

	result := make([]nn.ObjectDetection, 0, len(keep))
	for _, i := range keep {
		result = append(result, candidates[i])
	}
	return result, nil
}

// fillInput resizes the crop to the model input size (plain stretch, the way
// the model was exported), and writes unit-range CHW floats into the tensor.
func (d *Detector) fillInput(img nn.ImageCrop) {
	src := cropToImage(img)
	if src.Width != d.config.Width || src.Height != d.config.Height {
		src = cimg.ResizeNew(src, d.config.Width, d.config.Height, &cimg.ResizeParams{Filter: cimg.ResizeFilterBox, CheapSRGBFilter: true})
	}
	data := d.inputTensor.GetData()
	channelSize := d.config.Width * d.config.Height
	for y := 0; y < src.Height; y++ {
		row := src.Pixels[y*src.Stride:]
		for x := 0; x < src.Width; x++ {
			idx := y*d.config.Width + x
			data[idx] = float32(row[x*3]) / 255
			data[channelSize+idx] = float32(row[x*3+1]) / 255
			data[2*channelSize+idx] = float32(row[x*3+2]) / 255
		}
	}
}

// cropToImage returns a contiguous cimg.Image of the crop contents.
func cropToImage(img nn.ImageCrop) *cimg.Image {
	if img.CropX == 0 && img.CropY == 0 && img.CropWidth == img.ImageWidth && img.CropHeight == img.ImageHeight {
		return cimg.WrapImage(img.ImageWidth, img.ImageHeight, cimg.PixelFormatRGB, img.Pixels)
	}
	out := cimg.NewImage(img.CropWidth, img.CropHeight, cimg.PixelFormatRGB)
	srcStride := img.Stride()
	for y := 0; y < img.CropHeight; y++ {
		srcRow := (img.CropY+y)*srcStride + img.CropX*img.NChan
		copy(out.Pixels[y*out.Stride:y*out.Stride+img.CropWidth*img.NChan], img.Pixels[srcRow:srcRow+img.CropWidth*img.NChan])
	}
	return out
}
