package nnonnx

import (
	"fmt"
	"sync"

	"github.com/capwatch/capwatch/pkg/nn"
	ort "github.com/yalue/onnxruntime_go"
)

// Classifier runs a softmax image classification model (eg a ResNet export)
// through ONNX Runtime.
type Classifier struct {
	config       *nn.ModelConfig
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	runLock sync.Mutex
}

func NewClassifier(modelPath string, config *nn.ModelConfig) (*Classifier, error) {
	if err := statModel(modelPath); err != nil {
		return nil, err
	}
	if len(config.Classes) == 0 {
		return nil, fmt.Errorf("model config for %v has no classes", modelPath)
	}

	inputShape := ort.NewShape(1, 3, int64(config.Height), int64(config.Width))
	outputShape := ort.NewShape(1, int64(len(config.Classes)))

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
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session for %v: %w", modelPath, err)
	}

	return &Classifier{
		config:       config,
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (c *Classifier) Close() {
	c.runLock.Lock()
	defer c.runLock.Unlock()
	if c.session != nil {
		c.session.Destroy()
		c.inputTensor.Destroy()
		c.outputTensor.Destroy()
		c.session = nil
	}
}

func (c *Classifier) Config() *nn.ModelConfig {
	return c.config
}

// ClassProbabilities runs the model on a preprocessed region.
// The region must already be the model input size, unit-range, HWC.
// The model is expected to end in a softmax, so outputs are probabilities.
func (c *Classifier) ClassProbabilities(region nn.Region) ([]float32, error) {
	c.runLock.Lock()
	defer c.runLock.Unlock()
	if c.session == nil {
		return nil, fmt.Errorf("classifier is closed")
	}
	if region.Width != c.config.Width || region.Height != c.config.Height || region.NChan != 3 {
		return nil, fmt.Errorf("region is %vx%vx%v, model wants %vx%vx3",
			region.Width, region.Height, region.NChan, c.config.Width, c.config.Height)
	}

	// HWC -> CHW
	data := c.inputTensor.GetData()
	channelSize := region.Width * region.Height
	for i := 0; i < channelSize; i++ {
		data[i] = region.Data[i*3]
		data[channelSize+i] = region.Data[i*3+1]
		data[2*channelSize+i] = region.Data[i*3+2]
	}

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	out := make([]float32, len(c.config.Classes))
	copy(out, c.outputTensor.GetData())
	return out, nil
}
