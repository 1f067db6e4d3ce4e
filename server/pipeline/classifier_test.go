package pipeline

import (
	"testing"

	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

var testBrands = []string{"acme", "bravo", "cosmo"}

func TestClassifyPicksArgmax(t *testing.T) {
	backend := &fakeClassifier{probs: []float32{0.1, 0.7, 0.2}}
	c := NewBrandClassifier(logs.NewTestingLog(t), backend, testBrands)
	require.True(t, c.Available())

	result := c.Classify(testFrame(640, 480), nn.MakeRect(100, 100, 200, 200), DefaultConfig())
	require.NotNil(t, result)
	require.Equal(t, "bravo", result.Label)
	require.Equal(t, float32(0.7), result.Confidence)
}

func TestClassifyThresholdGate(t *testing.T) {
	backend := &fakeClassifier{probs: []float32{0.35, 0.33, 0.32}}
	c := NewBrandClassifier(logs.NewTestingLog(t), backend, testBrands)

	cfg := DefaultConfig() // brand threshold 0.4
	require.Nil(t, c.Classify(testFrame(640, 480), nn.MakeRect(100, 100, 200, 200), cfg))

	// Winner exactly at the threshold is kept
	backend.probs = []float32{0.4, 0.3, 0.3}
	result := c.Classify(testFrame(640, 480), nn.MakeRect(100, 100, 200, 200), cfg)
	require.NotNil(t, result)
	require.Equal(t, "acme", result.Label)
}

func TestClassifyDegraded(t *testing.T) {
	logger := logs.NewTestingLog(t)
	frame := testFrame(640, 480)
	box := nn.MakeRect(100, 100, 200, 200)

	noBackend := NewBrandClassifier(logger, nil, testBrands)
	require.False(t, noBackend.Available())
	require.Nil(t, noBackend.Classify(frame, box, DefaultConfig()))

	noLabels := NewBrandClassifier(logger, &fakeClassifier{probs: []float32{1}}, nil)
	require.False(t, noLabels.Available())
	require.Nil(t, noLabels.Classify(frame, box, DefaultConfig()))
}

func TestClassifyBackendError(t *testing.T) {
	backend := &fakeClassifier{err: errBackendDown}
	c := NewBrandClassifier(logs.NewTestingLog(t), backend, testBrands)
	require.Nil(t, c.Classify(testFrame(640, 480), nn.MakeRect(100, 100, 200, 200), DefaultConfig()))
	require.Equal(t, 1, backend.calls)
}

func TestClassifyDegenerateRegion(t *testing.T) {
	backend := &fakeClassifier{probs: []float32{1, 0, 0}}
	c := NewBrandClassifier(logs.NewTestingLog(t), backend, testBrands)

	// Box entirely outside the frame never reaches the backend
	require.Nil(t, c.Classify(testFrame(100, 100), nn.MakeRect(500, 500, 600, 600), DefaultConfig()))
	require.Equal(t, 0, backend.calls)
}
