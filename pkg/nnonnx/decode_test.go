package nnonnx

import (
	"testing"

	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/stretchr/testify/require"
)

// Build a [4+numClasses, numAnchors] tensor with a single confident anchor
func makeTensor(numClasses, numAnchors, anchor, class int, cx, cy, w, h, score float32) []float32 {
	data := make([]float32, (4+numClasses)*numAnchors)
	data[anchor] = cx
	data[numAnchors+anchor] = cy
	data[2*numAnchors+anchor] = w
	data[3*numAnchors+anchor] = h
	data[(4+class)*numAnchors+anchor] = score
	return data
}

func TestDecodeYOLO(t *testing.T) {
	numClasses := 5
	numAnchors := 100
	data := makeTensor(numClasses, numAnchors, 7, 2, 320, 160, 100, 40, 0.85)

	out := decodeYOLO(data, numClasses, numAnchors, 1, 1, 0.5)
	require.Len(t, out, 1)
	require.Equal(t, 2, out[0].Class)
	require.Equal(t, float32(0.85), out[0].Confidence)
	require.Equal(t, nn.MakeRect(270, 140, 370, 180), out[0].Box)

	// Scaled back to a 1280x960 frame from a 640x640 model input
	out = decodeYOLO(data, numClasses, numAnchors, 2, 1.5, 0.5)
	require.Equal(t, nn.MakeRect(540, 210, 740, 270), out[0].Box)
}

func TestDecodeYOLOThreshold(t *testing.T) {
	numClasses := 3
	numAnchors := 10
	data := makeTensor(numClasses, numAnchors, 0, 1, 50, 50, 20, 20, 0.5)

	// Score exactly at the threshold survives
	require.Len(t, decodeYOLO(data, numClasses, numAnchors, 1, 1, 0.5), 1)
	// Just above the score it is dropped
	require.Empty(t, decodeYOLO(data, numClasses, numAnchors, 1, 1, 0.500001))
}
