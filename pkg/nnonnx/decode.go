package nnonnx

import "github.com/capwatch/capwatch/pkg/nn"

// decodeYOLO converts a raw YOLOv8 output tensor into detections.
// The tensor layout is [1, 4+numClasses, numAnchors]: rows 0..3 are
// cx, cy, w, h in model input coordinates, followed by one row of scores
// per class. Boxes are scaled to image coordinates by scaleX/scaleY.
// Candidates whose best class score is below 'threshold' are dropped
// (a score exactly equal to the threshold survives).
func decodeYOLO(data []float32, numClasses, numAnchors int, scaleX, scaleY, threshold float32) []nn.ObjectDetection {
	out := []nn.ObjectDetection{}
	for a := 0; a < numAnchors; a++ {
		bestClass := 0
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*numAnchors+a]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestScore < threshold {
			continue
		}
		cx := data[a]
		cy := data[numAnchors+a]
		w := data[2*numAnchors+a]
		h := data[3*numAnchors+a]
		out = append(out, nn.ObjectDetection{
			Class:      bestClass,
			Confidence: bestScore,
			Box: nn.MakeRect(
				int((cx-w/2)*scaleX),
				int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX),
				int((cy+h/2)*scaleY),
			),
		})
	}
	return out
}
