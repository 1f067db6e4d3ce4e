package nn

import "sort"

// NonMaxSuppression returns the indices of the boxes that survive greedy NMS.
// Boxes are visited in descending score order (stable, so ties keep their
// original relative order). Each selected box suppresses every remaining box
// whose IOU with it is >= iouThreshold.
func NonMaxSuppression(boxes []Rect, scores []float32, iouThreshold float32) []int {
	if len(boxes) == 0 {
		return []int{}
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	keep := make([]int, 0, len(boxes))
	suppressed := make([]bool, len(boxes))
	for _, i := range order {
		if suppressed[i] {
			continue
		}
		keep = append(keep, i)
		for _, j := range order {
			if j != i && !suppressed[j] && boxes[i].IOU(boxes[j]) >= iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}
