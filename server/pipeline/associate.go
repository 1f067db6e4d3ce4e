package pipeline

import (
	flatbush "github.com/bmharper/flatbush-go"
)

// A closure must overlap a container by at least this IoU to be paired with it
const minAssociationIoU = 0.05

// associateClosures pairs each closure detection with the best-overlapping
// container, writing the container index into Detection.Container (-1 when no
// container overlaps enough). A spatial index keeps this from being O(N^2)
// when a frame is crowded.
func associateClosures(containers, closures []Detection) {
	if len(containers) == 0 || len(closures) == 0 {
		return
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(containers))
	for _, c := range containers {
		fb.Add(int32(c.Box.X1), int32(c.Box.Y1), int32(c.Box.X2), int32(c.Box.Y2))
	}
	fb.Finish()

	for i := range closures {
		closures[i].Container = -1
		bestIoU := float32(minAssociationIoU)
		box := closures[i].Box
		// Search returns the Add-order indices of the hits
		for _, j := range fb.Search(int32(box.X1), int32(box.Y1), int32(box.X2), int32(box.Y2)) {
			iou := box.IOU(containers[j].Box)
			if iou >= bestIoU {
				bestIoU = iou
				closures[i].Container = j
			}
		}
	}
}
