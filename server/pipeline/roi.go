package pipeline

import (
	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/pkg/nn"
)

// Classifier input geometry
const (
	ClassifierInputWidth  = 224
	ClassifierInputHeight = 224

	// Fraction of box width/height added on each side before cropping,
	// so the classifier sees a little context around the object
	DefaultRegionPadding = 0.05
)

// ExtractRegion crops the box (grown by padding on each side, then clamped
// to the frame) and resizes it to the classifier input size with a box
// filter, which averages source pixels rather than point-sampling them.
// Returns nil if the clamped region has no area.
func ExtractRegion(frame *cimg.Image, box nn.Rect, padding float32) *cimg.Image {
	padW := int(float32(box.Width()) * padding)
	padH := int(float32(box.Height()) * padding)

	x1 := max(0, box.X1-padW)
	y1 := max(0, box.Y1-padH)
	x2 := min(frame.Width, box.X2+padW)
	y2 := min(frame.Height, box.Y2+padH)

	if x2 <= x1 || y2 <= y1 {
		return nil
	}

	crop := cimg.NewImage(x2-x1, y2-y1, cimg.PixelFormatRGB)
	nchan := frame.NChan()
	for y := y1; y < y2; y++ {
		src := y*frame.Stride + x1*nchan
		dst := (y - y1) * crop.Stride
		copy(crop.Pixels[dst:dst+(x2-x1)*nchan], frame.Pixels[src:src+(x2-x1)*nchan])
	}

	if crop.Width == ClassifierInputWidth && crop.Height == ClassifierInputHeight {
		return crop
	}
	return cimg.ResizeNew(crop, ClassifierInputWidth, ClassifierInputHeight,
		&cimg.ResizeParams{Filter: cimg.ResizeFilterBox, CheapSRGBFilter: true})
}

// NormalizeRegion scales 8-bit pixels to unit-range floats (HWC layout)
func NormalizeRegion(img *cimg.Image) nn.Region {
	nchan := img.NChan()
	data := make([]float32, img.Width*img.Height*nchan)
	i := 0
	for y := 0; y < img.Height; y++ {
		row := img.Pixels[y*img.Stride : y*img.Stride+img.Width*nchan]
		for _, p := range row {
			data[i] = float32(p) / 255
			i++
		}
	}
	return nn.Region{
		Width:  img.Width,
		Height: img.Height,
		NChan:  nchan,
		Data:   data,
	}
}
