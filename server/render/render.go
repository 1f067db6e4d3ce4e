// Package render draws pipeline results onto frames, for snapshots and for
// eyeballing what the models are doing.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bmharper/cimg/v2"
	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

var categoryColors = map[string]color.RGBA{
	pipeline.CategoryContainer:      {0, 200, 80, 255},
	pipeline.CategoryWithClosure:    {40, 120, 255, 255},
	pipeline.CategoryWithoutClosure: {255, 170, 0, 255},
	pipeline.CategoryBroken:         {230, 40, 40, 255},
	pipeline.CategoryUnknown:        {160, 160, 160, 255},
}

func categoryColor(category string) color.RGBA {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return categoryColors[pipeline.CategoryUnknown]
}

// Annotate draws every detection from result onto a copy of frame.
// The frame itself is not modified.
func Annotate(frame *cimg.Image, result *pipeline.FrameResult) *image.RGBA {
	dc := gg.NewContextForRGBA(toRGBA(frame))
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 14}))

	for _, d := range result.Containers {
		drawDetection(dc, d)
	}
	for _, d := range result.Closures {
		drawDetection(dc, d)
	}
	return dc.Image().(*image.RGBA)
}

func drawDetection(dc *gg.Context, d pipeline.Detection) {
	c := categoryColor(d.Category)
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(d.Box.X1), float64(d.Box.Y1), float64(d.Box.Width()), float64(d.Box.Height()))
	dc.Stroke()

	label := fmt.Sprintf("%v %.2f", d.Category, d.Confidence)
	if d.Brand != nil {
		label = fmt.Sprintf("%v %v %.2f", d.Category, d.Brand.Label, d.Confidence)
	}
	y := float64(d.Box.Y1) - 4
	if y < 14 {
		y = float64(d.Box.Y2) + 16
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(label, float64(d.Box.X1), y, 0, 0)
}

// toRGBA expands a packed RGB frame into the RGBA layout that gg draws on
func toRGBA(frame *cimg.Image) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	nchan := frame.NChan()
	for y := 0; y < frame.Height; y++ {
		src := frame.Pixels[y*frame.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < frame.Width; x++ {
			dst[x*4] = src[x*nchan]
			dst[x*4+1] = src[x*nchan+1]
			dst[x*4+2] = src[x*nchan+2]
			dst[x*4+3] = 255
		}
	}
	return out
}
