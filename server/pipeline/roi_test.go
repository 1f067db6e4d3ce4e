package pipeline

import (
	"testing"

	"github.com/capwatch/capwatch/pkg/nn"
	"github.com/stretchr/testify/require"
)

func TestExtractRegionPadding(t *testing.T) {
	frame := testFrame(100, 100)
	region := ExtractRegion(frame, nn.MakeRect(10, 10, 20, 20), 0.1)
	require.NotNil(t, region)
	require.Equal(t, ClassifierInputWidth, region.Width)
	require.Equal(t, ClassifierInputHeight, region.Height)
}

func TestExtractRegionClamped(t *testing.T) {
	// A box mostly off-frame, but with some area inside, still yields a region
	frame := testFrame(100, 100)
	region := ExtractRegion(frame, nn.MakeRect(-5, -5, 2, 2), DefaultRegionPadding)
	require.NotNil(t, region)
	require.Equal(t, ClassifierInputWidth, region.Width)
	require.Equal(t, ClassifierInputHeight, region.Height)
}

func TestExtractRegionOutsideFrame(t *testing.T) {
	frame := testFrame(100, 100)
	require.Nil(t, ExtractRegion(frame, nn.MakeRect(200, 200, 250, 250), DefaultRegionPadding))
	require.Nil(t, ExtractRegion(frame, nn.MakeRect(-50, -50, -10, -10), DefaultRegionPadding))
}

func TestExtractRegionPixels(t *testing.T) {
	// Fill the crop area with a solid color, and verify the extracted region
	// is that color (the box filter can't change a constant signal)
	frame := testFrame(300, 300)
	for y := 50; y < 100; y++ {
		for x := 50; x < 100; x++ {
			i := y*frame.Stride + x*3
			frame.Pixels[i] = 200
			frame.Pixels[i+1] = 100
			frame.Pixels[i+2] = 50
		}
	}
	region := ExtractRegion(frame, nn.MakeRect(50, 50, 100, 100), 0)
	require.NotNil(t, region)
	mid := (ClassifierInputHeight/2)*region.Stride + (ClassifierInputWidth/2)*3
	require.InDelta(t, 200, int(region.Pixels[mid]), 2)
	require.InDelta(t, 100, int(region.Pixels[mid+1]), 2)
	require.InDelta(t, 50, int(region.Pixels[mid+2]), 2)
}

func TestNormalizeRegion(t *testing.T) {
	img := testFrame(2, 2)
	for i := range img.Pixels {
		img.Pixels[i] = 255
	}
	img.Pixels[0] = 0
	img.Pixels[1] = 127

	region := NormalizeRegion(img)
	require.Equal(t, 2, region.Width)
	require.Equal(t, 2, region.Height)
	require.Equal(t, 3, region.NChan)
	require.Len(t, region.Data, 12)
	require.Equal(t, float32(0), region.Data[0])
	require.InDelta(t, 127.0/255.0, region.Data[1], 1e-6)
	require.Equal(t, float32(1), region.Data[2])
	for _, v := range region.Data {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}
