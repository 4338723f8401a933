package transforms

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grayImage builds a width x height grayscale image filled with shade.
func grayImage(width, height int, shade uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	return img
}

func TestToTensorGray(t *testing.T) {
	sample := NewSample(grayImage(4, 3, 128))
	require.NoError(t, ToTensor().Transform(sample))

	assert.True(t, sample.HasData())
	assert.Nil(t, sample.Image)
	assert.Equal(t, 1, sample.Channels)
	assert.Equal(t, 3, sample.Height)
	assert.Equal(t, 4, sample.Width)
	require.Len(t, sample.Data, 12)
	for _, v := range sample.Data {
		assert.InDelta(t, 128.0/255.0, v, 1e-4)
	}
}

func TestToTensorColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	sample := NewSample(img)
	require.NoError(t, ToTensor().Transform(sample))

	assert.Equal(t, 3, sample.Channels)
	require.Len(t, sample.Data, 12)
	// CHW layout: red plane first.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1.0, sample.Data[i], 1e-4)
		assert.InDelta(t, 0.0, sample.Data[4+i], 1e-4)
		assert.InDelta(t, 0.0, sample.Data[8+i], 1e-4)
	}
}

func TestToTensorWithoutImage(t *testing.T) {
	sample := &Sample{}
	assert.Error(t, ToTensor().Transform(sample))
}

func TestResizeKeepsGrayChannel(t *testing.T) {
	// A non-uniform grayscale image stays single-channel through Resize,
	// even though the resampler promotes it to NRGBA internally.
	img := grayImage(8, 8, 30)
	img.Pix[0] = 200
	sample := NewSample(img)
	require.NoError(t, Compose(Resize(28), ToTensor()).Transform(sample))

	assert.Equal(t, 1, sample.Channels)
	assert.Equal(t, 28, sample.Height)
	assert.Equal(t, 28, sample.Width)
}

func TestResizeAfterToTensor(t *testing.T) {
	sample := NewSample(grayImage(4, 4, 0))
	require.NoError(t, ToTensor().Transform(sample))
	assert.Error(t, Resize(8).Transform(sample))
}

func TestCenterCrop(t *testing.T) {
	sample := NewSample(grayImage(10, 10, 77))
	require.NoError(t, Compose(CenterCrop(4), ToTensor()).Transform(sample))

	assert.Equal(t, 4, sample.Height)
	assert.Equal(t, 4, sample.Width)
}

func TestNormalize(t *testing.T) {
	sample := NewSample(grayImage(2, 2, 255))
	pipeline := Compose(ToTensor(), Normalize([]float32{0.5}, []float32{0.25}))
	require.NoError(t, pipeline.Transform(sample))

	for _, v := range sample.Data {
		assert.InDelta(t, 2.0, v, 1e-4) // (1.0 - 0.5) / 0.25
	}
}

func TestNormalizeChannelMismatch(t *testing.T) {
	sample := NewSample(grayImage(2, 2, 0))
	require.NoError(t, ToTensor().Transform(sample))
	err := Normalize([]float32{0.5, 0.5, 0.5}, []float32{1, 1, 1}).Transform(sample)
	assert.Error(t, err)
}

func TestNormalizeBeforeToTensor(t *testing.T) {
	sample := NewSample(grayImage(2, 2, 0))
	assert.Error(t, Normalize([]float32{0.5}, []float32{1}).Transform(sample))
}

func TestGrayToRGB(t *testing.T) {
	sample := NewSample(grayImage(2, 2, 128))
	require.NoError(t, Compose(ToTensor(), GrayToRGB()).Transform(sample))

	assert.Equal(t, 3, sample.Channels)
	require.Len(t, sample.Data, 12)
	for i := 0; i < 4; i++ {
		assert.Equal(t, sample.Data[i], sample.Data[4+i])
		assert.Equal(t, sample.Data[i], sample.Data[8+i])
	}
}

func TestGrayToRGBRejectsColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	sample := NewSample(img)
	require.NoError(t, ToTensor().Transform(sample))
	assert.Error(t, GrayToRGB().Transform(sample))
}

func TestFunc(t *testing.T) {
	called := false
	stage := Func("custom", func(s *Sample) error {
		called = true
		return nil
	})
	require.NoError(t, stage.Transform(NewSample(grayImage(1, 1, 0))))
	assert.True(t, called)
	assert.Equal(t, "custom", stage.String())
}

func TestComposeString(t *testing.T) {
	pipeline := Compose(Resize(28), ToTensor(), Normalize([]float32{0.922}, []float32{0.084}))
	assert.Equal(t, "Compose(Resize(28), ToTensor, Normalize(mean=[0.922], std=[0.084]))", pipeline.String())
}

func TestSampleTensor(t *testing.T) {
	sample := NewSample(grayImage(3, 2, 255))
	require.NoError(t, ToTensor().Transform(sample))

	tensor, err := sample.Tensor()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, tensor.Shape().Dimensions)
}

func TestSampleTensorBeforeToTensor(t *testing.T) {
	_, err := NewSample(grayImage(1, 1, 0)).Tensor()
	assert.Error(t, err)
}
