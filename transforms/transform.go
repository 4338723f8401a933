// Package transforms provides the image transform pipeline used to turn raw
// dataset images into float32 tensors, plus the categorical label encoder and
// the class augmentations that expand the pool of classes available for
// task sampling.
//
// A pipeline is an ordered list of Transform stages composed with Compose.
// Geometric stages (Resize, CenterCrop) operate on the decoded image; ToTensor
// converts it to a CHW float32 buffer scaled to [0, 1]; numeric stages
// (Normalize, GrayToRGB) operate on that buffer. Applying a stage at the
// wrong point of the pipeline is an error.
package transforms

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Sample carries a single example through the pipeline. Before ToTensor runs
// only Image is set; afterwards Image is released and Data holds the pixels
// in CHW order, scaled to [0, 1].
type Sample struct {
	Image image.Image

	Data     []float32
	Channels int
	Height   int
	Width    int
}

// NewSample wraps a decoded image.
func NewSample(img image.Image) *Sample {
	return &Sample{Image: img}
}

// HasData reports whether the sample has been converted to its numeric form.
func (s *Sample) HasData() bool {
	return s.Data != nil
}

// Tensor materializes the sample as a gomlx tensor shaped
// [channels, height, width].
func (s *Sample) Tensor() (*tensors.Tensor, error) {
	if !s.HasData() {
		return nil, errors.New("sample has not been converted with ToTensor")
	}
	t := tensors.FromShape(shapes.Make(dtypes.Float32, s.Channels, s.Height, s.Width))
	t.MutableFlatData(func(flat any) {
		copy(flat.([]float32), s.Data)
	})
	return t, nil
}

// Transform is one stage of the pipeline.
type Transform interface {
	Transform(s *Sample) error
	String() string
}

type compose struct {
	stages []Transform
}

// Compose chains transforms into a single one, applied in order.
func Compose(stages ...Transform) Transform {
	return &compose{stages: stages}
}

func (c *compose) Transform(s *Sample) error {
	for _, stage := range c.stages {
		if err := stage.Transform(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *compose) String() string {
	names := make([]string, len(c.stages))
	for i, stage := range c.stages {
		names[i] = stage.String()
	}
	return fmt.Sprintf("Compose(%s)", strings.Join(names, ", "))
}

type resize struct {
	size int
}

// Resize scales the image to size x size. Lanczos resampling, as everywhere
// else in this module.
func Resize(size int) Transform {
	return &resize{size: size}
}

func (r *resize) Transform(s *Sample) error {
	if s.Image == nil {
		return errors.Errorf("%s: sample already converted to tensor", r)
	}
	s.Image = imaging.Resize(s.Image, r.size, r.size, imaging.Lanczos)
	return nil
}

func (r *resize) String() string {
	return fmt.Sprintf("Resize(%d)", r.size)
}

type centerCrop struct {
	size int
}

// CenterCrop cuts a size x size region out of the middle of the image.
func CenterCrop(size int) Transform {
	return &centerCrop{size: size}
}

func (c *centerCrop) Transform(s *Sample) error {
	if s.Image == nil {
		return errors.Errorf("%s: sample already converted to tensor", c)
	}
	s.Image = imaging.CropCenter(s.Image, c.size, c.size)
	return nil
}

func (c *centerCrop) String() string {
	return fmt.Sprintf("CenterCrop(%d)", c.size)
}

type toTensor struct{}

// ToTensor converts the image to a CHW float32 buffer scaled to [0, 1] and
// releases the image. Images whose pixels are all gray (r == g == b) collapse
// to a single channel, so grayscale sources keep a single channel even after
// geometric stages promoted them to RGBA.
func ToTensor() Transform {
	return toTensor{}
}

func (toTensor) Transform(s *Sample) error {
	if s.Image == nil {
		return errors.New("ToTensor: sample has no image")
	}
	bounds := s.Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rgb := make([]float32, 3*height*width)
	gray := true
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := s.Image.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*width + x
			rgb[idx] = float32(r) / 65535.0
			rgb[plane+idx] = float32(g) / 65535.0
			rgb[2*plane+idx] = float32(b) / 65535.0
			if r != g || g != b {
				gray = false
			}
		}
	}

	if gray {
		s.Data = rgb[:plane:plane]
		s.Channels = 1
	} else {
		s.Data = rgb
		s.Channels = 3
	}
	s.Height = height
	s.Width = width
	s.Image = nil
	return nil
}

func (toTensor) String() string {
	return "ToTensor"
}

type normalize struct {
	mean []float32
	std  []float32
}

// Normalize shifts and scales each channel: (v - mean[c]) / std[c]. It must
// run after ToTensor, and mean/std must match the channel count.
func Normalize(mean, std []float32) Transform {
	return &normalize{mean: mean, std: std}
}

func (n *normalize) Transform(s *Sample) error {
	if !s.HasData() {
		return errors.Errorf("%s: must run after ToTensor", n)
	}
	if len(n.mean) != s.Channels || len(n.std) != s.Channels {
		return errors.Errorf("%s: sample has %d channels", n, s.Channels)
	}
	plane := s.Height * s.Width
	for c := 0; c < s.Channels; c++ {
		mean, std := n.mean[c], n.std[c]
		for i := c * plane; i < (c+1)*plane; i++ {
			s.Data[i] = (s.Data[i] - mean) / std
		}
	}
	return nil
}

func (n *normalize) String() string {
	return fmt.Sprintf("Normalize(mean=%v, std=%v)", n.mean, n.std)
}

type grayToRGB struct{}

// GrayToRGB replicates a single-channel tensor into three channels, the
// equivalent of repeating a grayscale plane into RGB. It must run after
// ToTensor on a single-channel sample.
func GrayToRGB() Transform {
	return grayToRGB{}
}

func (grayToRGB) Transform(s *Sample) error {
	if !s.HasData() {
		return errors.New("GrayToRGB: must run after ToTensor")
	}
	if s.Channels != 1 {
		return errors.Errorf("GrayToRGB: sample has %d channels, want 1", s.Channels)
	}
	plane := s.Height * s.Width
	data := make([]float32, 3*plane)
	copy(data, s.Data)
	copy(data[plane:], s.Data)
	copy(data[2*plane:], s.Data)
	s.Data = data
	s.Channels = 3
	return nil
}

func (grayToRGB) String() string {
	return "GrayToRGB"
}

type funcTransform struct {
	name string
	fn   func(*Sample) error
}

// Func wraps an arbitrary function as a pipeline stage. The escape hatch for
// callers whose preprocessing is not covered by the built-in stages.
func Func(name string, fn func(*Sample) error) Transform {
	return &funcTransform{name: name, fn: fn}
}

func (f *funcTransform) Transform(s *Sample) error {
	return f.fn(s)
}

func (f *funcTransform) String() string {
	return f.name
}
