package transforms

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ClassAugmentation is a label-preserving image transformation that expands
// the pool of distinct classes: every variant of every class becomes an
// additional candidate class for task sampling.
type ClassAugmentation interface {
	// Variants returns how many additional classes this augmentation
	// derives from each base class.
	Variants() int
	// Apply transforms an image of the base class into the given variant.
	Apply(variant int, img image.Image) image.Image
	// Name returns a suffix identifying the variant, appended to the base
	// class name to form the augmented class identifier.
	Name(variant int) string
}

// Rotation derives one class variant per angle, in degrees. Quarter turns
// rotate losslessly; other angles interpolate with a black background.
type Rotation struct {
	angles []float64
}

// NewRotation creates a rotation augmentation over the given angles.
func NewRotation(angles ...float64) *Rotation {
	return &Rotation{angles: angles}
}

// Variants implements ClassAugmentation.
func (r *Rotation) Variants() int {
	return len(r.angles)
}

// Apply implements ClassAugmentation.
func (r *Rotation) Apply(variant int, img image.Image) image.Image {
	switch r.angles[variant] {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return imaging.Rotate(img, r.angles[variant], color.NRGBA{A: 255})
	}
}

// Name implements ClassAugmentation.
func (r *Rotation) Name(variant int) string {
	return fmt.Sprintf("rot%g", r.angles[variant])
}

func (r *Rotation) String() string {
	return fmt.Sprintf("Rotation(%v)", r.angles)
}
