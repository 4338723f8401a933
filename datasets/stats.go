package datasets

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/gometa/taskmeta/transforms"
)

// Stats holds per-channel pixel statistics over a sample of the dataset,
// computed on raw [0, 1] pixel values before any configured transform.
// Useful for deriving Normalize constants.
type Stats struct {
	Mean   []float32
	Std    []float32
	Images int
}

// Statistics decodes up to maxImages images, spread over the base classes,
// and accumulates per-channel mean and standard deviation. All sampled
// images must agree on their channel count.
func (m *MetaDataset) Statistics(maxImages int) (*Stats, error) {
	if maxImages < 1 {
		return nil, errors.Errorf("maxImages must be positive, got %d", maxImages)
	}

	perClass := maxImages / len(m.classes)
	if perClass < 1 {
		perClass = 1
	}

	toTensor := transforms.ToTensor()
	var sum, sumSq []float64
	channels, count, pixels := 0, 0, 0
	for _, cl := range m.classes {
		for i := 0; i < perClass && i < len(cl.paths); i++ {
			if count >= maxImages {
				break
			}
			img, err := decodeImage(cl.paths[i])
			if err != nil {
				return nil, errors.Wrapf(err, "class %q", cl.name)
			}
			sample := transforms.NewSample(img)
			if err := toTensor.Transform(sample); err != nil {
				return nil, err
			}
			if channels == 0 {
				channels = sample.Channels
				sum = make([]float64, channels)
				sumSq = make([]float64, channels)
			} else if sample.Channels != channels {
				return nil, errors.Errorf(
					"class %q: image has %d channels, earlier images had %d",
					cl.name, sample.Channels, channels)
			}
			plane := sample.Height * sample.Width
			for c := 0; c < channels; c++ {
				for _, v := range sample.Data[c*plane : (c+1)*plane] {
					sum[c] += float64(v)
					sumSq[c] += float64(v) * float64(v)
				}
			}
			pixels += plane
			count++
		}
	}
	if count == 0 {
		return nil, errors.New("no images available for statistics")
	}

	stats := &Stats{
		Mean:   make([]float32, channels),
		Std:    make([]float32, channels),
		Images: count,
	}
	for c := 0; c < channels; c++ {
		mean := float32(sum[c] / float64(pixels))
		variance := float32(sumSq[c]/float64(pixels)) - mean*mean
		if variance < 0 {
			variance = 0
		}
		stats.Mean[c] = mean
		stats.Std[c] = math32.Sqrt(variance)
	}
	return stats, nil
}
