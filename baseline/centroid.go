// Package baseline implements a nearest-centroid classifier over few-shot
// episodes. It is deliberately dependency-light and deterministic so it can
// serve as a reference point for models trained on the same task sources,
// and as a fast end-to-end exercise of the library in tests and the CLI.
package baseline

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/gometa/taskmeta/tasks"
)

// centroids holds one mean feature vector per class label.
type centroids struct {
	byLabel map[int][]float32
	dim     int
}

// fit averages the training split's samples per class.
func fit(train *tasks.Task) (*centroids, error) {
	if train == nil || train.NumSamples() == 0 {
		return nil, errors.New("episode has no training samples")
	}
	c := &centroids{byLabel: make(map[int][]float32, train.NumClasses())}
	for _, cl := range train.Classes {
		if len(cl.Samples) == 0 {
			return nil, errors.Errorf("class %q has no training samples", cl.Name)
		}
		var mean []float32
		for _, sample := range cl.Samples {
			if !sample.HasData() {
				return nil, errors.Errorf("class %q: sample was not converted with ToTensor", cl.Name)
			}
			if mean == nil {
				mean = make([]float32, len(sample.Data))
			} else if len(sample.Data) != len(mean) {
				return nil, errors.Errorf("class %q: inconsistent sample dimensions", cl.Name)
			}
			for i, v := range sample.Data {
				mean[i] += v
			}
		}
		inv := 1 / float32(len(cl.Samples))
		for i := range mean {
			mean[i] *= inv
		}
		if c.dim == 0 {
			c.dim = len(mean)
		} else if len(mean) != c.dim {
			return nil, errors.Errorf("class %q: inconsistent centroid dimensions", cl.Name)
		}
		c.byLabel[cl.Label] = mean
	}
	return c, nil
}

// classify returns the label of the closest centroid by squared euclidean
// distance.
func (c *centroids) classify(data []float32) (int, error) {
	if len(data) != c.dim {
		return 0, errors.Errorf("sample has dimension %d, centroids have %d", len(data), c.dim)
	}
	best := 0
	bestDist := math32.Inf(1)
	for label, mean := range c.byLabel {
		var dist float32
		for i, v := range data {
			d := v - mean[i]
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = label
		}
	}
	return best, nil
}

// EvaluateEpisode fits centroids on the episode's training split and returns
// the classification accuracy on its test split.
func EvaluateEpisode(episode *tasks.Episode) (float64, error) {
	if episode.Test == nil {
		return 0, errors.New("episode has no test split; the uniform split policy cannot be evaluated")
	}
	c, err := fit(episode.Train)
	if err != nil {
		return 0, err
	}
	correct, total := 0, 0
	for _, cl := range episode.Test.Classes {
		for _, sample := range cl.Samples {
			predicted, err := c.classify(sample.Data)
			if err != nil {
				return 0, errors.Wrapf(err, "class %q", cl.Name)
			}
			if predicted == cl.Label {
				correct++
			}
			total++
		}
	}
	if total == 0 {
		return 0, errors.New("episode has no test samples")
	}
	return float64(correct) / float64(total), nil
}

// Result summarizes an evaluation run.
type Result struct {
	Episodes     int
	MeanAccuracy float64
}

// Evaluator runs the nearest-centroid baseline over a number of episodes
// drawn from a task source.
type Evaluator struct {
	// Episodes to draw. Defaults to 100 when zero.
	Episodes int
}

// Run samples episodes from the source and averages their accuracies.
func (e *Evaluator) Run(source *tasks.ClassSplitter) (*Result, error) {
	episodes := e.Episodes
	if episodes <= 0 {
		episodes = 100
	}
	var sum float64
	for i := 0; i < episodes; i++ {
		episode, err := source.Sample()
		if err != nil {
			return nil, errors.Wrapf(err, "episode %d", i)
		}
		accuracy, err := EvaluateEpisode(episode)
		if err != nil {
			return nil, errors.Wrapf(err, "episode %d", i)
		}
		sum += accuracy
	}
	return &Result{Episodes: episodes, MeanAccuracy: sum / float64(episodes)}, nil
}
