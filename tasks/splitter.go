package tasks

import (
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"github.com/gometa/taskmeta/datasets"
)

// ClassSplitter samples tasks from a MetaDataset and splits each class's
// examples according to its policy: either distinct train/test shot counts,
// or a single uniform per-class count. A freshly constructed splitter is
// seeded from the clock; call Seed for reproducible episodes.
type ClassSplitter struct {
	ds      *datasets.MetaDataset
	shuffle bool

	// Exactly one policy is active: numSamplesPerClass > 0 selects the
	// uniform policy and numTrain/numTest are ignored.
	numTrain           int
	numTest            int
	numSamplesPerClass int

	rng *rand.Rand
}

// NewClassSplitter creates a splitter producing episodes with numTrain
// training and numTest test examples per class.
func NewClassSplitter(ds *datasets.MetaDataset, numTrain, numTest int, shuffle bool) *ClassSplitter {
	return &ClassSplitter{
		ds:       ds,
		shuffle:  shuffle,
		numTrain: numTrain,
		numTest:  numTest,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewUniformSplitter creates a splitter producing episodes with a single
// split of numSamplesPerClass examples per class.
func NewUniformSplitter(ds *datasets.MetaDataset, numSamplesPerClass int, shuffle bool) *ClassSplitter {
	return &ClassSplitter{
		ds:                 ds,
		shuffle:            shuffle,
		numSamplesPerClass: numSamplesPerClass,
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed fixes the pseudo-random sequence governing task sampling and example
// shuffling.
func (s *ClassSplitter) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// Dataset returns the underlying MetaDataset.
func (s *ClassSplitter) Dataset() *datasets.MetaDataset {
	return s.ds
}

// Uniform reports whether the uniform split policy is active.
func (s *ClassSplitter) Uniform() bool {
	return s.numSamplesPerClass > 0
}

// Shots returns the active per-class counts: (train, test) under the
// train/test policy, (n, 0) under the uniform one.
func (s *ClassSplitter) Shots() (int, int) {
	if s.Uniform() {
		return s.numSamplesPerClass, 0
	}
	return s.numTrain, s.numTest
}

// Sample draws one episode: it picks the task's classes, selects per-class
// example indices (shuffled when the splitter was built with shuffle), loads
// only those examples, and labels them with the dataset's target transform.
func (s *ClassSplitter) Sample() (*Episode, error) {
	needed := s.numSamplesPerClass
	if !s.Uniform() {
		if s.numTrain < 1 || s.numTest < 1 {
			return nil, errors.Errorf(
				"split policy requires positive shot counts, got train=%d test=%d",
				s.numTrain, s.numTest)
		}
		needed = s.numTrain + s.numTest
	} else if s.numSamplesPerClass < 1 {
		return nil, errors.Errorf(
			"uniform split policy requires a positive per-class count, got %d",
			s.numSamplesPerClass)
	}

	ways := s.ds.NumClassesPerTask()
	picked := s.rng.Perm(s.ds.NumCandidates())[:ways]

	encoder := s.ds.TargetTransform()
	if encoder != nil {
		encoder.Reset()
	}

	episode := &Episode{Train: &Task{Classes: make([]TaskClass, 0, ways)}}
	if !s.Uniform() {
		episode.Test = &Task{Classes: make([]TaskClass, 0, ways)}
	}
	for position, cand := range picked {
		available := s.ds.NumSamples(cand)
		name := s.ds.CandidateName(cand)
		if available < needed {
			return nil, errors.Errorf(
				"class %q has %d samples, task needs %d per class", name, available, needed)
		}

		var order []int
		if s.shuffle {
			order = s.rng.Perm(available)[:needed]
		} else {
			order = make([]int, needed)
			for i := range order {
				order[i] = i
			}
		}

		label := position
		if encoder != nil {
			var err error
			label, err = encoder.Transform(name)
			if err != nil {
				return nil, err
			}
		}

		if s.Uniform() {
			samples, err := s.ds.LoadSamples(cand, order)
			if err != nil {
				return nil, err
			}
			episode.Train.Classes = append(episode.Train.Classes, TaskClass{
				Name: name, Label: label, Samples: samples,
			})
			continue
		}

		train, err := s.ds.LoadSamples(cand, order[:s.numTrain])
		if err != nil {
			return nil, err
		}
		test, err := s.ds.LoadSamples(cand, order[s.numTrain:])
		if err != nil {
			return nil, err
		}
		episode.Train.Classes = append(episode.Train.Classes, TaskClass{
			Name: name, Label: label, Samples: train,
		})
		episode.Test.Classes = append(episode.Test.Classes, TaskClass{
			Name: name, Label: label, Samples: test,
		})
	}
	return episode, nil
}

// Episodes draws n episodes.
func (s *ClassSplitter) Episodes(n int) ([]*Episode, error) {
	episodes := make([]*Episode, 0, n)
	for i := 0; i < n; i++ {
		episode, err := s.Sample()
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, nil
}

// Name returns the underlying dataset name.
func (s *ClassSplitter) Name() string {
	return s.ds.Name()
}

// Yield samples an episode and returns its training split as stacked gomlx
// tensors, matching the train.Dataset calling convention so a splitter can
// drive a gomlx training loop directly. The episode never ends on its own:
// task sources are effectively infinite.
func (s *ClassSplitter) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	episode, err := s.Sample()
	if err != nil {
		return nil, nil, nil, err
	}
	in, lab, err := episode.Train.Tensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return s, []*tensors.Tensor{in}, []*tensors.Tensor{lab}, nil
}

// Reset is a no-op; episodes are sampled independently.
func (s *ClassSplitter) Reset() {}
