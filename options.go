package taskmeta

import (
	"github.com/gometa/taskmeta/datasets"
	"github.com/gometa/taskmeta/transforms"
)

type config struct {
	shuffle   bool
	testShots int
	seed      *int64

	numSamplesPerClass int
	numClassesPerTask  int

	transform             transforms.Transform
	targetTransform       transforms.TargetTransform
	classAugmentations    []transforms.ClassAugmentation
	hasClassAugmentations bool

	datasetOptions []datasets.Option
}

func defaultConfig() config {
	return config{shuffle: true}
}

// Option configures a task source constructor.
type Option func(*config)

// WithShuffle controls whether examples are shuffled when episodes are
// assembled. Defaults to true.
func WithShuffle(shuffle bool) Option {
	return func(c *config) {
		c.shuffle = shuffle
	}
}

// WithTestShots sets the number of test examples per class in each task.
// When absent, the test count equals the training shot count.
func WithTestShots(testShots int) Option {
	return func(c *config) {
		c.testShots = testShots
	}
}

// WithSeed fixes the pseudo-random sequence of the task source. Without it
// episodes are sampled non-deterministically.
func WithSeed(seed int64) Option {
	return func(c *config) {
		s := seed
		c.seed = &s
	}
}

// WithNumSamplesPerClass switches the task source to the uniform split
// policy: every class contributes exactly n examples and no train/test
// distinction is made. The shot counts are ignored by the splitter.
func WithNumSamplesPerClass(n int) Option {
	return func(c *config) {
		c.numSamplesPerClass = n
	}
}

// WithNumClassesPerTask is the legacy way of setting the way count. When
// supplied together with the ways argument it wins, and a warning is logged.
// Note the default label encoder is still sized from the ways argument, so a
// legacy value larger than ways makes the default encoder overflow when a
// task is materialized; size an explicit encoder with WithTargetTransform if
// you rely on this option.
func WithNumClassesPerTask(n int) Option {
	return func(c *config) {
		c.numClassesPerTask = n
	}
}

// WithTransform overrides the identity's default transform pipeline.
func WithTransform(t transforms.Transform) Option {
	return func(c *config) {
		c.transform = t
	}
}

// WithTargetTransform overrides the default categorical label encoder.
func WithTargetTransform(t transforms.TargetTransform) Option {
	return func(c *config) {
		c.targetTransform = t
	}
}

// WithClassAugmentations overrides the identity's default class
// augmentations. Passing none disables them entirely.
func WithClassAugmentations(augmentations ...transforms.ClassAugmentation) Option {
	return func(c *config) {
		c.classAugmentations = augmentations
		c.hasClassAugmentations = true
	}
}

// WithDatasetOptions forwards extra options to the dataset constructor, for
// settings the resolver does not model itself (file extensions and the
// like).
func WithDatasetOptions(opts ...datasets.Option) Option {
	return func(c *config) {
		c.datasetOptions = append(c.datasetOptions, opts...)
	}
}
