// Package taskmeta builds few-shot task sources from on-disk image datasets.
//
// Each constructor covers one dataset identity: it merges caller options
// over the identity's registered defaults (transform pipeline, label
// encoder, class augmentations), opens the dataset below the given root
// folder, wraps it in a tasks.ClassSplitter with the requested shot counts,
// and applies the seed when one was supplied. The result samples N-way
// K-shot episodes and plugs directly into gomlx training loops via Yield.
//
//	source, err := taskmeta.Omniglot(root, 5, 5, taskmeta.WithSeed(1))
//	if err != nil { ... }
//	episode, err := source.Sample()
package taskmeta

import (
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gometa/taskmeta/datasets"
	"github.com/gometa/taskmeta/logging"
	"github.com/gometa/taskmeta/tasks"
	"github.com/gometa/taskmeta/transforms"
)

// newTaskSource resolves the configuration for one dataset identity and
// assembles the task source. Any option present in the caller's overrides
// wins over the identity's bundle; options absent from both fall back to
// ToTensor and a categorical encoder sized by ways.
func newTaskSource(id identity, folder string, shots, ways int, opts []Option) (*tasks.ClassSplitter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	bundle := bundles[id]

	// The legacy way-count option supersedes the ways argument. The default
	// encoder below is still sized from the original ways; see
	// WithNumClassesPerTask.
	originalWays := ways
	if cfg.numClassesPerTask > 0 {
		logging.Logger().Warn(
			"both the ways argument and the legacy classes-per-task option were set; ignoring ways",
			zap.Int("ways", ways),
			zap.Int("num_classes_per_task", cfg.numClassesPerTask))
		ways = cfg.numClassesPerTask
	}

	transform := cfg.transform
	if transform == nil {
		if bundle.Transform != nil {
			transform = bundle.Transform()
		} else {
			transform = transforms.ToTensor()
		}
	}

	targetTransform := cfg.targetTransform
	if targetTransform == nil {
		if bundle.TargetTransform != nil {
			targetTransform = bundle.TargetTransform(originalWays)
		} else {
			targetTransform = transforms.NewCategorical(originalWays)
		}
	}

	classAugmentations := cfg.classAugmentations
	if !cfg.hasClassAugmentations && bundle.ClassAugmentations != nil {
		classAugmentations = bundle.ClassAugmentations()
	}

	testShots := cfg.testShots
	if testShots == 0 {
		testShots = shots
	}

	dsOpts := append([]datasets.Option{
		datasets.WithTransform(transform),
		datasets.WithTargetTransform(targetTransform),
		datasets.WithClassAugmentations(classAugmentations...),
	}, cfg.datasetOptions...)
	ds, err := datasets.Open(filepath.Join(folder, bundle.Folder), ways, dsOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s dataset", bundle.Folder)
	}

	var source *tasks.ClassSplitter
	if cfg.numSamplesPerClass > 0 {
		source = tasks.NewUniformSplitter(ds, cfg.numSamplesPerClass, cfg.shuffle)
	} else {
		source = tasks.NewClassSplitter(ds, shots, testShots, cfg.shuffle)
	}
	if cfg.seed != nil {
		source.Seed(*cfg.seed)
	}
	return source, nil
}

// Omniglot returns a task source over the Omniglot dataset.
//
// folder is the root directory under which the dataset folder `omniglot`
// exists, laid out one directory per character class (alphabets may nest).
// shots is the number of training examples per class in each task (the K in
// K-shot) and ways the number of classes per task (the N in N-way).
//
// By default images are resized to 28x28, converted to tensors, and the
// class pool is augmented with 90/180/270 degree rotations.
func Omniglot(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(omniglotID, folder, shots, ways, opts)
}

// OmniglotNorm is Omniglot with the registered per-channel normalization
// appended to the default pipeline.
func OmniglotNorm(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(omniglotNormID, folder, shots, ways, opts)
}

// OmniglotRGB84x84 is Omniglot resized to 84x84 with the grayscale channel
// replicated to RGB, for models that expect three input channels.
func OmniglotRGB84x84(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(omniglotRGB84x84ID, folder, shots, ways, opts)
}

// OmniglotRGB84x84Norm is OmniglotRGB84x84 with normalization appended.
func OmniglotRGB84x84Norm(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(omniglotRGB84x84NormID, folder, shots, ways, opts)
}

// MiniImagenet returns a task source over the Mini-Imagenet dataset, found
// under the `miniimagenet` folder. Images are resized to 84x84 by default.
func MiniImagenet(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(miniImagenetID, folder, shots, ways, opts)
}

// MiniImagenetNorm is MiniImagenet with ImageNet normalization appended.
func MiniImagenetNorm(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(miniImagenetNormID, folder, shots, ways, opts)
}

// TieredImagenet returns a task source over the Tiered-Imagenet dataset,
// found under the `tieredimagenet` folder.
func TieredImagenet(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(tieredImagenetID, folder, shots, ways, opts)
}

// CIFARFS returns a task source over the CIFAR-FS dataset, found under the
// `cifar100` folder. No defaults beyond tensor conversion are registered.
func CIFARFS(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(cifarFSID, folder, shots, ways, opts)
}

// FC100 returns a task source over the FC100 dataset, found under the
// `cifar100` folder.
func FC100(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(fc100ID, folder, shots, ways, opts)
}

// FC100Norm is FC100 with the CIFAR normalization constants appended.
func FC100Norm(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(fc100NormID, folder, shots, ways, opts)
}

// CUB returns a task source over the Caltech-UCSD Birds dataset, found
// under the `cub` folder. Images are resized to 126 and center-cropped to
// 84 by default.
func CUB(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(cubID, folder, shots, ways, opts)
}

// DoubleMNIST returns a task source over the Double MNIST dataset, found
// under the `doublemnist` folder.
func DoubleMNIST(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(doubleMNISTID, folder, shots, ways, opts)
}

// TripleMNIST returns a task source over the Triple MNIST dataset, found
// under the `triplemnist` folder.
func TripleMNIST(folder string, shots, ways int, opts ...Option) (*tasks.ClassSplitter, error) {
	return newTaskSource(tripleMNISTID, folder, shots, ways, opts)
}
