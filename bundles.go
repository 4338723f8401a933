package taskmeta

import "github.com/gometa/taskmeta/transforms"

// identity names one dataset variant with registered defaults.
type identity int

const (
	omniglotID identity = iota
	omniglotNormID
	omniglotRGB84x84ID
	omniglotRGB84x84NormID
	miniImagenetID
	miniImagenetNormID
	tieredImagenetID
	cifarFSID
	fc100ID
	fc100NormID
	cubID
	doubleMNISTID
	tripleMNISTID
)

// Bundle is the default configuration registered for one dataset identity.
// Transform and ClassAugmentations are builders so every call gets fresh
// values; a nil builder means the identity registers no default for that
// option and the generic fallback applies.
type Bundle struct {
	// Folder is the dataset directory name under the caller's root folder.
	Folder string

	Transform          func() transforms.Transform
	TargetTransform    func(ways int) transforms.TargetTransform
	ClassAugmentations func() []transforms.ClassAugmentation
}

func omniglotRotations() []transforms.ClassAugmentation {
	return []transforms.ClassAugmentation{transforms.NewRotation(90, 180, 270)}
}

// Normalization constants carried over from the reference datasets:
// single-channel omniglot statistics and the usual ImageNet / CIFAR values.
var (
	omniglotMean = []float32{0.922}
	omniglotStd  = []float32{0.084}

	omniglotRGBMean = []float32{0.922, 0.922, 0.922}
	omniglotRGBStd  = []float32{0.084, 0.084, 0.084}

	miniImagenetMean = []float32{0.485, 0.456, 0.406}
	miniImagenetStd  = []float32{0.229, 0.224, 0.225}

	fc100Mean = []float32{0.507, 0.487, 0.441}
	fc100Std  = []float32{0.267, 0.256, 0.276}
)

// bundles maps every dataset identity to its defaults. Identities sharing a
// folder (the two cifar100 splits, the omniglot variants) differ only in
// their registered pipeline.
var bundles = map[identity]Bundle{
	omniglotID: {
		Folder: "omniglot",
		Transform: func() transforms.Transform {
			return transforms.Compose(transforms.Resize(28), transforms.ToTensor())
		},
		ClassAugmentations: omniglotRotations,
	},
	omniglotNormID: {
		Folder: "omniglot",
		Transform: func() transforms.Transform {
			return transforms.Compose(
				transforms.Resize(28),
				transforms.ToTensor(),
				transforms.Normalize(omniglotMean, omniglotStd))
		},
		ClassAugmentations: omniglotRotations,
	},
	omniglotRGB84x84ID: {
		Folder: "omniglot",
		Transform: func() transforms.Transform {
			return transforms.Compose(
				transforms.Resize(84),
				transforms.ToTensor(),
				transforms.GrayToRGB())
		},
		ClassAugmentations: omniglotRotations,
	},
	omniglotRGB84x84NormID: {
		Folder: "omniglot",
		Transform: func() transforms.Transform {
			return transforms.Compose(
				transforms.Resize(84),
				transforms.ToTensor(),
				transforms.GrayToRGB(),
				transforms.Normalize(omniglotRGBMean, omniglotRGBStd))
		},
		ClassAugmentations: omniglotRotations,
	},
	miniImagenetID: {
		Folder: "miniimagenet",
		Transform: func() transforms.Transform {
			return transforms.Compose(transforms.Resize(84), transforms.ToTensor())
		},
	},
	miniImagenetNormID: {
		Folder: "miniimagenet",
		Transform: func() transforms.Transform {
			return transforms.Compose(
				transforms.Resize(84),
				transforms.ToTensor(),
				transforms.Normalize(miniImagenetMean, miniImagenetStd))
		},
	},
	tieredImagenetID: {
		Folder: "tieredimagenet",
		Transform: func() transforms.Transform {
			return transforms.Compose(transforms.Resize(84), transforms.ToTensor())
		},
	},
	cifarFSID: {
		Folder: "cifar100",
	},
	fc100ID: {
		Folder: "cifar100",
	},
	fc100NormID: {
		Folder: "cifar100",
		Transform: func() transforms.Transform {
			return transforms.Compose(
				transforms.ToTensor(),
				transforms.Normalize(fc100Mean, fc100Std))
		},
	},
	cubID: {
		Folder: "cub",
		Transform: func() transforms.Transform {
			// Resize to 1.5x the target then crop, keeping the bird centered.
			return transforms.Compose(
				transforms.Resize(126),
				transforms.CenterCrop(84),
				transforms.ToTensor())
		},
	},
	doubleMNISTID: {
		Folder: "doublemnist",
	},
	tripleMNISTID: {
		Folder: "triplemnist",
	},
}
