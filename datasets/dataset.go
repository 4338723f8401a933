// Package datasets loads directory-per-class image datasets for few-shot
// task sampling.
//
// A dataset root is scanned once: every leaf directory that contains image
// files becomes a class (nested layouts such as omniglot's
// alphabet/character directories are handled by using the relative path as
// the class name). Only paths are indexed up front; images are decoded
// lazily, when a task is materialized, so large datasets stay cheap to open.
package datasets

import (
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/gometa/taskmeta/transforms"
)

var defaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

type config struct {
	extensions         []string
	transform          transforms.Transform
	targetTransform    transforms.TargetTransform
	classAugmentations []transforms.ClassAugmentation
}

// Option configures a MetaDataset.
type Option func(*config)

// WithExtensions overrides the image file extensions picked up by the scan.
func WithExtensions(extensions ...string) Option {
	return func(c *config) {
		c.extensions = extensions
	}
}

// WithTransform sets the transform pipeline applied to every loaded sample.
func WithTransform(t transforms.Transform) Option {
	return func(c *config) {
		c.transform = t
	}
}

// WithTargetTransform sets the label encoder applied when tasks are
// materialized.
func WithTargetTransform(t transforms.TargetTransform) Option {
	return func(c *config) {
		c.targetTransform = t
	}
}

// WithClassAugmentations expands the candidate class pool with the given
// augmentations.
func WithClassAugmentations(augmentations ...transforms.ClassAugmentation) Option {
	return func(c *config) {
		c.classAugmentations = augmentations
	}
}

type class struct {
	name  string
	paths []string
}

// candidate is one class available for task sampling: either a base class
// (aug == nil) or an augmented variant of one.
type candidate struct {
	classIdx int
	aug      transforms.ClassAugmentation
	variant  int
	name     string
}

// MetaDataset is an indexed directory-per-class dataset from which tasks of
// numClassesPerTask classes are sampled.
type MetaDataset struct {
	root              string
	numClassesPerTask int

	transform       transforms.Transform
	targetTransform transforms.TargetTransform

	classes    []class
	candidates []candidate
}

// Open scans root and builds the class index. It fails if the root does not
// exist, if no class directories with images are found, or if the candidate
// pool is smaller than numClassesPerTask.
func Open(root string, numClassesPerTask int, opts ...Option) (*MetaDataset, error) {
	if numClassesPerTask < 1 {
		return nil, errors.Errorf("number of classes per task must be positive, got %d", numClassesPerTask)
	}
	cfg := config{extensions: defaultExtensions}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset root %q", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("dataset root %q is not a directory", root)
	}

	classes, err := scanClasses(root, cfg.extensions)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, errors.Errorf("no class directories with images found under %q", root)
	}

	ds := &MetaDataset{
		root:              root,
		numClassesPerTask: numClassesPerTask,
		transform:         cfg.transform,
		targetTransform:   cfg.targetTransform,
		classes:           classes,
	}
	ds.buildCandidates(cfg.classAugmentations)

	if len(ds.candidates) < numClassesPerTask {
		return nil, errors.Errorf(
			"dataset %q has %d candidate classes, fewer than the %d classes per task",
			root, len(ds.candidates), numClassesPerTask)
	}
	return ds, nil
}

// scanClasses walks root and groups image files by their parent directory.
func scanClasses(root string, extensions []string) ([]class, error) {
	byDir := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !lo.Contains(extensions, ext) {
			return nil
		}
		byDir[filepath.Dir(path)] = append(byDir[filepath.Dir(path)], path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning dataset root %q", root)
	}

	dirs := lo.Keys(byDir)
	sort.Strings(dirs)
	classes := make([]class, 0, len(dirs))
	for _, dir := range dirs {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "class directory %q", dir)
		}
		paths := byDir[dir]
		sort.Strings(paths)
		classes = append(classes, class{
			name:  filepath.ToSlash(rel),
			paths: paths,
		})
	}
	return classes, nil
}

func (m *MetaDataset) buildCandidates(augmentations []transforms.ClassAugmentation) {
	m.candidates = make([]candidate, 0, len(m.classes))
	for i, cl := range m.classes {
		m.candidates = append(m.candidates, candidate{classIdx: i, name: cl.name})
	}
	for _, aug := range augmentations {
		if aug == nil {
			continue
		}
		for variant := 0; variant < aug.Variants(); variant++ {
			for i, cl := range m.classes {
				m.candidates = append(m.candidates, candidate{
					classIdx: i,
					aug:      aug,
					variant:  variant,
					name:     cl.name + "/" + aug.Name(variant),
				})
			}
		}
	}
}

// Name returns the base name of the dataset root.
func (m *MetaDataset) Name() string {
	return filepath.Base(m.root)
}

// NumClasses returns the number of base classes found on disk.
func (m *MetaDataset) NumClasses() int {
	return len(m.classes)
}

// NumCandidates returns the number of classes available for task sampling,
// base classes plus augmented variants.
func (m *MetaDataset) NumCandidates() int {
	return len(m.candidates)
}

// NumClassesPerTask returns the way count tasks are sampled with.
func (m *MetaDataset) NumClassesPerTask() int {
	return m.numClassesPerTask
}

// ClassNames returns the base class names, in index order.
func (m *MetaDataset) ClassNames() []string {
	return lo.Map(m.classes, func(cl class, _ int) string { return cl.name })
}

// CandidateName returns the identifier of candidate class i. Augmented
// variants carry the augmentation suffix.
func (m *MetaDataset) CandidateName(i int) string {
	return m.candidates[i].name
}

// NumSamples returns how many images candidate class i has on disk.
func (m *MetaDataset) NumSamples(i int) int {
	return len(m.classes[m.candidates[i].classIdx].paths)
}

// Transform returns the configured transform pipeline, or nil.
func (m *MetaDataset) Transform() transforms.Transform {
	return m.transform
}

// TargetTransform returns the configured label encoder, or nil.
func (m *MetaDataset) TargetTransform() transforms.TargetTransform {
	return m.targetTransform
}

// LoadSamples decodes the images of candidate class i selected by indices,
// applies the candidate's augmentation and then the transform pipeline.
func (m *MetaDataset) LoadSamples(i int, indices []int) ([]*transforms.Sample, error) {
	cand := m.candidates[i]
	paths := m.classes[cand.classIdx].paths
	samples := make([]*transforms.Sample, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(paths) {
			return nil, errors.Errorf("class %q: sample index %d out of range [0, %d)",
				cand.name, idx, len(paths))
		}
		img, err := decodeImage(paths[idx])
		if err != nil {
			return nil, errors.Wrapf(err, "class %q", cand.name)
		}
		if cand.aug != nil {
			img = cand.aug.Apply(cand.variant, img)
		}
		sample := transforms.NewSample(img)
		if m.transform != nil {
			if err := m.transform.Transform(sample); err != nil {
				return nil, errors.Wrapf(err, "transforming %q", paths[idx])
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	return img, nil
}
