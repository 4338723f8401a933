// Package tasks assembles few-shot episodes from an indexed dataset: a
// ClassSplitter samples tasks of N classes and splits each class's examples
// into train and test shots (or a single uniform split), with deterministic
// behavior available through Seed.
package tasks

import (
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gometa/taskmeta/transforms"
)

// TaskClass is one class within a task: its label, its identifier in the
// underlying dataset, and its materialized samples.
type TaskClass struct {
	Name    string
	Label   int
	Samples []*transforms.Sample
}

// Task is one sampled set of classes with their examples.
type Task struct {
	Classes []TaskClass
}

// NumClasses returns the number of classes in the task.
func (t *Task) NumClasses() int {
	return len(t.Classes)
}

// NumSamples returns the total number of samples across all classes.
func (t *Task) NumSamples() int {
	n := 0
	for _, cl := range t.Classes {
		n += len(cl.Samples)
	}
	return n
}

// Tensors stacks the task into a pair of gomlx tensors: inputs shaped
// [n, channels, height, width] and int32 labels shaped [n]. All samples must
// have passed through ToTensor and agree on their dimensions.
func (t *Task) Tensors() (inputs, labels *tensors.Tensor, err error) {
	n := t.NumSamples()
	if n == 0 {
		return nil, nil, errors.New("task has no samples")
	}

	var channels, height, width int
	flat := make([]float32, 0)
	labelValues := make([]int32, 0, n)
	for _, cl := range t.Classes {
		for _, sample := range cl.Samples {
			if !sample.HasData() {
				return nil, nil, errors.Errorf(
					"class %q: sample was not converted with ToTensor", cl.Name)
			}
			if channels == 0 {
				channels, height, width = sample.Channels, sample.Height, sample.Width
				flat = make([]float32, 0, n*channels*height*width)
			} else if sample.Channels != channels || sample.Height != height || sample.Width != width {
				return nil, nil, errors.Errorf(
					"class %q: sample shape [%d %d %d] does not match [%d %d %d]",
					cl.Name, sample.Channels, sample.Height, sample.Width, channels, height, width)
			}
			flat = append(flat, sample.Data...)
			labelValues = append(labelValues, int32(cl.Label))
		}
	}

	inputs = tensors.FromShape(shapes.Make(dtypes.Float32, n, channels, height, width))
	inputs.MutableFlatData(func(data any) {
		copy(data.([]float32), flat)
	})
	labels = tensors.FromValue(labelValues)
	return inputs, labels, nil
}

// Episode is one train/test split of a task. Under the uniform split policy
// Test is nil and Train carries all sampled examples.
type Episode struct {
	Train *Task
	Test  *Task
}
