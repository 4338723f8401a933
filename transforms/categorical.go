package transforms

import (
	"fmt"

	"github.com/pkg/errors"
)

// TargetTransform encodes raw class identifiers (dataset class names,
// possibly augmented) into integer labels for one task.
type TargetTransform interface {
	// Transform returns the label for the given class identifier.
	Transform(class string) (int, error)
	// Reset clears any per-task state before a new task is materialized.
	Reset()
	String() string
}

// Categorical assigns consecutive labels, starting at zero, to class
// identifiers in the order they are first seen. It holds at most numClasses
// distinct identifiers per task; encoding one more is an error.
type Categorical struct {
	numClasses int
	labels     map[string]int
}

// NewCategorical creates an encoder for numClasses distinct classes.
func NewCategorical(numClasses int) *Categorical {
	return &Categorical{
		numClasses: numClasses,
		labels:     make(map[string]int, numClasses),
	}
}

// Transform implements TargetTransform.
func (c *Categorical) Transform(class string) (int, error) {
	if label, ok := c.labels[class]; ok {
		return label, nil
	}
	if len(c.labels) >= c.numClasses {
		return 0, errors.Errorf(
			"categorical encoder sized for %d classes cannot encode class %q", c.numClasses, class)
	}
	label := len(c.labels)
	c.labels[class] = label
	return label, nil
}

// Reset implements TargetTransform.
func (c *Categorical) Reset() {
	c.labels = make(map[string]int, c.numClasses)
}

// NumClasses returns the encoder capacity.
func (c *Categorical) NumClasses() int {
	return c.numClasses
}

func (c *Categorical) String() string {
	return fmt.Sprintf("Categorical(%d)", c.numClasses)
}
