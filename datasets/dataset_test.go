package datasets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gometa/taskmeta/transforms"
)

// writeImage writes a size x size PNG to path. A zero alpha on the color
// means grayscale with shade taken from R.
func writeImage(t *testing.T, path string, size int, c color.NRGBA) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	var img image.Image
	if c.A == 0 {
		gray := image.NewGray(image.Rect(0, 0, size, size))
		for i := range gray.Pix {
			gray.Pix[i] = c.R
		}
		img = gray
	} else {
		rgba := image.NewNRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				rgba.Set(x, y, c)
			}
		}
		img = rgba
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writeClasses builds a directory-per-class dataset with perClass grayscale
// images in each named class directory (names may contain slashes).
func writeClasses(t *testing.T, root string, names []string, perClass, size int) {
	t.Helper()
	for i, name := range names {
		for j := 0; j < perClass; j++ {
			shade := uint8(20 + 40*i + j)
			path := filepath.Join(root, filepath.FromSlash(name), "img"+string(rune('a'+j))+".png")
			writeImage(t, path, size, color.NRGBA{R: shade})
		}
	}
}

func TestOpenScansNestedClasses(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"alpha/char1", "alpha/char2", "beta/char1"}, 2, 8)

	ds, err := Open(root, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumClasses())
	assert.Equal(t, 3, ds.NumCandidates())
	assert.Equal(t, 2, ds.NumClassesPerTask())
	assert.Equal(t, []string{"alpha/char1", "alpha/char2", "beta/char1"}, ds.ClassNames())
	assert.Equal(t, 2, ds.NumSamples(0))
	assert.Equal(t, filepath.Base(root), ds.Name())
}

func TestOpenMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), 1)
	assert.Error(t, err)
}

func TestOpenEmptyRoot(t *testing.T) {
	_, err := Open(t.TempDir(), 1)
	assert.ErrorContains(t, err, "no class directories")
}

func TestOpenTooFewClasses(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a", "b"}, 1, 4)

	_, err := Open(root, 5)
	assert.ErrorContains(t, err, "fewer than")
}

func TestOpenInvalidWays(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	assert.ErrorContains(t, err, "must be positive")
}

func TestOpenIgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a"}, 2, 4)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "notes.txt"), []byte("x"), 0o644))

	ds, err := Open(root, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.NumSamples(0))
}

func TestCandidatesWithAugmentation(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a", "b", "c"}, 2, 4)

	ds, err := Open(root, 3,
		WithClassAugmentations(transforms.NewRotation(90, 180, 270)))
	require.NoError(t, err)

	// 3 base classes plus 3 variants each.
	assert.Equal(t, 3, ds.NumClasses())
	assert.Equal(t, 12, ds.NumCandidates())
	assert.Equal(t, "a", ds.CandidateName(0))
	assert.Equal(t, "a/rot90", ds.CandidateName(3))
	// Variants draw samples from the base class.
	assert.Equal(t, 2, ds.NumSamples(3))
}

func TestLoadSamplesAppliesTransform(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a"}, 3, 8)

	ds, err := Open(root, 1,
		WithTransform(transforms.Compose(transforms.Resize(16), transforms.ToTensor())))
	require.NoError(t, err)

	samples, err := ds.LoadSamples(0, []int{0, 2})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.True(t, s.HasData())
		assert.Equal(t, 1, s.Channels)
		assert.Equal(t, 16, s.Height)
		assert.Equal(t, 16, s.Width)
	}
}

func TestLoadSamplesIndexOutOfRange(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a"}, 2, 4)

	ds, err := Open(root, 1)
	require.NoError(t, err)

	_, err = ds.LoadSamples(0, []int{5})
	assert.ErrorContains(t, err, "out of range")
}

func TestLoadSamplesWithoutTransformKeepsImage(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a"}, 1, 4)

	ds, err := Open(root, 1)
	require.NoError(t, err)

	samples, err := ds.LoadSamples(0, []int{0})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.NotNil(t, samples[0].Image)
	assert.False(t, samples[0].HasData())
}

func TestStatistics(t *testing.T) {
	root := t.TempDir()
	// Uniform shade 128 everywhere: mean ~0.502, std ~0.
	for _, name := range []string{"a", "b"} {
		for j := 0; j < 3; j++ {
			writeImage(t, filepath.Join(root, name, "img"+string(rune('0'+j))+".png"), 6,
				color.NRGBA{R: 128})
		}
	}

	ds, err := Open(root, 1)
	require.NoError(t, err)

	stats, err := ds.Statistics(10)
	require.NoError(t, err)
	require.Len(t, stats.Mean, 1)
	assert.InDelta(t, 128.0/255.0, stats.Mean[0], 1e-3)
	assert.InDelta(t, 0.0, stats.Std[0], 1e-3)
	assert.Greater(t, stats.Images, 0)
}

func TestStatisticsInvalidLimit(t *testing.T) {
	root := t.TempDir()
	writeClasses(t, root, []string{"a"}, 1, 4)

	ds, err := Open(root, 1)
	require.NoError(t, err)

	_, err = ds.Statistics(0)
	assert.Error(t, err)
}
