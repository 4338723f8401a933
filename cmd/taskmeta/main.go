// Command taskmeta inspects and exercises few-shot image datasets: scan a
// dataset folder, plot its class distribution, or run the nearest-centroid
// baseline over sampled episodes.
package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gometa/taskmeta"
	"github.com/gometa/taskmeta/baseline"
	"github.com/gometa/taskmeta/datasets"
	"github.com/gometa/taskmeta/logging"
	"github.com/gometa/taskmeta/tasks"
)

// sources maps dataset identity names to their constructors.
var sources = map[string]func(folder string, shots, ways int, opts ...taskmeta.Option) (*tasks.ClassSplitter, error){
	"omniglot":              taskmeta.Omniglot,
	"omniglot_norm":         taskmeta.OmniglotNorm,
	"omniglot_rgb84x84":     taskmeta.OmniglotRGB84x84,
	"omniglot_rgb84x84norm": taskmeta.OmniglotRGB84x84Norm,
	"miniimagenet":          taskmeta.MiniImagenet,
	"miniimagenet_norm":     taskmeta.MiniImagenetNorm,
	"tieredimagenet":        taskmeta.TieredImagenet,
	"cifar_fs":              taskmeta.CIFARFS,
	"fc100":                 taskmeta.FC100,
	"fc100_norm":            taskmeta.FC100Norm,
	"cub":                   taskmeta.CUB,
	"doublemnist":           taskmeta.DoubleMNIST,
	"triplemnist":           taskmeta.TripleMNIST,
}

func main() {
	logger, err := zap.NewDevelopment()
	if err == nil {
		logging.SetLogger(logger)
	}

	root := &cobra.Command{
		Use:           "taskmeta",
		Short:         "Inspect and sample few-shot image datasets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(inspectCommand(), plotCommand(), evalCommand())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func inspectCommand() *cobra.Command {
	var maxImages int
	cmd := &cobra.Command{
		Use:   "inspect <dataset-dir>",
		Short: "Scan a directory-per-class dataset and print class and pixel statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datasets.Open(args[0], 1)
			if err != nil {
				return err
			}

			counts := make([]int, ds.NumClasses())
			bar := progressbar.NewOptions(ds.NumClasses(),
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("classes"),
			)
			for i := range counts {
				counts[i] = ds.NumSamples(i)
				_ = bar.Add(1)
			}
			_ = bar.Close()
			fmt.Println()

			total := lo.Sum(counts)
			minCount := lo.Min(counts)
			maxCount := lo.Max(counts)
			fmt.Printf("%s: %d classes, %d images (per class: min %d, max %d)\n",
				ds.Name(), ds.NumClasses(), total, minCount, maxCount)

			stats, err := ds.Statistics(maxImages)
			if err != nil {
				return err
			}
			fmt.Printf("pixel statistics over %d images: mean %v, std %v\n",
				stats.Images, stats.Mean, stats.Std)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxImages, "max-images", 512, "images to sample for pixel statistics")
	return cmd
}

func plotCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "plot <dataset-dir>",
		Short: "Plot the per-class sample distribution to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datasets.Open(args[0], 1)
			if err != nil {
				return err
			}

			values := make(plotter.Values, ds.NumClasses())
			for i := range values {
				values[i] = float64(ds.NumSamples(i))
			}

			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s: samples per class", ds.Name())
			p.X.Label.Text = "class index"
			p.Y.Label.Text = "samples"
			bars, err := plotter.NewBarChart(values, vg.Points(2))
			if err != nil {
				return err
			}
			bars.LineStyle.Width = 0
			bars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
			p.Add(bars)

			if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "classes.png", "output image path")
	return cmd
}

func evalCommand() *cobra.Command {
	var (
		name      string
		shots     int
		ways      int
		testShots int
		seed      int64
		episodes  int
	)
	cmd := &cobra.Command{
		Use:   "eval <root-folder>",
		Short: "Run the nearest-centroid baseline over sampled episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			construct, ok := sources[name]
			if !ok {
				return fmt.Errorf("unknown dataset %q (available: %v)", name, lo.Keys(sources))
			}
			opts := []taskmeta.Option{taskmeta.WithSeed(seed)}
			if testShots > 0 {
				opts = append(opts, taskmeta.WithTestShots(testShots))
			}
			source, err := construct(args[0], shots, ways, opts...)
			if err != nil {
				return err
			}

			evaluator := baseline.Evaluator{Episodes: episodes}
			result, err := evaluator.Run(source)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d-way %d-shot: mean accuracy %.4f over %d episodes\n",
				name, ways, shots, result.MeanAccuracy, result.Episodes)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "dataset", "omniglot", "dataset identity")
	cmd.Flags().IntVar(&shots, "shots", 5, "training examples per class")
	cmd.Flags().IntVar(&ways, "ways", 5, "classes per task")
	cmd.Flags().IntVar(&testShots, "test-shots", 0, "test examples per class (defaults to shots)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&episodes, "episodes", 100, "episodes to evaluate")
	return cmd
}
