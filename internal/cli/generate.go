package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/pipeline"
	"github.com/matzehuels/nunet/pkg/render/nodelink"
)

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every neuron's connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := c.loadDesign(cmd.Context())
			if err != nil {
				return err
			}
			s := d.Store()
			printViolations(s)
			if s.NeuronCount() == 0 {
				return errors.New(errors.ErrCodeDesignInvalid, "design is empty")
			}
			return design.Validate(s)
		},
	}
}

// generateOpts holds the flags of the generate command.
type generateOpts struct {
	output       string
	name         string
	learningRate float64
	format       string
	force        bool
	noCache      bool
	refresh      bool
}

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the network class for a valid design",
		Long: `Write the network class for a valid design.

The class name, learning rate and format default to the [network] section of
the config file. The output file must not exist unless --force is given; use
"-o -" to print to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, d, err := c.loadDesign(ctx)
			if err != nil {
				return err
			}

			popts := pipeline.Options{
				Name:         firstNonEmpty(opts.name, c.Config.Network.Name),
				LearningRate: c.Config.Network.LearningRate,
				Format:       codegen.Format(firstNonEmpty(opts.format, c.Config.Network.Format)),
				Refresh:      opts.refresh,
			}
			if opts.learningRate != 0 {
				popts.LearningRate = opts.learningRate
			}

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Execute(ctx, d.Store(), popts)
			if err != nil {
				if res != nil && len(res.Violations) > 0 {
					printViolations(d.Store())
				}
				return err
			}

			if opts.output == "-" {
				_, err := output.Write(res.Code)
				return err
			}
			path := opts.output
			if path == "" {
				path = strings.ToLower(snap.Name) + popts.Format.Ext()
			}
			if err := writeNew(path, res.Code, opts.force); err != nil {
				return err
			}
			printSuccess("Generated %s", StyleValue.Render(popts.Name))
			printStats(res.Stats.NeuronCount, res.Stats.SynapseCount, res.CacheInfo.GenerateHit)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (default "<design name><ext>", "-" for stdout)`)
	cmd.Flags().StringVar(&opts.name, "name", "", "class name (default from config)")
	cmd.Flags().Float64Var(&opts.learningRate, "learning-rate", 0, "learning rate (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: python, json (default from config)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing output file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the generation cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even when cached")
	return cmd
}

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output    string
	formats   string
	detailed  bool
	highlight bool
	noCache   bool
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{formats: nodelink.FormatSVG, highlight: true}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the design as a node-link diagram",
		Long: `Draw the design as a node-link diagram, one column per layer.

Invalid designs can be rendered too; with --highlight (the default) neurons
that break a connectivity rule are outlined in red.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, d, err := c.loadDesign(ctx)
			if err != nil {
				return err
			}
			formats := strings.Split(opts.formats, ",")
			if err := pipeline.ValidateDiagrams(formats); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "render")
			}

			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			spin := newSpinner(ctx, "Rendering "+snap.Name)
			spin.Start()
			res, err := runner.Execute(ctx, d.Store(), pipeline.Options{
				SkipGenerate: true,
				Diagrams:     formats,
				Detailed:     opts.detailed,
				Highlight:    opts.highlight,
			})
			spin.Stop()
			if err != nil {
				return err
			}

			base := opts.output
			if base == "" {
				base = io.NameFromPath(c.designPath)
			}
			base = strings.TrimSuffix(base, filepath.Ext(base))
			printSuccess("Rendered %s", StyleValue.Render(snap.Name))
			printStats(res.Stats.NeuronCount, res.Stats.SynapseCount, res.CacheInfo.RenderHit)
			for _, f := range formats {
				path := base + "." + f
				if len(formats) == 1 && opts.output != "" {
					path = opts.output
				}
				if err := os.WriteFile(path, res.Diagrams[f], 0o644); err != nil {
					return errors.Wrap(errors.ErrCodePersistence, err, "write %s", path)
				}
				printFile(path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "output format(s): dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label neurons with constants and positions, synapses with ranges")
	cmd.Flags().BoolVar(&opts.highlight, "highlight", opts.highlight, "outline neurons that break connectivity rules")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	return cmd
}

// writeNew writes data to path, refusing to replace an existing file
// unless force is set.
func writeNew(path string, data []byte, force bool) (err error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrap(errors.ErrCodePersistence, err, "%s already exists (use --force to replace it)", path)
		}
		return errors.Wrap(errors.ErrCodePersistence, err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodePersistence, cerr, "close %s", path)
		}
	}()
	if _, err := f.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "write %s", path)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
