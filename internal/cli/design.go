package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/io"
)

// loadDesign reads the --design file and restores it.
func (c *CLI) loadDesign(ctx context.Context) (io.Snapshot, *design.Designer, error) {
	snap, err := io.Import(c.designPath)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return io.Snapshot{}, nil, errors.Wrap(errors.ErrCodePersistence, err,
				"no design at %s (create one with `%s init`)", c.designPath, appName)
		}
		return io.Snapshot{}, nil, err
	}
	d, err := snap.Restore(design.WithLogger(loggerFromContext(ctx)))
	if err != nil {
		return io.Snapshot{}, nil, err
	}
	loggerFromContext(ctx).Debug("loaded design",
		"path", c.designPath,
		"neurons", d.Store().NeuronCount(),
		"synapses", d.Store().SynapseCount())
	return snap, d, nil
}

// saveDesign writes d back to the --design file under snap's id and name.
func (c *CLI) saveDesign(snap io.Snapshot, d *design.Designer) error {
	return io.Export(io.FromStore(d.Store(), snap.ID, snap.Name), c.designPath)
}

func (c *CLI) initCommand() *cobra.Command {
	var (
		name  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty design file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(c.designPath); err == nil && !force {
				return errors.New(errors.ErrCodePersistence, "%s already exists (use --force to replace it)", c.designPath)
			}
			if name == "" {
				name = io.NameFromPath(c.designPath)
			}
			snap := io.New(name)
			if err := io.Export(snap, c.designPath); err != nil {
				return err
			}
			printSuccess("Created design %s", StyleValue.Render(name))
			printFile(c.designPath)
			printNextStep("Add an input", fmt.Sprintf("%s add input 0,0 --name x", appName))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "design name (default: file name)")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	return cmd
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the neurons, synapses and validity of the design",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, d, err := c.loadDesign(cmd.Context())
			if err != nil {
				return err
			}
			s := d.Store()

			fmt.Fprintln(output, StyleTitle.Render(snap.Name))
			printKeyValue("id", snap.ID.String())
			printKeyValue("file", c.designPath)
			printKeyValue("layers", fmt.Sprint(s.Layers()))
			if names := s.Names(); len(names) > 0 {
				printKeyValue("names", strings.Join(names, ", "))
			}
			printStats(s.NeuronCount(), s.SynapseCount(), false)
			if s.NeuronCount() > 0 {
				fmt.Fprintln(output, renderNeuronTable(s))
			}
			if s.SynapseCount() > 0 {
				fmt.Fprintln(output, renderSynapseTable(s))
			}
			printViolations(s)
			return nil
		},
	}
}
