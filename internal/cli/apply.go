package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/script"
)

func (c *CLI) applyCommand() *cobra.Command {
	var keepGoing, dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Run an edit script against the design",
		Long: `Run an edit script against the design.

A script is a YAML list of steps. Each step names an operation (add_neuron,
add_input, add_output, add_synapse, edit_*, remove_neuron, remove_synapse,
move, undo) and its fields. Synapses are addressed by their endpoints.

  steps:
    - op: add_input
      at: [0, 0]
      activation: none
      name: x
    - op: add_neuron
      at: [1, 0]
      activation: tanh
    - op: add_synapse
      from: [0, 0]
      to: [1, 0]

By default the first failing step stops the script and nothing is saved.
With --keep-going failed steps are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			sc, err := script.Load(args[0])
			if err != nil {
				return err
			}
			snap, d, err := c.loadDesign(cmd.Context())
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			res, err := script.Apply(d, sc, script.Options{Defaults: c.synapseDefaults(), KeepGoing: keepGoing})
			if err != nil {
				return err
			}
			prog.done("Applied script")

			for _, n := range d.Notifications().List() {
				printWarning("%s", n.Message)
			}
			printSuccess("%d step(s) applied, %d failed, %d undone", res.Applied, res.Failed, res.Undone)
			printStats(d.Store().NeuronCount(), d.Store().SynapseCount(), false)

			if dryRun {
				printDetail("dry run: %s not written", c.designPath)
				return nil
			}
			if err := c.saveDesign(snap, d); err != nil {
				return err
			}
			printFile(c.designPath)
			if res.Failed > 0 {
				return errors.New(errors.ErrCodeInvalidInput, "%d step(s) failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "skip failing steps instead of stopping")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply without saving")
	return cmd
}
