package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/script"
)

// mutate loads the design, applies the step built from its current state,
// and saves it back. Nothing is written when the step is rejected.
func (c *CLI) mutate(ctx context.Context, build func(s *design.Store) (script.Step, error)) error {
	snap, d, err := c.loadDesign(ctx)
	if err != nil {
		return err
	}
	step, err := build(d.Store())
	if err != nil {
		return err
	}
	sc := &script.Script{Steps: []script.Step{step}}
	if _, err := script.Apply(d, sc, script.Options{Defaults: c.synapseDefaults()}); err != nil {
		return err
	}
	if err := c.saveDesign(snap, d); err != nil {
		return err
	}
	printSuccess("%s", describe(step))
	printStats(d.Store().NeuronCount(), d.Store().SynapseCount(), false)
	return nil
}

// describe summarizes an applied step, e.g. "add neuron (1, 0)".
func describe(st script.Step) string {
	verb := strings.ReplaceAll(string(st.Op), "_", " ")
	switch {
	case st.At != nil:
		return verb + " " + design.Pos(st.At[0], st.At[1]).String()
	case st.From != nil && st.To != nil:
		return verb + " " + design.Pos(st.From[0], st.From[1]).String() + " " + iconArrow + " " + design.Pos(st.To[0], st.To[1]).String()
	}
	return verb
}

// parsePos parses a "layer,offset" argument.
func parsePos(arg string) (*[2]int, error) {
	p, err := design.ParsePosition(arg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid position")
	}
	return &[2]int{p.Layer, p.Offset}, nil
}

func parsePair(args []string) (from, to *[2]int, err error) {
	if from, err = parsePos(args[0]); err != nil {
		return nil, nil, err
	}
	if to, err = parsePos(args[1]); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// synapseFlags holds the optional synapse fields shared by add and edit.
type synapseFlags struct {
	interval, min, max float64
	bias               bool
}

func (f *synapseFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.interval, "interval", 0, "initialization step (default from config)")
	fs.Float64Var(&f.min, "min", 0, "lower bound of the initialization range (default from config)")
	fs.Float64Var(&f.max, "max", 0, "upper bound of the initialization range (default from config)")
	fs.BoolVar(&f.bias, "bias", false, "add a bias weight (default from config)")
}

// apply copies the flags the user set onto st.
func (f *synapseFlags) apply(fs *pflag.FlagSet, st *script.Step) {
	if fs.Changed("interval") {
		st.Interval = &f.interval
	}
	if fs.Changed("min") {
		st.Min = &f.min
	}
	if fs.Changed("max") {
		st.Max = &f.max
	}
	if fs.Changed("bias") {
		st.Bias = &f.bias
	}
}

// =============================================================================
// add
// =============================================================================

func (c *CLI) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a neuron, input, output or synapse",
	}
	cmd.AddCommand(c.addNeuronCommand(script.OpAddNeuron, "neuron", "Add a hidden neuron", "activation", ""))
	cmd.AddCommand(c.addNeuronCommand(script.OpAddInput, "input", "Add an input neuron", "activation", "none"))
	cmd.AddCommand(c.addNeuronCommand(script.OpAddOutput, "output", "Add an output neuron", "loss", "mse"))
	cmd.AddCommand(c.addSynapseCommand())
	return cmd
}

func (c *CLI) addNeuronCommand(op script.Op, use, short, actFlag, actDefault string) *cobra.Command {
	var (
		activation string
		constant   float64
		name       string
	)
	named := op != script.OpAddNeuron
	cmd := &cobra.Command{
		Use:   use + " <layer,offset>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parsePos(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				st := script.Step{Op: op, At: at, Activation: activation, Name: name}
				if cmd.Flags().Changed("constant") {
					st.Constant = &constant
				}
				return st, nil
			})
		},
	}
	cmd.Flags().StringVar(&activation, actFlag, actDefault, actFlag+" function")
	cmd.Flags().Float64Var(&constant, "constant", 0, "activation constant (required by LEAKY ReLU, ELU, LINEAR, HUBER, ...)")
	if named {
		cmd.Flags().StringVar(&name, "name", "", "unique name")
	}
	if actDefault == "" {
		_ = cmd.MarkFlagRequired(actFlag)
	}
	return cmd
}

func (c *CLI) addSynapseCommand() *cobra.Command {
	var flags synapseFlags
	cmd := &cobra.Command{
		Use:   "synapse <layer,offset> <layer,offset>",
		Short: "Connect two neurons in different layers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parsePair(args)
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				st := script.Step{Op: script.OpAddSynapse, From: from, To: to}
				flags.apply(cmd.Flags(), &st)
				return st, nil
			})
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// =============================================================================
// edit
// =============================================================================

func (c *CLI) editCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change a neuron's or synapse's fields",
		Long:  "Change a neuron's or synapse's fields. Fields without a flag keep their current value.",
	}
	cmd.AddCommand(c.editNeuronCommand(script.OpEditNeuron, "neuron", "Edit a hidden neuron", "activation"))
	cmd.AddCommand(c.editNeuronCommand(script.OpEditInput, "input", "Edit an input neuron", "activation"))
	cmd.AddCommand(c.editNeuronCommand(script.OpEditOutput, "output", "Edit an output neuron", "loss"))
	cmd.AddCommand(c.editSynapseCommand())
	return cmd
}

func (c *CLI) editNeuronCommand(op script.Op, use, short, actFlag string) *cobra.Command {
	var (
		activation string
		constant   float64
		noConstant bool
		name       string
	)
	named := op != script.OpEditNeuron
	cmd := &cobra.Command{
		Use:   use + " <layer,offset>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parsePos(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(s *design.Store) (script.Step, error) {
				p := design.Pos(at[0], at[1])
				n, ok := s.Neuron(p)
				if !ok {
					return script.Step{}, errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", p)
				}
				st := script.Step{Op: op, At: at, Activation: string(n.Activation), Constant: n.Constant, Name: n.Name}
				if cmd.Flags().Changed(actFlag) {
					st.Activation = activation
				}
				switch {
				case noConstant:
					st.Constant = nil
				case cmd.Flags().Changed("constant"):
					st.Constant = &constant
				}
				if named && cmd.Flags().Changed("name") {
					st.Name = name
				}
				return st, nil
			})
		},
	}
	cmd.Flags().StringVar(&activation, actFlag, "", "new "+actFlag+" function")
	cmd.Flags().Float64Var(&constant, "constant", 0, "new activation constant")
	cmd.Flags().BoolVar(&noConstant, "no-constant", false, "clear the activation constant")
	cmd.MarkFlagsMutuallyExclusive("constant", "no-constant")
	if named {
		cmd.Flags().StringVar(&name, "name", "", "new unique name")
	}
	return cmd
}

func (c *CLI) editSynapseCommand() *cobra.Command {
	var flags synapseFlags
	cmd := &cobra.Command{
		Use:   "synapse <layer,offset> <layer,offset>",
		Short: "Edit the synapse between two neurons",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parsePair(args)
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				st := script.Step{Op: script.OpEditSynapse, From: from, To: to}
				flags.apply(cmd.Flags(), &st)
				return st, nil
			})
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// =============================================================================
// remove and move
// =============================================================================

func (c *CLI) removeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Remove a neuron or synapse",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "neuron <layer,offset>",
		Short: "Remove a neuron and every synapse touching it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parsePos(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				return script.Step{Op: script.OpRemoveNeuron, At: at}, nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "synapse <layer,offset> <layer,offset>",
		Short: "Remove the synapse between two neurons",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parsePair(args)
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				return script.Step{Op: script.OpRemoveSynapse, From: from, To: to}, nil
			})
		},
	})
	return cmd
}

func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <layer,offset> <layer,offset>",
		Short: "Move a neuron to an empty position",
		Long: `Move a neuron to an empty position. Synapses that would end up joining two
neurons of the same layer are removed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parsePair(args)
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(*design.Store) (script.Step, error) {
				return script.Step{Op: script.OpMove, From: from, To: to}, nil
			})
		},
	}
}
