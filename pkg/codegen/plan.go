package codegen

import (
	"regexp"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
)

// DefaultLearningRate is used by callers that have no configured rate.
const DefaultLearningRate = 0.05

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name can be used as the generated class name.
func IsIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// Options controls generation.
type Options struct {
	// Name is the class name of the generated network. It must be a valid
	// identifier in the target language.
	Name string

	// LearningRate is handed to the numeric engine unchanged. Must be > 0.
	LearningRate float64
}

// Plan is the complete, ordered emission for one design: the neuron
// descriptors grouped by layer, the synapse descriptors, and the learning
// rate. A Plan is a pure function of the design it was built from.
type Plan struct {
	Name         string               `json:"name"`
	LearningRate float64              `json:"learning_rate"`
	Layers       [][]NeuronDescriptor `json:"layers"`
	Synapses     []SynapseDescriptor  `json:"synapses"`
}

// NeuronDescriptor describes how to construct one neuron.
type NeuronDescriptor struct {
	Tag        string   `json:"tag"`
	Name       string   `json:"name,omitempty"`
	Position   [2]int   `json:"position"`
	Activation string   `json:"activation"`
	Constant   *float64 `json:"constant,omitempty"`
}

// SynapseDescriptor describes how to construct one synapse.
type SynapseDescriptor struct {
	Start    [2]int  `json:"start"`
	End      [2]int  `json:"end"`
	Interval float64 `json:"interval"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Bias     bool    `json:"bias"`
}

// NeuronCount returns the number of neuron descriptors across all layers.
func (p *Plan) NeuronCount() int {
	n := 0
	for _, l := range p.Layers {
		n += len(l)
	}
	return n
}

// Generate builds the Plan for s. It fails with DESIGN_INVALID when the
// design does not pass [design.Validate] or holds no neurons, and with
// INVALID_INPUT when opts are unusable. Generate never performs I/O.
//
// Layers are emitted in ascending numeric order regardless of gaps, neurons
// within a layer by ascending offset, and synapses in the store's iteration
// order.
func Generate(s *design.Store, opts Options) (*Plan, error) {
	if err := design.Validate(s); err != nil {
		return nil, err
	}
	if s.NeuronCount() == 0 {
		return nil, errors.New(errors.ErrCodeDesignInvalid, "design has no neurons")
	}
	if !identRe.MatchString(opts.Name) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "network name %q is not a valid identifier", opts.Name)
	}
	if !(opts.LearningRate > 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "learning rate must be positive, got %v", opts.LearningRate)
	}

	p := &Plan{Name: opts.Name, LearningRate: opts.LearningRate}
	for _, layer := range s.Layers() {
		var descs []NeuronDescriptor
		for _, n := range s.NeuronsInLayer(layer) {
			descs = append(descs, describeNeuron(n))
		}
		p.Layers = append(p.Layers, descs)
	}
	for _, sy := range s.Synapses() {
		p.Synapses = append(p.Synapses, SynapseDescriptor{
			Start:    pair(sy.Start),
			End:      pair(sy.End),
			Interval: sy.Init.Interval,
			Min:      sy.Init.Min,
			Max:      sy.Init.Max,
			Bias:     sy.Bias,
		})
	}
	return p, nil
}

func describeNeuron(n design.Neuron) NeuronDescriptor {
	d := NeuronDescriptor{
		Tag:        n.Kind.Tag(),
		Position:   pair(n.Position),
		Activation: string(n.Activation),
		Constant:   n.Constant,
	}
	if n.Kind.Named() {
		d.Name = n.Name
	}
	return d
}

func pair(p design.Position) [2]int { return [2]int{p.Layer, p.Offset} }
