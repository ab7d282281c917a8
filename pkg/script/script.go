// Package script replays edit scripts against a design.
//
// A script is a YAML list of steps, each naming one mutation. Synapses are
// addressed by their two endpoints rather than by id, so scripts stay
// valid across saves:
//
//	steps:
//	  - op: add_input
//	    at: [0, 0]
//	    activation: none
//	    name: a
//	  - op: add_neuron
//	    at: [1, 0]
//	    activation: leaky relu
//	    constant: 0.01
//	  - op: add_synapse
//	    from: [0, 0]
//	    to: [1, 0]
//	  - op: move
//	    from: [1, 0]
//	    to: [2, 0]
//	  - op: undo
//
// Synapse fields left out of a step take the values of [Defaults].
package script

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Op names a step.
type Op string

const (
	OpAddNeuron     Op = "add_neuron"
	OpAddInput      Op = "add_input"
	OpAddOutput     Op = "add_output"
	OpAddSynapse    Op = "add_synapse"
	OpEditNeuron    Op = "edit_neuron"
	OpEditInput     Op = "edit_input"
	OpEditOutput    Op = "edit_output"
	OpEditSynapse   Op = "edit_synapse"
	OpRemoveNeuron  Op = "remove_neuron"
	OpRemoveSynapse Op = "remove_synapse"
	OpMove          Op = "move"
	OpUndo          Op = "undo"
)

// Script is a parsed edit script.
type Script struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one mutation. Which fields apply depends on Op.
type Step struct {
	Op         Op       `json:"op" yaml:"op"`
	At         *[2]int  `json:"at,omitempty" yaml:"at,omitempty"`
	From       *[2]int  `json:"from,omitempty" yaml:"from,omitempty"`
	To         *[2]int  `json:"to,omitempty" yaml:"to,omitempty"`
	Activation string   `json:"activation,omitempty" yaml:"activation,omitempty"`
	Constant   *float64 `json:"constant,omitempty" yaml:"constant,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Interval   *float64 `json:"interval,omitempty" yaml:"interval,omitempty"`
	Min        *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Bias       *bool    `json:"bias,omitempty" yaml:"bias,omitempty"`
	Count      int      `json:"count,omitempty" yaml:"count,omitempty"`
}

// Parse decodes a script. Unknown keys and structurally incomplete steps
// are INVALID_INPUT.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse script")
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Check verifies that every step carries the fields its op needs. Scripts
// decoded from other encodings go through Check before Apply.
func (s *Script) Check() error {
	for i, st := range s.Steps {
		if err := st.check(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "step %d (%s)", i+1, st.Op)
		}
	}
	return nil
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read script %s", path)
	}
	return Parse(bytes.NewReader(data))
}

// check verifies that the fields Op needs are present. Field values are
// left to the mutation API.
func (s Step) check() error {
	need := func(ok bool, field string) error {
		if !ok {
			return fmt.Errorf("missing %q", field)
		}
		return nil
	}
	switch s.Op {
	case OpAddNeuron, OpAddInput, OpAddOutput, OpEditNeuron, OpEditInput, OpEditOutput:
		if err := need(s.At != nil, "at"); err != nil {
			return err
		}
		return need(s.Activation != "", "activation")
	case OpAddSynapse, OpEditSynapse, OpRemoveSynapse, OpMove:
		if err := need(s.From != nil, "from"); err != nil {
			return err
		}
		return need(s.To != nil, "to")
	case OpRemoveNeuron:
		return need(s.At != nil, "at")
	case OpUndo:
		if s.Count < 0 {
			return fmt.Errorf("count must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
}
