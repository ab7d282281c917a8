package design

import (
	"fmt"
	"slices"
	"strings"
)

// Kind distinguishes the three neuron variants. The set is closed: every
// switch over Kind handles all three cases.
type Kind int

const (
	// KindHidden is an interior neuron: it must be fed and must feed onwards.
	KindHidden Kind = iota
	// KindInput is a named feature entry point: it only feeds onwards.
	KindInput
	// KindOutput is a named label exit point carrying a loss function: it is only fed.
	KindOutput
)

// String returns the lower-case variant name used by the CLI and scripts.
func (k Kind) String() string {
	switch k {
	case KindHidden:
		return "hidden"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Tag returns the variant tag used in persisted snapshots and generated code.
func (k Kind) Tag() string {
	switch k {
	case KindHidden:
		return "Neuron"
	case KindInput:
		return "Input"
	case KindOutput:
		return "Output"
	}
	return ""
}

// Named reports whether neurons of this kind carry a unique name.
func (k Kind) Named() bool {
	switch k {
	case KindInput, KindOutput:
		return true
	case KindHidden:
		return false
	}
	return false
}

// ParseKind accepts either the lower-case name ("hidden") or the tag
// ("Neuron"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hidden", "neuron":
		return KindHidden, nil
	case "input":
		return KindInput, nil
	case "output":
		return KindOutput, nil
	}
	return 0, fmt.Errorf("unknown neuron kind %q", s)
}

// NeuronID identifies a neuron for the lifetime of a Store. IDs are assigned
// monotonically and never reused.
type NeuronID int

// Neuron is a positioned node of the design graph.
//
// Synapses is the incident set: every synapse the neuron participates in,
// in either direction, sorted by id. Direction is derived by comparing a
// synapse's endpoints with Position.
type Neuron struct {
	ID         NeuronID
	Kind       Kind
	Position   Position
	Activation Activation
	Constant   *float64 // nil when the activation takes no constant
	Name       string   // set only for inputs and outputs
	Synapses   []SynapseID
}

// clone returns a deep copy so callers never alias store-owned memory.
func (n Neuron) clone() Neuron {
	n.Synapses = slices.Clone(n.Synapses)
	if n.Constant != nil {
		c := *n.Constant
		n.Constant = &c
	}
	return n
}

func (n *Neuron) attach(id SynapseID) {
	i, found := slices.BinarySearch(n.Synapses, id)
	if !found {
		n.Synapses = slices.Insert(n.Synapses, i, id)
	}
}

func (n *Neuron) detach(id SynapseID) {
	if i, found := slices.BinarySearch(n.Synapses, id); found {
		n.Synapses = slices.Delete(n.Synapses, i, i+1)
	}
	if len(n.Synapses) == 0 {
		n.Synapses = nil
	}
}
