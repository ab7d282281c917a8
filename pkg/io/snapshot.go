package io

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
)

// Snapshot is the plain, self-contained record of a design: every neuron and
// synapse as field values, with no ids or incidence. It is what gets saved,
// cached, stored and shipped over the API.
type Snapshot struct {
	ID       uuid.UUID       `json:"id" toml:"id"`
	Name     string          `json:"name" toml:"name"`
	Neurons  []NeuronRecord  `json:"neurons" toml:"neurons"`
	Synapses []SynapseRecord `json:"synapses" toml:"synapses"`
}

// NeuronRecord holds one neuron's fields.
type NeuronRecord struct {
	Type       string   `json:"Type" toml:"Type"`
	Position   [2]int   `json:"Position" toml:"Position"`
	Activation string   `json:"Activation" toml:"Activation"`
	Constant   *float64 `json:"Constant,omitempty" toml:"Constant,omitempty"`
	Name       string   `json:"Name,omitempty" toml:"Name,omitempty"`
}

// SynapseRecord holds one synapse's fields.
type SynapseRecord struct {
	StartPosition [2]int  `json:"Startposition" toml:"Startposition"`
	EndPosition   [2]int  `json:"Endposition" toml:"Endposition"`
	Interval      float64 `json:"Interval" toml:"Interval"`
	Min           float64 `json:"Min" toml:"Min"`
	Max           float64 `json:"Max" toml:"Max"`
	Bias          bool    `json:"Bias" toml:"Bias"`
}

// New returns an empty snapshot with a fresh id.
func New(name string) Snapshot {
	return Snapshot{ID: uuid.New(), Name: name}
}

// FromStore captures s. Neurons are listed by position and synapses in
// store order, so restoring a snapshot reproduces the synapse order.
func FromStore(s *design.Store, id uuid.UUID, name string) Snapshot {
	snap := Snapshot{ID: id, Name: name}
	for _, n := range s.Neurons() {
		rec := NeuronRecord{
			Type:       n.Kind.Tag(),
			Position:   [2]int{n.Position.Layer, n.Position.Offset},
			Activation: string(n.Activation),
			Constant:   n.Constant,
		}
		if n.Kind.Named() {
			rec.Name = n.Name
		}
		snap.Neurons = append(snap.Neurons, rec)
	}
	for _, sy := range s.Synapses() {
		snap.Synapses = append(snap.Synapses, SynapseRecord{
			StartPosition: [2]int{sy.Start.Layer, sy.Start.Offset},
			EndPosition:   [2]int{sy.End.Layer, sy.End.Offset},
			Interval:      sy.Init.Interval,
			Min:           sy.Init.Min,
			Max:           sy.Init.Max,
			Bias:          sy.Bias,
		})
	}
	return snap
}

// Restore rebuilds a Designer from the snapshot. Every record goes through
// the same add operations used interactively, so a snapshot that breaks an
// invariant is rejected with PERSISTENCE_FAILURE wrapping the original
// rejection. The restored designer starts with an empty undo history.
func (s Snapshot) Restore(opts ...design.Option) (*design.Designer, error) {
	d := design.New(opts...)
	for _, n := range s.Neurons {
		if err := addNeuron(d, n); err != nil {
			return nil, err
		}
	}
	for _, sy := range s.Synapses {
		start := design.Pos(sy.StartPosition[0], sy.StartPosition[1])
		end := design.Pos(sy.EndPosition[0], sy.EndPosition[1])
		_, err := d.AddSynapse(start, end, design.Range(sy.Interval, sy.Min, sy.Max), sy.Bias)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistence, err, "synapse %s -> %s", start, end)
		}
	}
	d.ClearHistory()
	return d, nil
}

func addNeuron(d *design.Designer, n NeuronRecord) error {
	kind, err := design.ParseKind(n.Type)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "neuron at %v", n.Position)
	}
	p := design.Pos(n.Position[0], n.Position[1])
	act := design.Activation(n.Activation)
	constant := design.NoConst()
	if n.Constant != nil {
		constant = design.Const(*n.Constant)
	}

	switch kind {
	case design.KindHidden:
		err = d.AddNeuron(p, act, constant)
	case design.KindInput:
		err = d.AddInput(p, act, constant, design.Valid(n.Name))
	case design.KindOutput:
		err = d.AddOutput(p, act, constant, design.Valid(n.Name))
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "%s at %s", kind, p)
	}
	return nil
}

// NameFromPath derives a design name from a file path: the base name up to
// its first dot, so "designs/xor.nunet" names the design "xor".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}
