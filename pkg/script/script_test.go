package script

import (
	"strings"
	"testing"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
)

const xorScript = `
steps:
  - op: add_input
    at: [0, 0]
    activation: none
    name: a
  - op: add_input
    at: [0, 1]
    activation: NONE
    name: b
  - op: add_neuron
    at: [1, 0]
    activation: leaky relu
    constant: 0.01
  - op: add_output
    at: [2, 0]
    activation: mse
    name: y
  - op: add_synapse
    from: [0, 0]
    to: [1, 0]
  - op: add_synapse
    from: [0, 1]
    to: [1, 0]
    interval: 0.5
    min: -2
    max: 2
    bias: false
  - op: add_synapse
    from: [2, 0]
    to: [1, 0]
`

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return s
}

func TestApplyBuildsDesign(t *testing.T) {
	d := design.New()
	res, err := Apply(d, mustParse(t, xorScript), Options{Defaults: DefaultSynapse})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Applied != 7 || res.Failed != 0 {
		t.Errorf("Result = %+v, want 7 applied", res)
	}

	s := d.Store()
	if s.NeuronCount() != 4 || s.SynapseCount() != 3 {
		t.Fatalf("counts = %d neurons, %d synapses, want 4, 3", s.NeuronCount(), s.SynapseCount())
	}
	n, _ := s.Neuron(design.Pos(1, 0))
	if n.Activation != design.ActLeakyReLU || n.Constant == nil || *n.Constant != 0.01 {
		t.Errorf("hidden = %+v", n)
	}
	sy, ok := s.SynapseBetween(design.Pos(0, 1), design.Pos(1, 0))
	if !ok || sy.Init != (design.InitRange{Interval: 0.5, Min: -2, Max: 2}) || sy.Bias {
		t.Errorf("explicit synapse = %+v", sy)
	}
	sy, _ = s.SynapseBetween(design.Pos(0, 0), design.Pos(1, 0))
	if sy.Init != (design.InitRange{Interval: 0.1, Min: -1, Max: 1}) || !sy.Bias {
		t.Errorf("defaulted synapse = %+v", sy)
	}
	sy, _ = s.SynapseBetween(design.Pos(1, 0), design.Pos(2, 0))
	if sy.Start != design.Pos(1, 0) {
		t.Errorf("reversed synapse start = %s, want (1, 0)", sy.Start)
	}
	if !design.IsValid(s) {
		t.Errorf("design invalid: %v", design.Check(s))
	}
}

func TestApplyEditsAndUndo(t *testing.T) {
	d := design.New()
	if _, err := Apply(d, mustParse(t, xorScript), Options{Defaults: DefaultSynapse}); err != nil {
		t.Fatal(err)
	}
	res, err := Apply(d, mustParse(t, `
steps:
  - op: edit_synapse
    from: [1, 0]
    to: [0, 0]
    max: 3
  - op: move
    from: [1, 0]
    to: [1, 5]
  - op: remove_synapse
    from: [0, 1]
    to: [1, 5]
  - op: undo
    count: 2
`), Options{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Undone != 2 {
		t.Errorf("Undone = %d, want 2", res.Undone)
	}

	s := d.Store()
	if !s.Occupied(design.Pos(1, 0)) || s.Occupied(design.Pos(1, 5)) {
		t.Error("move was not undone")
	}
	sy, ok := s.SynapseBetween(design.Pos(0, 0), design.Pos(1, 0))
	if !ok || sy.Init.Max != 3 || sy.Init.Min != -1 || sy.Init.Interval != 0.1 {
		t.Errorf("edited synapse = %+v, want max 3 with other fields kept", sy)
	}
	if s.SynapseCount() != 3 {
		t.Errorf("SynapseCount() = %d, want 3", s.SynapseCount())
	}
}

func TestApplyStopsAtFailure(t *testing.T) {
	d := design.New()
	_, err := Apply(d, mustParse(t, `
steps:
  - op: add_neuron
    at: [0, 0]
    activation: tanh
  - op: add_neuron
    at: [0, 0]
    activation: tanh
  - op: add_neuron
    at: [1, 0]
    activation: tanh
`), Options{})
	if !errors.Is(err, errors.ErrCodePositionOccupied) {
		t.Fatalf("Apply() = %v, want %s", err, errors.ErrCodePositionOccupied)
	}
	if !strings.Contains(err.Error(), "step 2") {
		t.Errorf("error %q does not name the step", err)
	}
	if d.Store().NeuronCount() != 1 {
		t.Errorf("NeuronCount() = %d, want 1", d.Store().NeuronCount())
	}
}

func TestApplyKeepGoing(t *testing.T) {
	d := design.New()
	res, err := Apply(d, mustParse(t, `
steps:
  - op: add_neuron
    at: [0, 0]
    activation: linear
  - op: remove_synapse
    from: [0, 0]
    to: [1, 0]
  - op: add_neuron
    at: [1, 0]
    activation: tanh
`), Options{KeepGoing: true})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Applied != 1 || res.Failed != 2 {
		t.Errorf("Result = %+v, want 1 applied, 2 failed", res)
	}
	notes := d.Notifications().List()
	if len(notes) != 2 || notes[0].Code != errors.ErrCodeInvalidField || notes[1].Code != errors.ErrCodeNotFound {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestApplyKeepGoingNotesReason(t *testing.T) {
	d := design.New()
	_, err := Apply(d, mustParse(t, `
steps:
  - op: add_neuron
    at: [0, 0]
    activation: tanh
  - op: add_neuron
    at: [0, 0]
    activation: tanh
`), Options{KeepGoing: true})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	notes := d.Notifications().List()
	if len(notes) != 1 {
		t.Fatalf("notifications = %+v, want 1", notes)
	}
	want := "step 2 (add_neuron): position (0, 0) is already taken"
	if notes[0].Message != want {
		t.Errorf("notification = %q, want %q", notes[0].Message, want)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "steps:\n  - op: add_neuron\n    at: [0, 0]\n    activation: tanh\n    colour: red\n"},
		{"unknown op", "steps:\n  - op: explode\n"},
		{"missing at", "steps:\n  - op: remove_neuron\n"},
		{"missing to", "steps:\n  - op: move\n    from: [0, 0]\n"},
		{"missing activation", "steps:\n  - op: add_input\n    at: [0, 0]\n    name: x\n"},
		{"negative undo", "steps:\n  - op: undo\n    count: -1\n"},
		{"bad position", "steps:\n  - op: remove_neuron\n    at: [0, 0, 0]\n"},
		{"not yaml", "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.src)); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Parse() = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(strings.NewReader(""))
	if err != nil || len(s.Steps) != 0 {
		t.Errorf("Parse(empty) = %+v, %v", s, err)
	}
}
