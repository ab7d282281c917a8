package design

import (
	"reflect"
	"testing"

	"github.com/matzehuels/nunet/pkg/errors"
)

func TestUndoEmpty(t *testing.T) {
	d := New()
	if d.Undo() {
		t.Error("Undo() on empty log = true, want false")
	}
	if d.CanUndo() {
		t.Error("CanUndo() on empty log = true, want false")
	}
}

// TestUndoRoundTrip applies a mixed sequence of verbs, then undoes them one
// by one and checks each intermediate state is restored exactly.
func TestUndoRoundTrip(t *testing.T) {
	steps := []struct {
		name string
		do   func(d *Designer) error
	}{
		{"add input", func(d *Designer) error { return d.AddInput(Pos(0, 0), ActNone, NoConst(), Valid("x")) }},
		{"add input 2", func(d *Designer) error { return d.AddInput(Pos(0, 1), ActSigmoid, NoConst(), Valid("x2")) }},
		{"add hidden", func(d *Designer) error { return d.AddNeuron(Pos(1, 0), ActLeakyReLU, Const(0.1)) }},
		{"add hidden 2", func(d *Designer) error { return d.AddNeuron(Pos(1, 1), ActTanh, NoConst()) }},
		{"add output", func(d *Designer) error { return d.AddOutput(Pos(2, 0), LossMSE, NoConst(), Valid("y")) }},
		{"syn x-h", func(d *Designer) error { _, err := d.AddSynapse(Pos(0, 0), Pos(1, 0), Range(0.1, -1, 1), true); return err }},
		{"syn h-x2", func(d *Designer) error { _, err := d.AddSynapse(Pos(1, 0), Pos(0, 1), Range(0.2, -1, 1), false); return err }},
		{"syn h-y", func(d *Designer) error { _, err := d.AddSynapse(Pos(1, 0), Pos(2, 0), Range(0.1, 0, 1), true); return err }},
		{"syn h2-y", func(d *Designer) error { _, err := d.AddSynapse(Pos(1, 1), Pos(2, 0), Range(0.1, -1, 0), true); return err }},
		{"edit hidden", func(d *Designer) error { return d.EditNeuron(Pos(1, 0), ActLinear, Const(2)) }},
		{"rename output", func(d *Designer) error { return d.EditOutput(Pos(2, 0), LossHuber, Const(1), Valid("z")) }},
		{"edit synapse", func(d *Designer) error { return d.EditSynapse(2, Range(0.5, -3, 3), false) }},
		{"move hidden 2 into output layer", func(d *Designer) error { return d.MoveNeuron(Pos(1, 1), Pos(2, 1)) }},
		{"move hidden forward", func(d *Designer) error { return d.MoveNeuron(Pos(1, 0), Pos(3, 0)) }},
		{"remove synapse", func(d *Designer) error { return d.RemoveSynapse(0) }},
		{"remove input", func(d *Designer) error { return d.RemoveNeuron(Pos(0, 1)) }},
		{"remove output", func(d *Designer) error { return d.RemoveNeuron(Pos(2, 0)) }},
	}

	d := New()
	var states []state
	for _, s := range steps {
		states = append(states, snapshot(d))
		if err := s.do(d); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if !d.Undo() {
			t.Fatalf("undo %s: Undo() = false", steps[i].name)
		}
		if got := snapshot(d); !reflect.DeepEqual(got, states[i]) {
			t.Fatalf("undo %s:\n got  %+v\n want %+v", steps[i].name, got, states[i])
		}
	}
	if d.History().Len() != 0 {
		t.Errorf("History().Len() = %d after full undo, want 0", d.History().Len())
	}
}

func TestUndoRemoveNeuronRestoresIncidence(t *testing.T) {
	d := chain(t)
	mustOK(t, d.AddNeuron(Pos(1, 1), ActTanh, NoConst()))
	connect(t, d, Pos(0, 0), Pos(1, 1))
	before := snapshot(d)
	logLen := d.History().Len()

	mustOK(t, d.RemoveNeuron(Pos(0, 0)))
	if got := d.Store().SynapseCount(); got != 1 {
		t.Fatalf("SynapseCount() after remove = %d, want 1", got)
	}

	if !d.Undo() {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(d); !reflect.DeepEqual(got, before) {
		t.Errorf("state after undo:\n got  %+v\n want %+v", got, before)
	}
	if d.History().Len() != logLen {
		t.Errorf("History().Len() = %d, want %d", d.History().Len(), logLen)
	}
	n, _ := d.Store().Neuron(Pos(0, 0))
	if want := []SynapseID{0, 2}; !reflect.DeepEqual(n.Synapses, want) {
		t.Errorf("restored incident set = %v, want %v", n.Synapses, want)
	}
}

func TestUndoMoveRestoresDroppedSynapses(t *testing.T) {
	d := chain(t)
	before := snapshot(d)

	mustOK(t, d.MoveNeuron(Pos(1, 0), Pos(2, 1)))
	if d.Store().SynapseCount() != 1 {
		t.Fatalf("SynapseCount() after move = %d, want 1", d.Store().SynapseCount())
	}
	if !d.Undo() {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(d); !reflect.DeepEqual(got, before) {
		t.Errorf("state after undo:\n got  %+v\n want %+v", got, before)
	}
	if !IsValid(d.Store()) {
		t.Error("IsValid() = false after undoing the move")
	}
}

func TestUndoDoesNotLog(t *testing.T) {
	d := chain(t)
	mustOK(t, d.RemoveNeuron(Pos(1, 0)))
	n := d.History().Len()

	d.Undo()
	if d.History().Len() >= n {
		t.Errorf("History().Len() = %d after undo, want < %d", d.History().Len(), n)
	}
	for _, r := range d.History().Records() {
		if _, ok := r.(CompoundStart); ok {
			t.Errorf("compound marker left in log after undo: %v", r)
		}
	}
}

func TestClearHistory(t *testing.T) {
	d := chain(t)
	d.ClearHistory()
	if d.CanUndo() {
		t.Error("CanUndo() = true after ClearHistory")
	}
	if d.Store().NeuronCount() != 3 {
		t.Errorf("ClearHistory changed the design: %d neurons", d.Store().NeuronCount())
	}
}

func TestUndoLogBracketing(t *testing.T) {
	var l UndoLog
	if err := l.end(CompoundEnd{Tag: TagMoveNeuron}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("end() without begin = %v, want %s", err, errors.ErrCodeInternal)
	}

	l.begin(TagRemoveNeuron)
	l.begin(TagMoveNeuron)
	if !l.Open() {
		t.Error("Open() = false inside a compound")
	}
	if err := l.end(CompoundEnd{Tag: TagRemoveNeuron}); err == nil {
		t.Error("end() closing the outer compound first should fail")
	}
	if err := l.end(CompoundEnd{Tag: TagMoveNeuron}); err != nil {
		t.Errorf("end(inner) error: %v", err)
	}
	if err := l.end(CompoundEnd{Tag: TagRemoveNeuron}); err != nil {
		t.Errorf("end(outer) error: %v", err)
	}
	if l.Open() {
		t.Error("Open() = true after balanced ends")
	}
	if l.Len() != 4 {
		t.Errorf("Len() = %d, want 4", l.Len())
	}
}

func TestRecordName(t *testing.T) {
	tests := []struct {
		r    Record
		want string
	}{
		{AddNeuronRecord{}, "add_neuron"},
		{RemoveSynapseRecord{}, "remove_synapse"},
		{CompoundStart{Tag: TagMoveNeuron}, "move_neuron_start"},
		{CompoundEnd{Tag: TagRemoveNeuron}, "remove_neuron"},
	}
	for _, tt := range tests {
		if got := RecordName(tt.r); got != tt.want {
			t.Errorf("RecordName(%T) = %q, want %q", tt.r, got, tt.want)
		}
	}
}
