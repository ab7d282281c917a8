package design

import (
	"reflect"
	"testing"

	"github.com/matzehuels/nunet/pkg/errors"
)

func TestStoreInsertNeuron(t *testing.T) {
	s := NewStore()
	if err := s.insertNeuron(Neuron{Position: Pos(0, 0), Kind: KindInput, Name: "x"}); err != nil {
		t.Fatalf("insertNeuron() error: %v", err)
	}

	err := s.insertNeuron(Neuron{Position: Pos(0, 0)})
	if !errors.Is(err, errors.ErrCodePositionOccupied) {
		t.Errorf("insertNeuron(occupied) = %v, want %s", err, errors.ErrCodePositionOccupied)
	}
	n, _ := s.Neuron(Pos(0, 0))
	if n.Name != "x" {
		t.Errorf("Name = %q after failed insert, want %q", n.Name, "x")
	}
}

func TestStoreDeleteMissing(t *testing.T) {
	s := NewStore()
	if _, err := s.deleteNeuron(Pos(3, 3)); !errors.Is(err, errors.ErrCodePositionEmpty) {
		t.Errorf("deleteNeuron(missing) = %v, want %s", err, errors.ErrCodePositionEmpty)
	}
	if _, err := s.deleteSynapse(7); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("deleteSynapse(missing) = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestStoreSynapseOrder(t *testing.T) {
	s := NewStore()
	for _, id := range []SynapseID{4, 1, 3} {
		if err := s.insertSynapse(Synapse{ID: id}); err != nil {
			t.Fatalf("insertSynapse(%d) error: %v", id, err)
		}
	}
	if _, err := s.deleteSynapse(3); err != nil {
		t.Fatalf("deleteSynapse() error: %v", err)
	}
	if err := s.insertSynapse(Synapse{ID: 2}); err != nil {
		t.Fatalf("insertSynapse(2) error: %v", err)
	}
	if err := s.insertSynapse(Synapse{ID: 2}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("insertSynapse(duplicate) = %v, want %s", err, errors.ErrCodeInternal)
	}

	var got []SynapseID
	for _, sy := range s.Synapses() {
		got = append(got, sy.ID)
	}
	want := []SynapseID{1, 2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Synapses() ids = %v, want %v", got, want)
	}
}

func TestStoreLayers(t *testing.T) {
	s := NewStore()
	for _, p := range []Position{Pos(10, 1), Pos(2, 0), Pos(10, 0), Pos(-1, 4)} {
		if err := s.insertNeuron(Neuron{Position: p}); err != nil {
			t.Fatalf("insertNeuron(%s) error: %v", p, err)
		}
	}

	if got, want := s.Layers(), []int{-1, 2, 10}; !reflect.DeepEqual(got, want) {
		t.Errorf("Layers() = %v, want %v", got, want)
	}

	var offsets []int
	for _, n := range s.NeuronsInLayer(10) {
		offsets = append(offsets, n.Position.Offset)
	}
	if want := []int{0, 1}; !reflect.DeepEqual(offsets, want) {
		t.Errorf("NeuronsInLayer(10) offsets = %v, want %v", offsets, want)
	}
	if got := s.NeuronsInLayer(5); len(got) != 0 {
		t.Errorf("NeuronsInLayer(5) = %v, want empty", got)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	c := 0.5
	s := NewStore()
	_ = s.insertNeuron(Neuron{Position: Pos(1, 0), Activation: ActLinear, Constant: &c, Synapses: []SynapseID{1}})

	n, _ := s.Neuron(Pos(1, 0))
	*n.Constant = 9
	n.Synapses[0] = 99

	again, _ := s.Neuron(Pos(1, 0))
	if *again.Constant != 0.5 {
		t.Errorf("Constant = %v after caller write, want 0.5", *again.Constant)
	}
	if again.Synapses[0] != 1 {
		t.Errorf("Synapses[0] = %v after caller write, want 1", again.Synapses[0])
	}
}

func TestStoreRekey(t *testing.T) {
	s := NewStore()
	_ = s.insertNeuron(Neuron{Position: Pos(0, 0)})
	_ = s.insertNeuron(Neuron{Position: Pos(1, 0)})

	if err := s.rekeyNeuron(Pos(0, 0), Pos(1, 0)); !errors.Is(err, errors.ErrCodePositionOccupied) {
		t.Errorf("rekeyNeuron(to occupied) = %v, want %s", err, errors.ErrCodePositionOccupied)
	}
	if err := s.rekeyNeuron(Pos(0, 0), Pos(2, 0)); err != nil {
		t.Fatalf("rekeyNeuron() error: %v", err)
	}
	if s.Occupied(Pos(0, 0)) {
		t.Error("old position still occupied after rekey")
	}
	n, ok := s.Neuron(Pos(2, 0))
	if !ok || n.Position != Pos(2, 0) {
		t.Errorf("Neuron(2,0) = %+v, %v; want Position (2, 0)", n, ok)
	}
}

func TestStoreNames(t *testing.T) {
	s := NewStore()
	_ = s.insertNeuron(Neuron{Position: Pos(2, 0), Kind: KindOutput, Name: "y"})
	_ = s.insertNeuron(Neuron{Position: Pos(0, 0), Kind: KindInput, Name: "x"})
	_ = s.insertNeuron(Neuron{Position: Pos(1, 0), Kind: KindHidden})

	if got, want := s.Names(), []string{"x", "y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if p, ok := s.NameOwner("y"); !ok || p != Pos(2, 0) {
		t.Errorf("NameOwner(y) = %v, %v; want (2, 0), true", p, ok)
	}
	if _, ok := s.NameOwner(""); ok {
		t.Error("NameOwner(\"\") matched a hidden neuron")
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"1,0", Pos(1, 0), false},
		{"(1, 0)", Pos(1, 0), false},
		{" -2 , 7 ", Pos(-2, 7), false},
		{"1", Position{}, true},
		{"a,b", Position{}, true},
		{"1,2,3", Position{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePosition(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPositionStringRoundTrip(t *testing.T) {
	p := Pos(3, -1)
	got, err := ParsePosition(p.String())
	if err != nil {
		t.Fatalf("ParsePosition(%q) error: %v", p.String(), err)
	}
	if got != p {
		t.Errorf("round trip = %v, want %v", got, p)
	}
}

func TestParseActivation(t *testing.T) {
	tests := []struct {
		kind   Kind
		in     string
		want   Activation
		wantOK bool
	}{
		{KindHidden, "tanh", ActTanh, true},
		{KindHidden, "leaky relu", ActLeakyReLU, true},
		{KindInput, " ELU ", ActELU, true},
		{KindOutput, "huber loss", LossHuber, true},
		{KindOutput, "tanh", "", false},
		{KindHidden, "mse", "", false},
		{KindHidden, "swish", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseActivation(tt.kind, tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseActivation(%s, %q) = %q, %v; want %q, %v", tt.kind, tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRequiresConstant(t *testing.T) {
	want := map[Activation]bool{ActLinear: true, ActELU: true, ActLeakyReLU: true, LossHuber: true}
	for _, k := range []Kind{KindHidden, KindOutput} {
		for _, a := range Vocabulary(k) {
			if got := a.RequiresConstant(); got != want[a] {
				t.Errorf("%q.RequiresConstant() = %v, want %v", a, got, want[a])
			}
		}
	}
}
