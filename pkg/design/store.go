package design

import (
	"maps"
	"slices"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Store owns every neuron and synapse record of a design. Neurons are keyed
// by Position and synapses by SynapseID, both with O(1) lookup.
//
// The exported API is read-only and hands out copies; writes go through
// [Designer], which enforces the graph invariants and records undo history.
// Store never cascades: removing a neuron with attached synapses is an
// orchestration concern of the Designer.
//
// The zero value is not usable - use NewStore. Store is not safe for
// concurrent use.
type Store struct {
	neurons  map[Position]*Neuron
	synapses map[SynapseID]*Synapse
	order    []SynapseID // ascending ids: the synapse iteration order

	nextNeuron  NeuronID
	nextSynapse SynapseID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		neurons:  make(map[Position]*Neuron),
		synapses: make(map[SynapseID]*Synapse),
	}
}

// Neuron returns a copy of the neuron at p.
func (s *Store) Neuron(p Position) (Neuron, bool) {
	n, ok := s.neurons[p]
	if !ok {
		return Neuron{}, false
	}
	return n.clone(), true
}

// Occupied reports whether a neuron lives at p.
func (s *Store) Occupied(p Position) bool {
	_, ok := s.neurons[p]
	return ok
}

// KindAt returns the kind of the neuron at p.
func (s *Store) KindAt(p Position) (Kind, bool) {
	n, ok := s.neurons[p]
	if !ok {
		return 0, false
	}
	return n.Kind, true
}

// Synapse returns a copy of the synapse with the given id.
func (s *Store) Synapse(id SynapseID) (Synapse, bool) {
	sy, ok := s.synapses[id]
	if !ok {
		return Synapse{}, false
	}
	return *sy, true
}

// Neurons returns copies of all neurons ordered by layer, then offset.
func (s *Store) Neurons() []Neuron {
	out := make([]Neuron, 0, len(s.neurons))
	for _, p := range s.positions() {
		out = append(out, s.neurons[p].clone())
	}
	return out
}

// Synapses returns copies of all synapses in iteration order (ascending id).
func (s *Store) Synapses() []Synapse {
	out := make([]Synapse, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.synapses[id])
	}
	return out
}

// NeuronCount returns the number of neurons.
func (s *Store) NeuronCount() int { return len(s.neurons) }

// SynapseCount returns the number of synapses.
func (s *Store) SynapseCount() int { return len(s.synapses) }

// Layers returns the distinct occupied layer indices in ascending numeric
// order. Layers need not be consecutive or start at zero.
func (s *Store) Layers() []int {
	set := make(map[int]struct{})
	for p := range s.neurons {
		set[p.Layer] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// NeuronsInLayer returns copies of the neurons in the given layer ordered by
// offset.
func (s *Store) NeuronsInLayer(layer int) []Neuron {
	var out []Neuron
	for _, p := range s.positions() {
		if p.Layer == layer {
			out = append(out, s.neurons[p].clone())
		}
	}
	return out
}

// Incident returns copies of the synapses attached to the neuron at p, in
// id order. Returns nil if p is empty.
func (s *Store) Incident(p Position) []Synapse {
	n, ok := s.neurons[p]
	if !ok {
		return nil
	}
	out := make([]Synapse, 0, len(n.Synapses))
	for _, id := range n.Synapses {
		out = append(out, *s.synapses[id])
	}
	return out
}

// SynapseBetween returns the synapse joining a and b, in either direction.
func (s *Store) SynapseBetween(a, b Position) (Synapse, bool) {
	for _, id := range s.order {
		sy := s.synapses[id]
		if (sy.Start == a && sy.End == b) || (sy.Start == b && sy.End == a) {
			return *sy, true
		}
	}
	return Synapse{}, false
}

// NameOwner returns the position of the input or output neuron called name.
func (s *Store) NameOwner(name string) (Position, bool) {
	for p, n := range s.neurons {
		if n.Kind.Named() && n.Name == name {
			return p, true
		}
	}
	return Position{}, false
}

// Names returns the names of all inputs and outputs, sorted.
func (s *Store) Names() []string {
	var names []string
	for _, n := range s.neurons {
		if n.Kind.Named() {
			names = append(names, n.Name)
		}
	}
	slices.Sort(names)
	return names
}

func (s *Store) positions() []Position {
	ps := slices.Collect(maps.Keys(s.neurons))
	slices.SortFunc(ps, Position.Compare)
	return ps
}

// =============================================================================
// Write API (package-private)
// =============================================================================

func (s *Store) allocNeuronID() NeuronID {
	id := s.nextNeuron
	s.nextNeuron++
	return id
}

func (s *Store) allocSynapseID() SynapseID {
	id := s.nextSynapse
	s.nextSynapse++
	return id
}

func (s *Store) insertNeuron(n Neuron) error {
	if _, ok := s.neurons[n.Position]; ok {
		return errors.New(errors.ErrCodePositionOccupied, "position %s is already taken", n.Position)
	}
	n = n.clone()
	s.neurons[n.Position] = &n
	return nil
}

func (s *Store) deleteNeuron(p Position) (Neuron, error) {
	n, ok := s.neurons[p]
	if !ok {
		return Neuron{}, errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", p)
	}
	delete(s.neurons, p)
	return *n, nil
}

func (s *Store) rekeyNeuron(from, to Position) error {
	n, ok := s.neurons[from]
	if !ok {
		return errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", from)
	}
	if _, ok := s.neurons[to]; ok {
		return errors.New(errors.ErrCodePositionOccupied, "position %s is already taken", to)
	}
	delete(s.neurons, from)
	n.Position = to
	s.neurons[to] = n
	return nil
}

func (s *Store) insertSynapse(sy Synapse) error {
	if _, ok := s.synapses[sy.ID]; ok {
		return errors.New(errors.ErrCodeInternal, "synapse %d already exists", sy.ID)
	}
	s.synapses[sy.ID] = &sy
	i, _ := slices.BinarySearch(s.order, sy.ID)
	s.order = slices.Insert(s.order, i, sy.ID)
	return nil
}

func (s *Store) deleteSynapse(id SynapseID) (Synapse, error) {
	sy, ok := s.synapses[id]
	if !ok {
		return Synapse{}, errors.New(errors.ErrCodeNotFound, "no synapse %d", id)
	}
	delete(s.synapses, id)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return *sy, nil
}

// neuron and synapse return the live records for in-place edits.
func (s *Store) neuron(p Position) *Neuron { return s.neurons[p] }
func (s *Store) synapse(id SynapseID) *Synapse { return s.synapses[id] }
