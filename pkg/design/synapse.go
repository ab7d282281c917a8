package design

// SynapseID identifies a synapse. IDs are assigned monotonically by the
// Store and never reused; ascending id order is creation order.
type SynapseID int

// InitRange governs the random weight (and bias) draw performed by the
// numeric engine: min + k*interval for a random k with the result in
// [min, max].
type InitRange struct {
	Interval float64
	Min      float64
	Max      float64
}

// Synapse is a directed weighted connection. Start always lies in a lower
// layer than End.
type Synapse struct {
	ID    SynapseID
	Start Position
	End   Position
	Init  InitRange
	Bias  bool
}

// Other returns the endpoint opposite p.
func (s Synapse) Other(p Position) Position {
	if s.Start == p {
		return s.End
	}
	return s.Start
}

// normalize swaps the endpoints when they were given in layer-descending
// order.
func normalize(start, end Position) (Position, Position) {
	if start.Layer > end.Layer {
		return end, start
	}
	return start, end
}
