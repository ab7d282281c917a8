// Package design holds the editable model of a feed-forward neural network
// laid out on a two-dimensional grid.
//
// # Overview
//
// A design is a set of neurons placed at grid cells and a set of synapses
// joining them. The first coordinate of a [Position] is the layer, the
// second the offset within the layer. Layers need not be consecutive and a
// synapse may skip layers; it must always run from a lower layer to a higher
// one.
//
// Three neuron variants exist (see [Kind]): hidden neurons, named inputs and
// named outputs. Outputs carry a loss function instead of an activation.
//
// # Editing
//
// All changes go through a [Designer]. Each verb checks every precondition
// before writing anything, so a rejected call leaves the design and its
// history untouched and returns a coded error from pkg/errors:
//
//	d := design.New()
//	_ = d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x"))
//	_ = d.AddNeuron(design.Pos(1, 0), design.ActTanh, design.NoConst())
//	_, err := d.AddSynapse(design.Pos(1, 0), design.Pos(0, 0), design.Range(0.1, -1, 1), true)
//
// Endpoints may be given in either order; the stored synapse always starts
// in the lower layer.
//
// # Undo
//
// Every applied verb appends to an [UndoLog]. Removing a neuron and moving a
// neuron are compound actions: the synapses they drop are logged inside a
// CompoundStart/CompoundEnd bracket and a single [Designer.Undo] restores
// all of it. There is no redo.
//
// # Validity
//
// Intermediate designs are expected to be incomplete, so validity is only
// checked on demand with [Check], [IsValid] or [Validate]. Code generation
// refuses invalid designs.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use.
package design
