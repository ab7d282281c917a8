package design

import (
	"io"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/observability"
)

// Designer is the single entry point for changing a design. Every mutation
// either applies fully and appends to the undo log, or is rejected with a
// coded error and leaves the store and the log untouched.
//
// Designer is not safe for concurrent use; callers that share one (the HTTP
// server, for instance) serialize access themselves.
type Designer struct {
	store   *Store
	history UndoLog
	notices Notifications
	logger  *log.Logger
}

// Option configures a Designer.
type Option func(*Designer)

// WithLogger sets the logger used for mutation tracing. Defaults to a logger
// that discards everything.
func WithLogger(l *log.Logger) Option {
	return func(d *Designer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Designer over an empty store.
func New(opts ...Option) *Designer {
	d := &Designer{
		store:  NewStore(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the read-only view of the design.
func (d *Designer) Store() *Store { return d.store }

// History returns the undo log.
func (d *Designer) History() *UndoLog { return &d.history }

// ClearHistory drops every undo record. Used after a design is loaded so the
// load itself cannot be undone piecemeal.
func (d *Designer) ClearHistory() { d.history.clear() }

func (d *Designer) hooks() observability.DesignHooks { return observability.Design() }

// done traces the outcome of a public mutation.
func (d *Designer) done(op string, err error) error {
	if err != nil {
		d.logger.Debug("mutation rejected", "op", op, "code", errors.GetCode(err), "err", err)
	} else {
		d.logger.Debug("mutation applied", "op", op, "neurons", d.store.NeuronCount(), "synapses", d.store.SynapseCount())
	}
	d.hooks().OnMutation(op, err)
	return err
}

// =============================================================================
// Add
// =============================================================================

// AddNeuron places a hidden neuron at p.
func (d *Designer) AddNeuron(p Position, act Activation, constant Field[*float64]) error {
	return d.done("add_neuron", d.addNeuron(KindHidden, p, act, constant, Field[string]{}))
}

// AddInput places a named input neuron at p.
func (d *Designer) AddInput(p Position, act Activation, constant Field[*float64], name Field[string]) error {
	return d.done("add_input", d.addNeuron(KindInput, p, act, constant, name))
}

// AddOutput places a named output neuron at p. act must be a loss function.
func (d *Designer) AddOutput(p Position, loss Activation, constant Field[*float64], name Field[string]) error {
	return d.done("add_output", d.addNeuron(KindOutput, p, loss, constant, name))
}

func (d *Designer) addNeuron(k Kind, p Position, act Activation, constant Field[*float64], name Field[string]) error {
	if d.store.Occupied(p) {
		return errors.New(errors.ErrCodePositionOccupied, "position %s is already taken", p)
	}
	act, c, err := resolveActivation(k, act, constant)
	if err != nil {
		return err
	}
	n := Neuron{Kind: k, Position: p, Activation: act, Constant: c}
	if k.Named() {
		if err := d.checkName(k, name, nil); err != nil {
			return err
		}
		n.Name = name.Value
	}
	n.ID = d.store.allocNeuronID()
	if err := d.store.insertNeuron(n); err != nil {
		return err
	}
	d.history.push(AddNeuronRecord{Position: p})
	return nil
}

// AddSynapse connects start and end. The endpoints may be given in either
// order; they are stored with Start in the lower layer. Returns the new id.
func (d *Designer) AddSynapse(start, end Position, r RangeInput, bias bool) (SynapseID, error) {
	id, err := d.addSynapse(start, end, r, bias)
	return id, d.done("add_synapse", err)
}

func (d *Designer) addSynapse(start, end Position, r RangeInput, bias bool) (SynapseID, error) {
	start, end = normalize(start, end)
	if _, dup := d.store.SynapseBetween(start, end); dup {
		return 0, errors.New(errors.ErrCodeTopology, "a synapse between %s and %s already exists", start, end)
	}
	if start == end {
		return 0, errors.New(errors.ErrCodeTopology, "cannot connect %s to itself", start)
	}
	if start.Layer == end.Layer {
		return 0, errors.New(errors.ErrCodeTopology, "cannot connect neurons in the same layer %d", start.Layer)
	}
	if k, ok := d.store.KindAt(end); ok && k == KindInput {
		return 0, errors.New(errors.ErrCodeTopology, "input %s cannot be fed by a synapse", end)
	}
	if k, ok := d.store.KindAt(start); ok && k == KindOutput {
		return 0, errors.New(errors.ErrCodeTopology, "output %s cannot feed a synapse", start)
	}
	if !d.store.Occupied(start) || !d.store.Occupied(end) {
		return 0, errors.New(errors.ErrCodePositionEmpty, "a synapse from %s to %s must join two neurons", start, end)
	}
	init, err := checkRange(r)
	if err != nil {
		return 0, err
	}

	sy := Synapse{ID: d.store.allocSynapseID(), Start: start, End: end, Init: init, Bias: bias}
	d.restoreSynapse(sy)
	d.history.push(AddSynapseRecord{ID: sy.ID})
	return sy.ID, nil
}

// restoreSynapse inserts sy and registers it on both endpoints. The caller
// guarantees both endpoints exist.
func (d *Designer) restoreSynapse(sy Synapse) {
	if err := d.store.insertSynapse(sy); err != nil {
		d.logger.Error("restore synapse", "id", sy.ID, "err", err)
		return
	}
	d.store.neuron(sy.Start).attach(sy.ID)
	d.store.neuron(sy.End).attach(sy.ID)
}

// =============================================================================
// Edit
// =============================================================================

// EditNeuron changes the activation and constant of the hidden neuron at p.
func (d *Designer) EditNeuron(p Position, act Activation, constant Field[*float64]) error {
	return d.done("edit_neuron", d.editNeuron(KindHidden, p, act, constant, Field[string]{}))
}

// EditInput changes the activation, constant and name of the input at p.
func (d *Designer) EditInput(p Position, act Activation, constant Field[*float64], name Field[string]) error {
	return d.done("edit_input", d.editNeuron(KindInput, p, act, constant, name))
}

// EditOutput changes the loss, constant and name of the output at p.
func (d *Designer) EditOutput(p Position, loss Activation, constant Field[*float64], name Field[string]) error {
	return d.done("edit_output", d.editNeuron(KindOutput, p, loss, constant, name))
}

func (d *Designer) editNeuron(k Kind, p Position, act Activation, constant Field[*float64], name Field[string]) error {
	n := d.store.neuron(p)
	if n == nil {
		return errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", p)
	}
	if n.Kind != k {
		return errors.New(errors.ErrCodeInvalidField, "neuron at %s is %s, not %s", p, n.Kind, k)
	}
	act, c, err := resolveActivation(k, act, constant)
	if err != nil {
		return err
	}
	if k.Named() {
		if err := d.checkName(k, name, &p); err != nil {
			return err
		}
	}

	prev := EditNeuronRecord{Position: p, Activation: n.Activation, Constant: n.Constant, Name: n.Name}
	n.Activation = act
	n.Constant = c
	if k.Named() {
		n.Name = name.Value
	}
	d.history.push(prev)
	return nil
}

// EditSynapse replaces the initialisation range and bias flag of synapse id.
func (d *Designer) EditSynapse(id SynapseID, r RangeInput, bias bool) error {
	return d.done("edit_synapse", d.editSynapse(id, r, bias))
}

func (d *Designer) editSynapse(id SynapseID, r RangeInput, bias bool) error {
	sy := d.store.synapse(id)
	if sy == nil {
		return errors.New(errors.ErrCodeNotFound, "no synapse %d", id)
	}
	init, err := checkRange(r)
	if err != nil {
		return err
	}
	d.history.push(EditSynapseRecord{ID: id, Init: sy.Init, Bias: sy.Bias})
	sy.Init = init
	sy.Bias = bias
	return nil
}

// =============================================================================
// Remove
// =============================================================================

// RemoveSynapse deletes synapse id and unregisters it from both endpoints.
func (d *Designer) RemoveSynapse(id SynapseID) error {
	return d.done("remove_synapse", d.removeSynapse(id, true))
}

func (d *Designer) removeSynapse(id SynapseID, record bool) error {
	sy, ok := d.store.Synapse(id)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "no synapse %d", id)
	}
	if n := d.store.neuron(sy.Start); n != nil {
		n.detach(id)
	}
	if n := d.store.neuron(sy.End); n != nil {
		n.detach(id)
	}
	if _, err := d.store.deleteSynapse(id); err != nil {
		return err
	}
	if record {
		d.history.push(RemoveSynapseRecord{Saved: sy})
	}
	return nil
}

// RemoveNeuron deletes the neuron at p together with every incident synapse.
// The cascade is one logical action: a single Undo restores all of it.
func (d *Designer) RemoveNeuron(p Position) error {
	return d.done("remove_neuron", d.removeNeuron(p, true))
}

func (d *Designer) removeNeuron(p Position, record bool) error {
	n := d.store.neuron(p)
	if n == nil {
		return errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", p)
	}
	if record {
		d.history.begin(TagRemoveNeuron)
	}
	for _, id := range slices.Clone(n.Synapses) {
		if err := d.removeSynapse(id, record); err != nil {
			return err
		}
	}
	saved, err := d.store.deleteNeuron(p)
	if err != nil {
		return err
	}
	if record {
		return d.history.end(CompoundEnd{Tag: TagRemoveNeuron, Saved: saved.clone()})
	}
	return nil
}

// =============================================================================
// Move
// =============================================================================

// MoveNeuron relocates the neuron at from to the empty cell to, carrying its
// attributes and incident synapses along. Synapses the move makes illegal
// (same layer, feeding an input, fed by an output) are removed as part of
// the same logical action.
func (d *Designer) MoveNeuron(from, to Position) error {
	return d.done("move_neuron", d.moveNeuron(from, to, true))
}

func (d *Designer) moveNeuron(from, to Position, record bool) error {
	if d.store.Occupied(to) {
		return errors.New(errors.ErrCodePositionOccupied, "position %s is already taken", to)
	}
	if !d.store.Occupied(from) {
		return errors.New(errors.ErrCodePositionEmpty, "no neuron at %s", from)
	}
	if record {
		d.history.begin(TagMoveNeuron)
	}
	if err := d.store.rekeyNeuron(from, to); err != nil {
		return err
	}
	n := d.store.neuron(to)
	for _, id := range n.Synapses {
		sy := d.store.synapse(id)
		switch {
		case sy.Start == from:
			sy.Start = to
		case sy.End == from:
			sy.End = to
		}
		sy.Start, sy.End = normalize(sy.Start, sy.End)
	}
	for _, id := range slices.Clone(n.Synapses) {
		if sy, _ := d.store.Synapse(id); d.illegal(sy) {
			if err := d.removeSynapse(id, record); err != nil {
				return err
			}
		}
	}
	if record {
		return d.history.end(CompoundEnd{Tag: TagMoveNeuron, From: from, To: to})
	}
	return nil
}

// illegal reports whether an existing synapse breaks a placement rule.
func (d *Designer) illegal(sy Synapse) bool {
	if sy.Start.Layer == sy.End.Layer {
		return true
	}
	if k, _ := d.store.KindAt(sy.End); k == KindInput {
		return true
	}
	if k, _ := d.store.KindAt(sy.Start); k == KindOutput {
		return true
	}
	return false
}

// =============================================================================
// Field checks
// =============================================================================

// resolveActivation canonicalizes act for kind k and decides the constant to
// store. A constant is mandatory for activations that take one; for the
// others a valid constant is kept and an invalid one is dropped.
func resolveActivation(k Kind, act Activation, constant Field[*float64]) (Activation, *float64, error) {
	canon, ok := ParseActivation(k, string(act))
	if !ok {
		if k == KindOutput {
			return "", nil, errors.New(errors.ErrCodeInvalidField, "unknown loss function %q", act)
		}
		return "", nil, errors.New(errors.ErrCodeInvalidField, "unknown activation %q", act)
	}
	hasValue := constant.Valid && constant.Value != nil
	if hasValue && (math.IsNaN(*constant.Value) || math.IsInf(*constant.Value, 0)) {
		return "", nil, errors.New(errors.ErrCodeInvalidField, "constant for %s must be a finite number", canon)
	}
	if canon.RequiresConstant() && !hasValue {
		return "", nil, errors.New(errors.ErrCodeInvalidField, "%s requires a constant", canon)
	}
	if !hasValue {
		return canon, nil, nil
	}
	c := *constant.Value
	return canon, &c, nil
}

// checkName validates the name of an input or output. self is the position
// of the neuron being edited, whose current name does not count as taken.
func (d *Designer) checkName(k Kind, name Field[string], self *Position) error {
	if !name.Valid || strings.TrimSpace(name.Value) == "" {
		return errors.New(errors.ErrCodeInvalidField, "%s neurons need a name", k)
	}
	if owner, taken := d.store.NameOwner(name.Value); taken && (self == nil || owner != *self) {
		return errors.New(errors.ErrCodeNameCollision, "name %q is already used at %s", name.Value, owner)
	}
	return nil
}

func checkRange(r RangeInput) (InitRange, error) {
	for _, f := range []struct {
		label string
		field Field[float64]
	}{
		{"interval", r.Interval},
		{"min", r.Min},
		{"max", r.Max},
	} {
		if !f.field.Valid || math.IsNaN(f.field.Value) || math.IsInf(f.field.Value, 0) {
			return InitRange{}, errors.New(errors.ErrCodeInvalidField, "synapse %s is not a valid number", f.label)
		}
	}
	if r.Interval.Value <= 0 {
		return InitRange{}, errors.New(errors.ErrCodeInvalidField, "synapse interval must be positive, got %v", r.Interval.Value)
	}
	if r.Min.Value > r.Max.Value {
		return InitRange{}, errors.New(errors.ErrCodeRangeInversion, "synapse min %v exceeds max %v", r.Min.Value, r.Max.Value)
	}
	return InitRange{Interval: r.Interval.Value, Min: r.Min.Value, Max: r.Max.Value}, nil
}
