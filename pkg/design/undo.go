package design

import (
	"fmt"
	"slices"

	"github.com/matzehuels/nunet/pkg/errors"
)

// CompoundTag names a multi-record logical action.
type CompoundTag int

const (
	// TagRemoveNeuron brackets a neuron removal and its synapse cascade.
	TagRemoveNeuron CompoundTag = iota + 1
	// TagMoveNeuron brackets a move and the synapses it invalidated.
	TagMoveNeuron
)

// String returns the tag name.
func (t CompoundTag) String() string {
	switch t {
	case TagRemoveNeuron:
		return "remove_neuron"
	case TagMoveNeuron:
		return "move_neuron"
	}
	return fmt.Sprintf("CompoundTag(%d)", int(t))
}

// Record is one entry of the undo log. The set of record types is closed;
// see the types below.
type Record interface {
	isRecord()
}

// AddNeuronRecord undoes by removing the neuron at Position.
type AddNeuronRecord struct {
	Position Position
}

// AddSynapseRecord undoes by removing synapse ID.
type AddSynapseRecord struct {
	ID SynapseID
}

// RemoveSynapseRecord holds a reconstruction copy of a removed synapse.
type RemoveSynapseRecord struct {
	Saved Synapse
}

// EditNeuronRecord holds the field values a neuron had before an edit.
type EditNeuronRecord struct {
	Position   Position
	Activation Activation
	Constant   *float64
	Name       string
}

// EditSynapseRecord holds the field values a synapse had before an edit.
type EditSynapseRecord struct {
	ID   SynapseID
	Init InitRange
	Bias bool
}

// CompoundStart opens a bracketed run of records.
type CompoundStart struct {
	Tag CompoundTag
}

// CompoundEnd closes the run opened by the CompoundStart with the same Tag
// and carries what the compound's own inverse needs: the removed neuron for
// TagRemoveNeuron, the move endpoints for TagMoveNeuron.
type CompoundEnd struct {
	Tag   CompoundTag
	Saved Neuron
	From  Position
	To    Position
}

func (AddNeuronRecord) isRecord()     {}
func (AddSynapseRecord) isRecord()    {}
func (RemoveSynapseRecord) isRecord() {}
func (EditNeuronRecord) isRecord()    {}
func (EditSynapseRecord) isRecord()   {}
func (CompoundStart) isRecord()       {}
func (CompoundEnd) isRecord()         {}

// RecordName returns a short, stable name for a record, used in logs and
// metrics.
func RecordName(r Record) string {
	switch r := r.(type) {
	case AddNeuronRecord:
		return "add_neuron"
	case AddSynapseRecord:
		return "add_synapse"
	case RemoveSynapseRecord:
		return "remove_synapse"
	case EditNeuronRecord:
		return "edit_neuron"
	case EditSynapseRecord:
		return "edit_synapse"
	case CompoundStart:
		return r.Tag.String() + "_start"
	case CompoundEnd:
		return r.Tag.String()
	}
	return "unknown"
}

// UndoLog is the linear, append-only history of applied mutations. Records
// are either atomic or bracketed by CompoundStart/CompoundEnd pairs sharing
// a tag; brackets must be balanced and properly nested.
type UndoLog struct {
	records []Record
	open    []CompoundTag
}

// Len returns the number of records, markers included.
func (l *UndoLog) Len() int { return len(l.records) }

// Records returns a copy of the log, oldest first.
func (l *UndoLog) Records() []Record { return slices.Clone(l.records) }

// Open reports whether a compound is currently being recorded.
func (l *UndoLog) Open() bool { return len(l.open) > 0 }

func (l *UndoLog) push(r Record) {
	l.records = append(l.records, r)
}

func (l *UndoLog) begin(tag CompoundTag) {
	l.open = append(l.open, tag)
	l.records = append(l.records, CompoundStart{Tag: tag})
}

func (l *UndoLog) end(e CompoundEnd) error {
	if len(l.open) == 0 || l.open[len(l.open)-1] != e.Tag {
		return errors.New(errors.ErrCodeInternal, "unbalanced compound end %s", e.Tag)
	}
	l.open = l.open[:len(l.open)-1]
	l.records = append(l.records, e)
	return nil
}

func (l *UndoLog) pop() (Record, bool) {
	if len(l.records) == 0 {
		return nil, false
	}
	r := l.records[len(l.records)-1]
	l.records = l.records[:len(l.records)-1]
	return r, true
}

func (l *UndoLog) clear() {
	l.records = nil
	l.open = nil
}

// =============================================================================
// Undo
// =============================================================================

// CanUndo reports whether there is anything to undo.
func (d *Designer) CanUndo() bool { return d.history.Len() > 0 }

// Undo reverses the most recent logical action: one atomic record, or a
// whole compound. Inverses are applied with recording disabled, so undo
// never grows the log and there is no redo. Returns false when the log is
// empty.
func (d *Designer) Undo() bool {
	r, ok := d.history.pop()
	if !ok {
		return false
	}
	name := RecordName(r)
	d.invert(r)
	d.logger.Debug("undo", "record", name, "remaining", d.history.Len())
	d.hooks().OnUndo(name)
	return true
}

func (d *Designer) invert(r Record) {
	switch r := r.(type) {
	case AddNeuronRecord:
		_ = d.removeNeuron(r.Position, false)
	case AddSynapseRecord:
		_ = d.removeSynapse(r.ID, false)
	case RemoveSynapseRecord:
		d.restoreSynapse(r.Saved)
	case EditNeuronRecord:
		if n := d.store.neuron(r.Position); n != nil {
			n.Activation = r.Activation
			n.Constant = r.Constant
			n.Name = r.Name
		}
	case EditSynapseRecord:
		if sy := d.store.synapse(r.ID); sy != nil {
			sy.Init = r.Init
			sy.Bias = r.Bias
		}
	case CompoundEnd:
		switch r.Tag {
		case TagRemoveNeuron:
			// The neuron must exist before its synapses re-register on it.
			_ = d.store.insertNeuron(r.Saved)
			d.unwind(r.Tag)
		case TagMoveNeuron:
			// Nested removals reference the destination cell.
			d.unwind(r.Tag)
			_ = d.moveNeuron(r.To, r.From, false)
		}
	case CompoundStart:
		// A start with no end only exists mid-compound; nothing to invert.
	}
}

// unwind pops and inverts records until the CompoundStart for tag.
func (d *Designer) unwind(tag CompoundTag) {
	for {
		r, ok := d.history.pop()
		if !ok {
			return
		}
		if s, ok := r.(CompoundStart); ok && s.Tag == tag {
			return
		}
		d.invert(r)
	}
}
