package script

import (
	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
)

// Defaults fill synapse fields a step leaves out.
type Defaults struct {
	Interval float64
	Min      float64
	Max      float64
	Bias     bool
}

// DefaultSynapse is the built-in synapse initialization.
var DefaultSynapse = Defaults{Interval: 0.1, Min: -1, Max: 1, Bias: true}

// Options controls Apply.
type Options struct {
	Defaults Defaults

	// KeepGoing reports a failed step to the designer's notifications and
	// continues instead of stopping.
	KeepGoing bool
}

// Result counts what Apply did.
type Result struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Undone  int `json:"undone"`
}

// Apply runs each step against d in order. Without KeepGoing the first
// failing step stops the run; the steps before it stay applied and can be
// undone individually. The returned error names the failing step.
func Apply(d *design.Designer, s *Script, opts Options) (Result, error) {
	var res Result
	for i, st := range s.Steps {
		if st.Op == OpUndo {
			n := max(st.Count, 1)
			for j := 0; j < n && d.Undo(); j++ {
				res.Undone++
			}
			res.Applied++
			continue
		}
		if err := run(d, st, opts.Defaults); err != nil {
			res.Failed++
			err = errors.Wrap(errors.GetCode(err), err, "step %d (%s)", i+1, st.Op)
			if !opts.KeepGoing {
				return res, err
			}
			d.Report(err)
			continue
		}
		res.Applied++
	}
	return res, nil
}

func run(d *design.Designer, st Step, def Defaults) error {
	switch st.Op {
	case OpAddNeuron:
		return d.AddNeuron(pos(st.At), design.Activation(st.Activation), constant(st.Constant))
	case OpAddInput:
		return d.AddInput(pos(st.At), design.Activation(st.Activation), constant(st.Constant), design.Valid(st.Name))
	case OpAddOutput:
		return d.AddOutput(pos(st.At), design.Activation(st.Activation), constant(st.Constant), design.Valid(st.Name))
	case OpEditNeuron:
		return d.EditNeuron(pos(st.At), design.Activation(st.Activation), constant(st.Constant))
	case OpEditInput:
		return d.EditInput(pos(st.At), design.Activation(st.Activation), constant(st.Constant), design.Valid(st.Name))
	case OpEditOutput:
		return d.EditOutput(pos(st.At), design.Activation(st.Activation), constant(st.Constant), design.Valid(st.Name))
	case OpAddSynapse:
		_, err := d.AddSynapse(pos(st.From), pos(st.To), st.rangeInput(def), st.bias(def))
		return err
	case OpEditSynapse:
		sy, err := between(d, st)
		if err != nil {
			return err
		}
		// Unset fields keep the synapse's current values.
		cur := Defaults{Interval: sy.Init.Interval, Min: sy.Init.Min, Max: sy.Init.Max, Bias: sy.Bias}
		return d.EditSynapse(sy.ID, st.rangeInput(cur), st.bias(cur))
	case OpRemoveSynapse:
		sy, err := between(d, st)
		if err != nil {
			return err
		}
		return d.RemoveSynapse(sy.ID)
	case OpRemoveNeuron:
		return d.RemoveNeuron(pos(st.At))
	case OpMove:
		return d.MoveNeuron(pos(st.From), pos(st.To))
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown op %q", st.Op)
}

func between(d *design.Designer, st Step) (design.Synapse, error) {
	from, to := pos(st.From), pos(st.To)
	sy, ok := d.Store().SynapseBetween(from, to)
	if !ok {
		return design.Synapse{}, errors.New(errors.ErrCodeNotFound, "no synapse between %s and %s", from, to)
	}
	return sy, nil
}

func pos(p *[2]int) design.Position {
	return design.Pos(p[0], p[1])
}

func constant(c *float64) design.Field[*float64] {
	if c == nil {
		return design.NoConst()
	}
	return design.Const(*c)
}

func (s Step) rangeInput(def Defaults) design.RangeInput {
	pick := func(v *float64, fallback float64) float64 {
		if v != nil {
			return *v
		}
		return fallback
	}
	return design.Range(pick(s.Interval, def.Interval), pick(s.Min, def.Min), pick(s.Max, def.Max))
}

func (s Step) bias(def Defaults) bool {
	if s.Bias != nil {
		return *s.Bias
	}
	return def.Bias
}
