package design

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Violation describes one neuron that breaks a connectivity rule.
type Violation struct {
	Position Position
	Kind     Kind
	Reason   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.Position, v.Reason)
}

// Check returns every connectivity violation in s, ordered by position:
//   - a hidden neuron needs at least one incoming and one outgoing synapse
//   - an input needs at least one synapse, and all of them outgoing
//   - an output needs at least one synapse, and all of them incoming
//
// Check does not look for cycles or unreachable neurons; the layer ordering
// of synapses already rules out cycles.
func Check(s *Store) []Violation {
	var out []Violation
	for _, p := range s.positions() {
		n := s.neurons[p]
		var in, outgoing int
		for _, id := range n.Synapses {
			if s.synapses[id].End == p {
				in++
			} else {
				outgoing++
			}
		}
		add := func(reason string) {
			out = append(out, Violation{Position: p, Kind: n.Kind, Reason: reason})
		}
		switch n.Kind {
		case KindHidden:
			if in == 0 {
				add("no incoming synapse")
			}
			if outgoing == 0 {
				add("no outgoing synapse")
			}
		case KindInput:
			if in+outgoing == 0 {
				add("not connected")
			} else if in > 0 {
				add("has incoming synapses")
			}
		case KindOutput:
			if in+outgoing == 0 {
				add("not connected")
			} else if outgoing > 0 {
				add("has outgoing synapses")
			}
		}
	}
	return out
}

// IsValid reports whether s has no violations.
func IsValid(s *Store) bool {
	return len(Check(s)) == 0
}

// Validate returns a DESIGN_INVALID error listing every violation, or nil.
func Validate(s *Store) error {
	vs := Check(s)
	if len(vs) == 0 {
		return nil
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return errors.New(errors.ErrCodeDesignInvalid, "design is not valid: %s", strings.Join(parts, "; "))
}
