package design

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Position is a cell address on the design grid. Layer is the first
// component and decides left-to-right ordering at generation time; Offset
// orders neurons within a layer. Position is comparable and is used directly
// as a map key, so exactly one neuron may live at a given Position.
type Position struct {
	Layer  int
	Offset int
}

// Pos is shorthand for Position{Layer: layer, Offset: offset}.
func Pos(layer, offset int) Position {
	return Position{Layer: layer, Offset: offset}
}

// String formats the position as a tuple, e.g. "(1, 0)".
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Layer, p.Offset)
}

// Compare orders positions by layer, then by offset.
func (p Position) Compare(q Position) int {
	if c := cmp.Compare(p.Layer, q.Layer); c != 0 {
		return c
	}
	return cmp.Compare(p.Offset, q.Offset)
}

// ParsePosition parses "layer,offset" (whitespace and surrounding
// parentheses are tolerated, so "(1, 0)" round-trips with String).
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("position %q: want layer,offset", s)
	}
	layer, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Position{}, fmt.Errorf("position %q: layer: %w", s, err)
	}
	offset, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Position{}, fmt.Errorf("position %q: offset: %w", s, err)
	}
	return Pos(layer, offset), nil
}
