package codegen

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// EngineModule is the module the generated class imports its base classes from.
const EngineModule = "NuNetLibrary"

// WritePython emits p as a Python class deriving from the numeric engine's
// Network, whose constructor takes the layer lists, the synapse list and the
// learning rate:
//
//	from NuNetLibrary import *
//
//	class Example(Network):
//		def __init__(self):
//			Network.__init__(self, [[Input('x', (0, 0), 'NONE')],...], [Synapse(...),...], 0.05)
func WritePython(w io.Writer, p *Plan) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "from %s import *\n\nclass %s(Network):\n\tdef __init__(self):\n\t\tNetwork.__init__(self, [", EngineModule, p.Name)
	for i, layer := range p.Layers {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("[")
		for j, n := range layer {
			if j > 0 {
				bw.WriteString(", ")
			}
			bw.WriteString(pyNeuron(n))
		}
		bw.WriteString("]")
	}
	bw.WriteString("], [")
	for i, s := range p.Synapses {
		if i > 0 {
			bw.WriteString(",")
		}
		fmt.Fprintf(bw, "Synapse(%s, %s, {'interval' : %s, 'min' : %s, 'max' : %s}, %s)",
			pyTuple(s.Start), pyTuple(s.End),
			pyFloat(s.Interval), pyFloat(s.Min), pyFloat(s.Max), pyBool(s.Bias))
	}
	fmt.Fprintf(bw, "], %s)\n", pyFloat(p.LearningRate))

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write python: %w", err)
	}
	return nil
}

func pyNeuron(n NeuronDescriptor) string {
	var b strings.Builder
	b.WriteString(n.Tag)
	b.WriteString("(")
	if n.Tag != "Neuron" {
		b.WriteString(pyString(n.Name))
		b.WriteString(", ")
	}
	b.WriteString(pyTuple(n.Position))
	b.WriteString(", ")
	b.WriteString(pyString(n.Activation))
	if n.Constant != nil {
		b.WriteString(", ")
		b.WriteString(pyFloat(*n.Constant))
	}
	b.WriteString(")")
	return b.String()
}

func pyTuple(p [2]int) string {
	return fmt.Sprintf("(%d, %d)", p[0], p[1])
}

func pyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// pyFloat formats f the way Python's repr does: shortest round-trip digits,
// always with a decimal point or exponent, scientific below 1e-4 and from
// 1e16 up.
func pyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "float('nan')"
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
