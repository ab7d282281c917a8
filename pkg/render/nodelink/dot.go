package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/render"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds positions and constants to neuron labels and the
	// initialization range to synapse labels.
	Detailed bool

	// Highlight outlines neurons that fail validation in red.
	Highlight bool
}

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

var kindStyle = map[design.Kind]string{
	design.KindInput:  `shape=box, style="rounded,filled", fillcolor="#d8f0d8"`,
	design.KindHidden: `shape=ellipse, style=filled, fillcolor=white`,
	design.KindOutput: `shape=box, style="rounded,filled", fillcolor="#f8e0c8"`,
}

// ToDOT converts a design to Graphviz DOT. Layers run left to right and
// neurons within a layer top to bottom by offset. Synapses are drawn from
// the lower layer to the higher one; synapses without bias are dashed.
func ToDOT(s *design.Store, opts Options) string {
	broken := map[design.Position]bool{}
	if opts.Highlight {
		for _, v := range design.Check(s) {
			broken[v.Position] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for _, layer := range s.Layers() {
		fmt.Fprintf(&buf, "\n  subgraph layer_%s {\n    rank=same;\n", layerID(layer))
		for _, n := range s.NeuronsInLayer(layer) {
			attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)), kindStyle[n.Kind]}
			if broken[n.Position] {
				attrs = append(attrs, "color=red", "penwidth=2")
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", nodeID(n.Position), strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	if s.SynapseCount() > 0 {
		buf.WriteString("\n")
	}
	for _, sy := range s.Synapses() {
		var attrs []string
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmt.Sprintf("[%g, %g] / %g", sy.Init.Min, sy.Init.Max, sy.Init.Interval)))
		}
		if !sy.Bias {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %q -> %q", nodeID(sy.Start), nodeID(sy.End))
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(p design.Position) string {
	return fmt.Sprintf("n%s_%s", layerID(p.Layer), layerID(p.Offset))
}

// layerID renders negative coordinates without a minus sign, which DOT
// identifiers cannot contain.
func layerID(v int) string {
	if v < 0 {
		return "m" + strconv.Itoa(-v)
	}
	return strconv.Itoa(v)
}

func fmtLabel(n design.Neuron, detailed bool) string {
	var parts []string
	if n.Kind.Named() {
		parts = append(parts, n.Name)
	}
	parts = append(parts, string(n.Activation))
	if detailed {
		if n.Constant != nil {
			parts[len(parts)-1] += fmt.Sprintf(" (%g)", *n.Constant)
		}
		parts = append(parts, n.Position.String())
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// Render produces the named format from DOT source.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	case FormatPDF:
		return RenderPDF(ctx, dot)
	}
	return nil, fmt.Errorf("unsupported diagram format %q (must be one of: %s)", format, strings.Join(Formats, ", "))
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
