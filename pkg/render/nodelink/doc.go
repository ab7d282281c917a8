// Package nodelink draws a network design as a node-link diagram.
//
// Each layer becomes one rank of a left-to-right Graphviz graph. Inputs and
// outputs are rounded boxes labeled with their names, hidden neurons are
// ellipses labeled with their activation. Synapses without a bias are
// dashed.
//
//	dot := nodelink.ToDOT(d.Store(), nodelink.Options{Highlight: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// With Highlight set, neurons that fail validation are outlined in red,
// which makes an unfinished design easy to read.
//
// SVG and PNG are rendered in-process by [github.com/goccy/go-graphviz].
// PDF conversion requires librsvg (rsvg-convert).
package nodelink
