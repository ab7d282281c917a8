// Package render draws network designs as diagrams.
//
// The [nodelink] subpackage turns a design into Graphviz DOT, one column per
// layer, and renders it in-process to SVG or PNG. [ToPDF] converts any SVG
// to PDF with the external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(d.Store(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/nunet/pkg/render/nodelink
package render
