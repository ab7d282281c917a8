package pipeline

import (
	"context"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/render/nodelink"
)

// Render draws the design in every format of opts.Diagrams, uncached.
func Render(ctx context.Context, s *design.Store, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(s, nodelink.Options{Detailed: opts.Detailed, Highlight: opts.Highlight})
	out := make(map[string][]byte, len(opts.Diagrams))
	for _, format := range opts.Diagrams {
		data, err := nodelink.Render(ctx, dot, format)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		out[format] = data
	}
	return out, nil
}
