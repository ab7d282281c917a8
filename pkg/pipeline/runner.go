package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/cache"
	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/observability"
)

// Cache key types reported to the cache hooks.
const (
	keyTypePlan   = "plan"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options, as long as each passes a store no other
// goroutine is mutating.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// SnapshotHash returns the content hash of a design. Two stores holding
// the same neurons and synapses in the same order hash equally.
func SnapshotHash(s *design.Store) (string, error) {
	return cache.HashJSON(io.FromStore(s, uuid.Nil, ""))
}

// Execute runs validation, then generation and rendering as requested by
// opts. When the design is invalid and generation was requested, Execute
// returns the partial result holding the violations together with the
// DESIGN_INVALID error.
func (r *Runner) Execute(ctx context.Context, s *design.Store, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
		}
		return nil, err
	}

	hash, err := SnapshotHash(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash design")
	}
	result := &Result{
		SnapshotHash: hash,
		Diagrams:     make(map[string][]byte),
	}
	result.Stats.NeuronCount = s.NeuronCount()
	result.Stats.SynapseCount = s.SynapseCount()

	// Stage 1: Validate
	validateStart := time.Now()
	violations, err := r.Validate(ctx, s)
	result.Stats.ValidateTime = time.Since(validateStart)
	result.Violations = violations

	// Stage 2: Generate
	if !opts.SkipGenerate {
		if err != nil {
			return result, err
		}
		genStart := time.Now()
		code, plan, hit, err := r.GenerateWithCacheInfo(ctx, s, hash, opts)
		if err != nil {
			return result, err
		}
		result.Code = code
		result.Plan = plan
		result.Stats.GenerateTime = time.Since(genStart)
		result.CacheInfo.GenerateHit = hit

		r.Logger.Info("generated network",
			"name", opts.Name,
			"format", opts.Format,
			"bytes", len(code),
			"cached", hit,
			"duration", result.Stats.GenerateTime)
	}

	// Stage 3: Render
	if len(opts.Diagrams) > 0 {
		renderStart := time.Now()
		diagrams, hit, err := r.RenderWithCacheInfo(ctx, s, hash, opts)
		if err != nil {
			return result, err
		}
		result.Diagrams = diagrams
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = hit

		r.Logger.Info("rendered diagrams",
			"formats", opts.Diagrams,
			"cached", hit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Validate checks the design and reports the outcome to the pipeline
// hooks. The error is DESIGN_INVALID when any violation was found.
func (r *Runner) Validate(ctx context.Context, s *design.Store) ([]design.Violation, error) {
	start := time.Now()
	violations := design.Check(s)
	observability.Pipeline().OnValidateComplete(ctx, len(violations), time.Since(start))

	r.Logger.Info("validated design",
		"neurons", s.NeuronCount(),
		"synapses", s.SynapseCount(),
		"violations", len(violations))
	for _, v := range violations {
		r.Logger.Debug("violation", "neuron", v.String())
	}

	if len(violations) > 0 {
		return violations, design.Validate(s)
	}
	return nil, nil
}

// GenerateWithCacheInfo builds and writes the network plan with caching.
// The plan is nil on a cache hit.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, s *design.Store, hash string, opts Options) ([]byte, *codegen.Plan, bool, error) {
	opts.SetDefaults()
	cacheKey := r.Keyer.PlanKey(hash, opts.PlanKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypePlan)
			return data, nil, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypePlan)

	start := time.Now()
	observability.Pipeline().OnGenerateStart(ctx, string(opts.Format), s.NeuronCount())
	code, plan, err := generate(s, opts)
	observability.Pipeline().OnGenerateComplete(ctx, string(opts.Format), time.Since(start), err)
	if err != nil {
		return nil, nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, code, r.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, keyTypePlan, len(code))
	} else {
		r.Logger.Warn("cache write failed", "key", keyTypePlan, "error", err)
	}
	return code, plan, false, nil
}

func generate(s *design.Store, opts Options) ([]byte, *codegen.Plan, error) {
	plan, err := codegen.Generate(s, opts.CodegenOptions())
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := codegen.Write(&buf, plan, opts.Format); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.Format)
	}
	return buf.Bytes(), plan, nil
}

// RenderWithCacheInfo draws the design in every requested format with
// caching. The hit flag is set only when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *design.Store, hash string, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateDiagrams(opts.Diagrams); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "render")
	}

	diagrams := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Diagrams {
			key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			diagrams[format] = data
		}
		if len(diagrams) == len(opts.Diagrams) {
			observability.Cache().OnCacheHit(ctx, keyTypeRender)
			return diagrams, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeRender)

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Diagrams)
	rendered, err := Render(ctx, s, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Diagrams, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.TTL); err == nil {
			observability.Cache().OnCacheSet(ctx, keyTypeRender, len(data))
		}
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// String summarizes the result for logs.
func (res *Result) String() string {
	return fmt.Sprintf("%d neurons, %d synapses, %d violations, %d bytes code, %d diagrams",
		res.Stats.NeuronCount, res.Stats.SynapseCount, len(res.Violations), len(res.Code), len(res.Diagrams))
}
