// Package pipeline turns a network design into its generated artifacts.
//
// This package implements the validate → generate → render pipeline shared
// by the CLI and the API server, so both produce identical output for the
// same design and options.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Validate: check every neuron's connectivity rules
//  2. Generate: build the network plan and write it as Python or JSON
//  3. Render: draw the design as DOT, SVG, PNG or PDF
//
// Generation and rendering are cached, keyed by the hash of the design
// snapshot and the options that affect the output. Validation always runs;
// an invalid design stops the pipeline before generation.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, d.Store(), pipeline.Options{
//	    Name:         "Xor",
//	    LearningRate: 0.05,
//	    Diagrams:     []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.Code)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nunet/pkg/cache"
	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultName is the class name used when none is configured.
	DefaultName = "Network"

	// DefaultFormat is the default generated code format.
	DefaultFormat = codegen.FormatPython

	// DefaultTTL is how long generated artifacts stay cached.
	DefaultTTL = 7 * 24 * time.Hour
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Generate options
	Name         string         `json:"name,omitempty"`
	LearningRate float64        `json:"learning_rate,omitempty"`
	Format       codegen.Format `json:"format,omitempty"`
	SkipGenerate bool           `json:"skip_generate,omitempty"`

	// Render options
	Diagrams  []string `json:"diagrams,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Highlight bool     `json:"highlight,omitempty"`

	// Refresh bypasses cached artifacts (results are still written back).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SnapshotHash is the content hash of the design the run started from.
	SnapshotHash string

	// Violations lists the validation failures. Non-empty only when the
	// run stopped at validation.
	Violations []design.Violation

	// Plan is the generated network plan. Nil when generation was skipped
	// or served from the cache.
	Plan *codegen.Plan

	// Code is the plan written in Options.Format.
	Code []byte

	// Diagrams contains rendered outputs keyed by format.
	Diagrams map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NeuronCount  int
	SynapseCount int
	ValidateTime time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	GenerateHit bool // Whether the generated code came from cache
	RenderHit   bool // Whether all diagrams came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateDiagram checks that a diagram format is supported.
func ValidateDiagram(format string) error {
	if !slices.Contains(nodelink.Formats, format) {
		return fmt.Errorf("invalid diagram format: %q (must be one of: %s)", format, strings.Join(nodelink.Formats, ", "))
	}
	return nil
}

// ValidateDiagrams checks that all diagram formats are supported.
func ValidateDiagrams(formats []string) error {
	for _, f := range formats {
		if err := ValidateDiagram(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset generate options and the logger.
func (o *Options) SetDefaults() {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.LearningRate == 0 {
		o.LearningRate = codegen.DefaultLearningRate
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the options. Name and learning rate
// are checked by the generator itself.
func (o *Options) Validate() error {
	o.SetDefaults()
	if _, err := codegen.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	return ValidateDiagrams(o.Diagrams)
}

// CodegenOptions returns the generator options.
func (o *Options) CodegenOptions() codegen.Options {
	return codegen.Options{Name: o.Name, LearningRate: o.LearningRate}
}

// PlanKeyOpts returns cache key options for generated code.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Name:         o.Name,
		LearningRate: o.LearningRate,
		Format:       string(o.Format),
	}
}

// RenderKeyOpts returns cache key options for one diagram format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Format:    format,
		Detailed:  o.Detailed,
		Highlight: o.Highlight,
	}
}
