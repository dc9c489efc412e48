// Package pipeline runs strata's load → arrange → render pipeline.
//
// The CLI and the HTTP server both go through a [Runner], so caching,
// validation and error codes behave the same at every entry point.
//
// # Stages
//
//  1. Load: decode a JSON graph document ([LoadDocument], [ReadDocument])
//  2. Arrange: write hierarchical coordinates with the hierarchy engine
//  3. Render: produce the arranged graph as JSON, DOT, SVG, PDF or PNG
//
// Arrangement results are cached by the content hash of the input graph
// (topology and starting coordinates) and the options that change the
// layout. A cache hit writes the stored coordinates back onto the graph, so
// callers cannot tell a hit from a fresh run apart from [CacheInfo].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	doc, err := pipeline.LoadDocument("services.json")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/arrange/hierarchy"
	"github.com/matzehuels/strata/pkg/buildinfo"
	"github.com/matzehuels/strata/pkg/cache"
	errs "github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/render/nodelink"
)

// =============================================================================
// Default Values
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatJSON

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

var formatList = []string{FormatJSON, FormatDOT, FormatSVG, FormatPDF, FormatPNG}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It decodes from HTTP request bodies.
type Options struct {
	// Arrange options

	// Roots names the vertices levels are counted from. When empty the
	// roots listed in the document are used.
	Roots        []string      `json:"roots,omitempty"`
	MaintainMean bool          `json:"maintain_mean,omitempty"`
	BatchWeights bool          `json:"batch_weights,omitempty"`
	MaxDuration  time.Duration `json:"max_duration,omitempty"`
	PhaseBudget  time.Duration `json:"phase_budget,omitempty"`
	Refresh      bool          `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger     `json:"-"`
	Clock  hierarchy.Clock `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the arranged graph and its resolved roots.
	Document *io.Document

	// GraphHash is the content hash of the arranged graph.
	GraphHash string

	// Arrange holds engine statistics. On a cache hit they are the statistics
	// of the run that filled the cache.
	Arrange hierarchy.Stats

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Vertices     int
	Transactions int
	ArrangeTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	ArrangeHit bool
	RenderHit  bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid. Formats are case-sensitive.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(formatList, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForArrange(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForArrange checks the fields the arrange stage reads.
func (o *Options) ValidateForArrange() error {
	for _, r := range o.Roots {
		if err := errs.ValidateLabel(r); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid root %q", r)
		}
	}
	if o.MaxDuration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "max_duration must not be negative")
	}
	if o.PhaseBudget < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "phase_budget must not be negative")
	}
	return nil
}

// SetRenderDefaults fills in the render fields left empty.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale == 0 {
		o.Scale = nodelink.DefaultScale
	}
}

// ValidateForRender checks the fields the render stage reads.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "at least one format is required")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "scale must not be negative")
	}
	return nil
}

// ArrangerOptions converts o to engine options.
func (o Options) ArrangerOptions() hierarchy.Options {
	return hierarchy.Options{
		MaintainMean: o.MaintainMean,
		BatchWeights: o.BatchWeights,
		Clock:        o.Clock,
		Logger:       o.Logger,
		MaxDuration:  o.MaxDuration,
		PhaseBudget:  o.PhaseBudget,
	}
}

// LayoutKeyOpts returns the layout cache key options for the given
// resolved root labels.
func (o Options) LayoutKeyOpts(roots []string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Roots:        roots,
		MaintainMean: o.MaintainMean,
		BatchWeights: o.BatchWeights,
		Engine:       buildinfo.Engine,
	}
}

// ArtifactKeyOpts returns the artifact cache key options for format.
func (o Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Labels: o.Labels,
		Scale:  o.Scale,
	}
}

// NodelinkOptions converts o to renderer options.
func (o Options) NodelinkOptions(doc *io.Document) nodelink.Options {
	return nodelink.Options{
		Labels: o.Labels,
		Roots:  doc.Roots,
		Scale:  o.Scale,
	}
}
