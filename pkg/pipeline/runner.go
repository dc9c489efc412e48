package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/arrange/hierarchy"
	"github.com/matzehuels/strata/pkg/cache"
	errs "github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/render/nodelink"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// unknownRoot names no vertex of any graph.
const unknownRoot graph.VertexID = -1

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state. Multiple goroutines can share one
// Runner as long as each arranges its own document.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// LayoutTTL and ArtifactTTL override the cache defaults when positive.
	LayoutTTL   time.Duration
	ArtifactTTL time.Duration
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
	}
}

// Execute arranges doc in place and renders it in every requested format.
func (r *Runner) Execute(ctx context.Context, doc *io.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{Document: doc}
	result.Stats.Vertices = doc.Graph.VertexCount()
	result.Stats.Transactions = doc.Graph.TransactionCount()

	arrangeStart := time.Now()
	stats, hit, err := r.ArrangeWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Arrange = stats
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	result.CacheInfo.ArrangeHit = hit

	r.Logger.Info("arranged graph",
		"vertices", result.Stats.Vertices,
		"transactions", result.Stats.Transactions,
		"levels", stats.MaxLevel+1,
		"cached", hit,
		"duration", result.Stats.ArrangeTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	if h, err := contentHash(doc); err == nil {
		result.GraphHash = h
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// layoutEntry is what the layout cache stores.
type layoutEntry struct {
	Positions json.RawMessage `json:"positions"`
	Stats     hierarchy.Stats `json:"stats"`
}

// ArrangeWithCacheInfo arranges doc in place and reports whether the
// coordinates came from the cache.
//
// Runs cut short by the refinement deadline are not cached, since a later
// run with more time may do better.
func (r *Runner) ArrangeWithCacheInfo(ctx context.Context, doc *io.Document, opts Options) (hierarchy.Stats, bool, error) {
	if err := opts.ValidateForArrange(); err != nil {
		return hierarchy.Stats{}, false, err
	}
	r.applyLogger(&opts)

	g := doc.Graph
	roots, rootLabels, missing := ResolveRoots(doc, opts)
	if len(missing) > 0 {
		opts.Logger.Warn("ignoring unknown roots", "roots", missing)
	}
	doc.Roots = roots
	doc.MissingRoots = missing

	hooks := observability.Pipeline()
	hooks.OnArrangeStart(ctx, g.VertexCount())
	start := time.Now()

	inputHash, err := contentHash(doc)
	if err != nil {
		return hierarchy.Stats{}, false, errs.Wrap(errs.ErrCodeInternal, err, "hash graph")
	}
	// Unknown roots stay in the key: a run whose roots are all unknown
	// falls back to a synthetic root, a run without roots does nothing.
	keyRoots := slices.Concat(rootLabels, missing)
	cacheKey := r.Keyer.LayoutKey(inputHash, opts.LayoutKeyOpts(keyRoots))

	if !opts.Refresh {
		if stats, ok := r.cachedLayout(ctx, g, cacheKey); ok {
			hooks.OnArrangeComplete(ctx, arrangeEvent(g, stats, true), time.Since(start), nil)
			return stats, true, nil
		}
	}

	engineRoots := roots
	if len(roots) == 0 && len(missing) > 0 {
		// Every named root is unknown: let the engine fall back to its
		// synthetic root instead of skipping the graph.
		engineRoots = []graph.VertexID{unknownRoot}
	}
	stats, err := hierarchy.New(opts.ArrangerOptions()).Arrange(ctx, g, engineRoots)
	hooks.OnArrangeComplete(ctx, arrangeEvent(g, stats, false), time.Since(start), err)
	if err != nil {
		return stats, false, errs.FromContext(err, errs.ErrCodeInternal, "arrange")
	}

	if stats.DeadlineExceeded {
		opts.Logger.Debug("refinement hit its deadline, not caching layout")
		return stats, false, nil
	}
	r.storeLayout(ctx, opts.Logger, cacheKey, g, stats)
	return stats, false, nil
}

// storeLayout caches the coordinates of g under key. Failures are logged
// and otherwise ignored.
func (r *Runner) storeLayout(ctx context.Context, logger *log.Logger, key string, g graph.View, stats hierarchy.Stats) {
	positions, err := io.MarshalPositions(g)
	if err != nil {
		logger.Warn("encode layout failed, not caching", "key", key, "err", err)
		return
	}
	data, err := json.Marshal(layoutEntry{Positions: positions, Stats: stats})
	if err != nil {
		logger.Warn("encode layout failed, not caching", "key", key, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.ttl(r.LayoutTTL, cache.TTLLayout)); err != nil {
		logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
}

// cachedLayout applies a cached layout onto g. Undecodable entries count
// as misses.
func (r *Runner) cachedLayout(ctx context.Context, g *graph.Graph, key string) (hierarchy.Stats, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return hierarchy.Stats{}, false
	}
	var entry layoutEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return hierarchy.Stats{}, false
	}
	if err := io.ApplyPositions(g, entry.Positions); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
		return hierarchy.Stats{}, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeLayout)
	return entry.Stats, true
}

// Arrange is a convenience wrapper that calls ArrangeWithCacheInfo and discards the cache hit info.
func (r *Runner) Arrange(ctx context.Context, doc *io.Document, opts Options) (hierarchy.Stats, error) {
	stats, _, err := r.ArrangeWithCacheInfo(ctx, doc, opts)
	return stats, err
}

// RenderWithCacheInfo renders doc in every format of opts and reports
// whether all artifacts came from the cache. JSON output is never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *io.Document, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hash, err := contentHash(doc)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeInternal, err, "hash graph")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			var buf bytes.Buffer
			if err := io.WriteJSON(doc, &buf); err != nil {
				return nil, false, errs.Wrap(errs.ErrCodeInternal, err, "render json")
			}
			artifacts[format] = buf.Bytes()
			continue
		}

		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		allCached = false

		data, err := r.renderFormat(ctx, doc, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, r.ttl(r.ArtifactTTL, cache.TTLArtifact)); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *io.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

func (r *Runner) renderFormat(ctx context.Context, doc *io.Document, format string, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()

	data, err := nodelink.Render(ctx, doc.Graph, format, opts.NodelinkOptions(doc))
	hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, errs.FromContext(err, errs.ErrCodeInternal, "render %s", format)
	}
	opts.Logger.Debug("rendered", "format", format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
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

func (r *Runner) ttl(override, def time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return def
}

// contentHash hashes the topology, coordinates and roots of doc.
func contentHash(doc *io.Document) (string, error) {
	topo, err := io.MarshalGraph(doc.Graph)
	if err != nil {
		return "", err
	}
	pos, err := io.MarshalPositions(doc.Graph)
	if err != nil {
		return "", err
	}
	roots := make([]string, 0, len(doc.Roots))
	for _, id := range doc.Roots {
		roots = append(roots, doc.Graph.Label(id))
	}
	rootData, err := json.Marshal(roots)
	if err != nil {
		return "", err
	}
	data := make([]byte, 0, len(topo)+len(pos)+len(rootData))
	data = append(data, topo...)
	data = append(data, pos...)
	data = append(data, rootData...)
	return cache.Hash(data), nil
}

func arrangeEvent(g *graph.Graph, stats hierarchy.Stats, hit bool) observability.ArrangeEvent {
	return observability.ArrangeEvent{
		Vertices:         g.VertexCount(),
		Transactions:     g.TransactionCount(),
		MaxLevel:         stats.MaxLevel,
		Passes:           stats.Passes,
		Swaps:            stats.AlignSwaps + stats.MinimiseSwaps,
		DeadlineExceeded: stats.DeadlineExceeded,
		CacheHit:         hit,
	}
}
