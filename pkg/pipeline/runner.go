package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fpbviz/fpbviz/pkg/cache"
	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/export"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
	"github.com/fpbviz/fpbviz/pkg/observability"
	"github.com/fpbviz/fpbviz/pkg/routing"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
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

// Execute runs the complete load → layout → route → export pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	model, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Model = model
	result.Stats.LoadTime = time.Since(loadStart)

	if data, err := fpb.MarshalModel(model); err == nil {
		result.ModelHash = cache.Hash(data)
	}

	logger.Info("loaded model",
		"elements", model.ElementCount(),
		"edges", model.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	data, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, model, result.ModelHash, opts)
	if err != nil {
		return nil, err
	}
	result.Data = data
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.ElementCount = len(data.Elements)
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"elements", len(data.Elements),
		"systems", len(data.SystemLimits),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Route
	routeStart := time.Now()
	result.Routed = r.Route(ctx, data)
	result.Stats.RouteTime = time.Since(routeStart)
	result.Stats.ConnectionCount = len(result.Routed)

	logger.Info("routed connections",
		"connections", len(result.Routed),
		"duration", result.Stats.RouteTime)

	result.Diagram = export.Build(model, data, result.Routed)

	// Stage 4: Export
	exportStart := time.Now()
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, model, result.Diagram, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	logger.Info("exported diagram",
		"formats", opts.Formats,
		"cached", exportHit,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Load reads the process model from the configured source.
func (r *Runner) Load(ctx context.Context, opts Options) (*fpb.ProcessModel, error) {
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Source)

	var model *fpb.ProcessModel
	var err error
	if opts.Model != nil {
		model = opts.Model
	} else {
		model, err = fpb.ReadModelFile(opts.Source)
	}

	count := 0
	if model != nil {
		count = model.ElementCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Source, count, time.Since(start), err)

	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "load model from %s", opts.Source)
	}
	return model, nil
}

// ComputeLayoutWithCacheInfo computes the layout with caching and
// returns cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, model *fpb.ProcessModel, modelHash string, opts Options) (layout.DiagramData, bool, error) {
	cacheKey := r.Keyer.LayoutKey(modelHash, opts.layoutKeyOpts())

	if !opts.Refresh && modelHash != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.DiagramData
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Corrupt entry: fall through and recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, model.ElementCount())
	data := layout.Compute(model, opts.Config)
	observability.Pipeline().OnLayoutComplete(ctx, model.ElementCount(), time.Since(start), nil)

	if modelHash != "" {
		if encoded, err := json.Marshal(data); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, encoded, TTLLayout)
			observability.Cache().OnCacheSet(ctx, "layout", len(encoded))
		}
	}

	return data, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, model *fpb.ProcessModel, opts Options) (layout.DiagramData, error) {
	data, _, err := r.ComputeLayoutWithCacheInfo(ctx, model, "", opts)
	return data, err
}

// Route computes orthogonal paths for all connections. Routing is fast
// enough that it is never cached on its own.
func (r *Runner) Route(ctx context.Context, data layout.DiagramData) []routing.RoutedConnection {
	start := time.Now()
	observability.Pipeline().OnRouteStart(ctx, len(data.Connections))
	routed := routing.Compute(data.Elements, data.Connections)
	observability.Pipeline().OnRouteComplete(ctx, len(data.Connections), time.Since(start), nil)
	return routed
}

// ExportWithCacheInfo produces all requested artifacts with caching and
// returns cache hit info.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, model *fpb.ProcessModel, d *export.Diagram, opts Options) (map[string][]byte, bool, error) {
	diagramData, err := json.Marshal(d)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize diagram for cache key")
	}
	diagramHash := cache.Hash(diagramData)

	// Try to get all formats from cache.
	allCached := !opts.Refresh
	artifacts := make(map[string][]byte)
	if allCached {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ExportKey(diagramHash, cache.ExportKeyOpts{Format: format})
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "export")
		return artifacts, true, nil
	}

	// Export all formats.
	artifacts = make(map[string][]byte)
	for _, format := range opts.Formats {
		data, err := export.Export(ctx, model, d, format)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data

		cacheKey := r.Keyer.ExportKey(diagramHash, cache.ExportKeyOpts{Format: format})
		_ = r.Cache.Set(ctx, cacheKey, data, TTLExport)
		observability.Cache().OnCacheSet(ctx, "export", len(data))
	}

	return artifacts, false, nil
}

// Export is a convenience wrapper that discards the cache hit info.
func (r *Runner) Export(ctx context.Context, model *fpb.ProcessModel, d *export.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.ExportWithCacheInfo(ctx, model, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
