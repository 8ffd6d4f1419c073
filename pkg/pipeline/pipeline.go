// Package pipeline provides the core diagram pipeline for fpbviz.
//
// This package implements the complete load → layout → route → export
// pipeline that can be used by CLI, API, and worker components. By
// centralizing this logic, we ensure consistent behavior across all
// entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read a process model from a file or take one in memory
//  2. Layout: Compute element positions and system limits
//  3. Route: Compute orthogonal paths for all connections
//  4. Export: Generate output in various formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete
// pipeline. Layout and export results are cached by content hash; the
// pipeline is deterministic, so a hash hit is always a valid answer.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "plant.json",
//	    Formats: []string{"json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data := result.Artifacts["json"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/fpbviz/fpbviz/pkg/cache"
	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/export"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
	"github.com/fpbviz/fpbviz/pkg/routing"
)

// Cache TTLs per stage. Layouts are cheap to recompute, so they expire
// faster than exported artifacts.
const (
	TTLLayout = 6 * time.Hour
	TTLExport = 24 * time.Hour
)

// DefaultFormat is used when Options.Formats is empty.
const DefaultFormat = export.FormatJSON

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source is the path of a process-model JSON file. Either Source or
	// Model must be set; Model wins when both are.
	Source string `json:"source,omitempty"`

	// Model is an in-memory process model, used by the API where the
	// model arrives in the request body.
	Model *fpb.ProcessModel `json:"model,omitempty"`

	// Config holds the layout spacing parameters.
	Config layout.Config `json:"config"`

	// Formats lists the export formats to produce.
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses the cache and recomputes everything.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this execution.
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Source == "" && o.Model == nil {
		return errors.New(errors.ErrCodeInvalidInput, "either source path or model is required")
	}
	if o.Config == (layout.Config{}) {
		o.Config = layout.DefaultConfig()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if err := errors.ValidateExportFormat(f, export.Formats()); err != nil {
			return err
		}
	}
	return nil
}

// layoutKeyOpts maps the spacing config into cache key options.
func (o *Options) layoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Padding:            o.Config.Padding,
		HGap:               o.Config.HGap,
		VGap:               o.Config.VGap,
		SystemLimitPadding: o.Config.SystemLimitPadding,
		ResourceOffsetX:    o.Config.ResourceOffsetX,
	}
}

// Stats captures per-stage timings and sizes.
type Stats struct {
	LoadTime   time.Duration `json:"load_time"`
	LayoutTime time.Duration `json:"layout_time"`
	RouteTime  time.Duration `json:"route_time"`
	ExportTime time.Duration `json:"export_time"`

	ElementCount    int `json:"element_count"`
	ConnectionCount int `json:"connection_count"`
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	LayoutHit bool `json:"layout_hit"`
	ExportHit bool `json:"export_hit"`
}

// Result is the complete pipeline output.
type Result struct {
	Model     *fpb.ProcessModel          `json:"model"`
	Data      layout.DiagramData         `json:"data"`
	Routed    []routing.RoutedConnection `json:"routed"`
	Diagram   *export.Diagram            `json:"diagram"`
	Artifacts map[string][]byte          `json:"-"`

	ModelHash string    `json:"model_hash"`
	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache_info"`
}
