// Package export serializes computed diagrams into output formats.
//
// The primary format is the diagram JSON consumed by the web frontend:
// laid-out elements, routed connection paths and system limits. For
// quick structural previews without a frontend, the package can also
// emit Graphviz DOT and render it to SVG; those ignore the computed
// geometry and let Graphviz arrange the nodes.
package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
	"github.com/fpbviz/fpbviz/pkg/observability"
	"github.com/fpbviz/fpbviz/pkg/routing"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatJSON, FormatDOT, FormatSVG}
}

// Diagram is the complete pipeline output handed to exporters.
type Diagram struct {
	Title        string                      `json:"title,omitempty"`
	Elements     []layout.DiagramElement     `json:"elements"`
	Connections  []routing.RoutedConnection  `json:"connections"`
	SystemLimits []layout.SystemLimitBounds  `json:"systemLimits,omitempty"`
	Warnings     []string                    `json:"warnings,omitempty"`
}

// Build assembles a Diagram from the pipeline stage outputs.
func Build(model *fpb.ProcessModel, data layout.DiagramData, routed []routing.RoutedConnection) *Diagram {
	d := &Diagram{
		Elements:     data.Elements,
		Connections:  routed,
		SystemLimits: data.SystemLimits,
	}
	if model != nil {
		d.Title = model.Title
		d.Warnings = model.Warnings
	}
	return d
}

// Export serializes the diagram in the requested format. The model is
// needed for the structural formats (DOT, SVG); FormatJSON works without
// it.
func Export(ctx context.Context, model *fpb.ProcessModel, d *Diagram, format string) ([]byte, error) {
	if err := errors.ValidateExportFormat(format, Formats()); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnExportStart(ctx, format)

	var out []byte
	var err error
	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(d, "", "  ")
	case FormatDOT:
		out = []byte(ToDOT(model))
	case FormatSVG:
		out, err = RenderSVG(ctx, ToDOT(model))
	}

	observability.Pipeline().OnExportComplete(ctx, format, len(out), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "export %s", format)
	}
	return out, nil
}

// WriteJSON encodes the diagram as JSON and writes it to w.
func WriteJSON(d *Diagram, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagram")
	}
	return nil
}

// ExportFile writes the diagram to path in the given format.
func ExportFile(ctx context.Context, model *fpb.ProcessModel, d *Diagram, format, path string) error {
	data, err := Export(ctx, model, d, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
