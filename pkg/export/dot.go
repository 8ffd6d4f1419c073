package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/fpbviz/fpbviz/pkg/fpb"
)

// ToDOT converts a process model to Graphviz DOT format for structural
// previews. VDI 3682 shapes map to Graphviz ones: states draw as
// circles, process operators as rectangles, technical resources as
// hexagons. Alternative flows draw dashed, parallel flows bold, usages
// as undirected dotted edges.
func ToDOT(model *fpb.ProcessModel) string {
	var buf bytes.Buffer
	buf.WriteString("digraph FPB {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	if model == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, s := range model.States {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=circle, style=filled, fillcolor=%q];\n",
			s.ID, s.DisplayLabel(), stateFill(s.Type))
	}
	for _, p := range model.ProcessOperators {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=box, style=\"rounded,filled\", fillcolor=white];\n",
			p.ID, p.DisplayLabel())
	}
	for _, t := range model.TechnicalResources {
		fmt.Fprintf(&buf, "  %q [label=%q, shape=hexagon, style=filled, fillcolor=lightyellow];\n",
			t.ID, t.DisplayLabel())
	}

	buf.WriteString("\n")
	for _, f := range model.Flows {
		switch f.Type {
		case fpb.FlowAlternative:
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", f.SourceRef, f.TargetRef)
		case fpb.FlowParallel:
			fmt.Fprintf(&buf, "  %q -> %q [style=bold];\n", f.SourceRef, f.TargetRef)
		default:
			fmt.Fprintf(&buf, "  %q -> %q;\n", f.SourceRef, f.TargetRef)
		}
	}
	for _, u := range model.Usages {
		fmt.Fprintf(&buf, "  %q -> %q [style=dotted, dir=none];\n",
			u.ProcessOperatorRef, u.TechnicalResourceRef)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func stateFill(t fpb.StateType) string {
	switch t {
	case fpb.StateEnergy:
		return "lightpink"
	case fpb.StateInformation:
		return "lightblue"
	default:
		return "lightgrey"
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG header so the image scales
// cleanly in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
