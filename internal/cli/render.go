package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fpbviz/fpbviz/pkg/pipeline"
)

// renderCommand creates the render command for exporting diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render [model.json]",
		Short: "Render a process model to JSON, DOT or SVG",
		Long: `Render a process model to one or more output formats.

The render command runs the full pipeline: load, layout, routing and
export. With a single format the artifact goes to --output (or a file
next to the input); with multiple formats one file per format is
written, named base.format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], output, parseFormats(formatsStr), noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached artifacts exist")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, noCache, refresh bool) error {
	prog := newProgress(c.Logger)

	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}

	result, err := runner.Execute(ctx, pipeline.Options{
		Source:  input,
		Formats: formats,
		Refresh: refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(formats)))

	if len(formats) == 1 {
		path := output
		if path == "" {
			path = basePath("", input) + "." + formats[0]
		}
		if err := writeArtifact(path, result.Artifacts[formats[0]]); err != nil {
			return err
		}
		printSuccess("Wrote %s", path)
	} else {
		base := basePath(output, input)
		for _, f := range formats {
			path := base + "." + f
			if err := writeArtifact(path, result.Artifacts[f]); err != nil {
				return err
			}
			printFile(path)
		}
	}

	printStats(result.Stats.ElementCount, result.Stats.ConnectionCount, result.CacheInfo.LayoutHit)
	return nil
}

func writeArtifact(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
