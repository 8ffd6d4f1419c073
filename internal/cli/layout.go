package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fpbviz/fpbviz/pkg/export"
	"github.com/fpbviz/fpbviz/pkg/pipeline"
)

// layoutCommand creates the layout command for computing diagram layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [model.json]",
		Short: "Compute a diagram layout from a process model",
		Long: `Compute a diagram layout from a process model.

The layout command takes a process-model JSON file and computes element
positions, system-limit bounds and routed connections. The output is a
diagram JSON file that the editor frontend (or 'render') can draw.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache, refresh bool) error {
	prog := newProgress(c.Logger)

	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}

	result, err := runner.Execute(ctx, pipeline.Options{
		Source:  input,
		Formats: []string{export.FormatJSON},
		Refresh: refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done("Computed layout")

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(result.Artifacts[export.FormatJSON]); err != nil {
		return err
	}

	if output != "" {
		printSuccess("Wrote %s", output)
		printStats(result.Stats.ElementCount, result.Stats.ConnectionCount, result.CacheInfo.LayoutHit)
	}
	return nil
}
