package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/rbbench/internal/report"
)

// Render output formats.
const (
	renderTable = "table"
	renderTSV   = "tsv"
	renderPlot  = "plot"
)

// ErrUnknownRenderFormat is returned for an unsupported --format value.
var ErrUnknownRenderFormat = errors.New("unknown render format")

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var (
		format  string
		output  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "render <report.json|report.yaml|report.gob>",
		Short: "Re-render a saved report",
		Long: `Render a report written by "rbbench run --report" as a console table, the
TSV artifact, or an HTML chart. JSON reports are validated against the
report schema first.

Examples:
  rbbench render results.json
  rbbench render results.yaml --format plot --output results.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := report.Load(args[0])
			if err != nil {
				return err
			}

			var write func(io.Writer) error

			switch format {
			case renderTable:
				write = func(w io.Writer) error {
					report.WriteSummary(w, res, report.SummaryOptions{NoColor: noColor})

					return nil
				}
			case renderTSV:
				write = func(w io.Writer) error { return report.WriteTSV(w, res) }
			case renderPlot:
				write = func(w io.Writer) error { return report.WritePlot(w, res) }
			default:
				return fmt.Errorf("%w: %q", ErrUnknownRenderFormat, format)
			}

			return writeFileOrStdout(cmd.OutOrStdout(), output, write)
		},
	}

	cmd.Flags().StringVar(&format, "format", renderTable, "Output format: table, tsv, plot")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output path (- for stdout)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
