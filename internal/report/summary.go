package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
	"github.com/Sumatoshi-tech/rbbench/pkg/safeconv"
)

// SummaryOptions controls the console summary.
type SummaryOptions struct {
	NoColor bool
}

// WriteSummary renders a table with one row per round: the key count, then
// insert and lookup time for every container. The fastest lookup of each
// round is highlighted.
func WriteSummary(w io.Writer, res *bench.Results, opts SummaryOptions) {
	best := color.New(color.FgGreen, color.Bold)
	if opts.NoColor {
		best.DisableColor()
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	header := table.Row{"#", "keys"}
	for _, name := range res.Containers {
		header = append(header, name+" insert", name+" lookup")
	}

	if res.Hibernate {
		header = append(header, "arena")
	}

	tbl.AppendHeader(header)

	for _, round := range res.Rounds {
		fastest := fastestLookup(round)

		row := table.Row{round.Index, humanize.Comma(int64(round.Keys))}

		var arena int

		for _, name := range res.Containers {
			m, _ := round.Measurement(name)

			lookup := time.Duration(m.LookupNs).String()
			if m.Container == fastest && len(res.Containers) > 1 {
				lookup = best.Sprint(lookup)
			}

			row = append(row, time.Duration(m.InsertNs).String(), lookup)
			arena += m.HibernatedBytes
		}

		if res.Hibernate {
			row = append(row, humanize.Bytes(safeconv.MustIntToUint64(arena)))
		}

		tbl.AppendRow(row)
	}

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}, {Number: 2, Align: text.AlignRight}}
	tbl.SetColumnConfigs(configs)

	tbl.SetCaption("%s lookups per container, started %s",
		humanize.Comma(int64(res.Lookups)), humanize.Time(res.StartedAt))

	tbl.Render()
}

func fastestLookup(round bench.Round) string {
	var (
		name string
		best int64 = -1
	)

	for _, m := range round.Measurements {
		if best < 0 || m.LookupNs < best {
			best = m.LookupNs
			name = m.Container
		}
	}

	return name
}

// Verdict prints a colored one-line pass or fail message.
func Verdict(w io.Writer, ok bool, noColor bool, format string, args ...any) {
	c := color.New(color.FgGreen)
	prefix := "PASS"

	if !ok {
		c = color.New(color.FgRed)
		prefix = "FAIL"
	}

	if noColor {
		c.DisableColor()
	}

	c.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
