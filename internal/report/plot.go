package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/rbbench/internal/bench"
)

const (
	chartWidth      = "100%"
	chartHeight     = "480px"
	chartBackground = "#1e1e2e"
	chartText       = "#cdd6f4"
	chartTextMuted  = "#a6adc8"
	chartAxis       = "#585b70"
	chartGrid       = "#313244"
	lineWidth       = 2
)

// seriesPalette colors container lines in Containers order.
var seriesPalette = []string{"#89b4fa", "#f38ba8", "#a6e3a1", "#fab387"}

// WritePlot renders an HTML page with insert and lookup time per key count.
func WritePlot(w io.Writer, res *bench.Results) error {
	page := components.NewPage()
	page.PageTitle = "rbbench"

	page.AddCharts(
		timeChart(res, "Insert time", func(m bench.Measurement) int64 { return m.InsertNs }),
		timeChart(res, fmt.Sprintf("Lookup time (%s lookups)", humanize.Comma(int64(res.Lookups))),
			func(m bench.Measurement) int64 { return m.LookupNs }),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func timeChart(res *bench.Results, title string, value func(bench.Measurement) int64) *charts.Line {
	labels := make([]string, len(res.Rounds))
	for i, round := range res.Rounds {
		labels[i] = humanize.Comma(int64(round.Keys))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			Left:       "center",
			TitleStyle: &opts.TextStyle{Color: chartText},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "8%",
			TextStyle: &opts.TextStyle{Color: chartTextMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "keys",
			AxisLabel: &opts.AxisLabel{Color: chartTextMuted},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: chartAxis}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      "ms",
			Type:      "log",
			AxisLabel: &opts.AxisLabel{Color: chartTextMuted},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartGrid}},
		}),
		charts.WithGridOpts(opts.Grid{Top: "20%", Bottom: "12%", ContainLabel: opts.Bool(true)}),
	)
	line.SetXAxis(labels)

	for i, name := range res.Containers {
		data := make([]opts.LineData, len(res.Rounds))

		for j, round := range res.Rounds {
			m, _ := round.Measurement(name)
			data[j] = opts.LineData{Value: float64(value(m)) / float64(time.Millisecond)}
		}

		line.AddSeries(name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesPalette[i%len(seriesPalette)]}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
		)
	}

	return line
}
