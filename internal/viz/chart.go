package viz

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

// WriteScanHTML renders the points of st as an interactive echarts scatter.
func WriteScanHTML(w io.Writer, st vehicle.Status, zone obstacle.ScannerZone) error {
	inside, outside := splitZone(st.Points, zone)
	pad := extent(st.Points, zone)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Range scan", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Cycle %d: %s", st.Cycle, st.Command),
			Subtitle: fmt.Sprintf("points=%d in_zone=%d scanner=%s ultrasonic=%s", len(st.Points), len(inside), st.Scanner, st.Ultrasonic),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y ahead (mm)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("clear", scatterData(outside),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}),
	)
	scatter.AddSeries("danger", scatterData(inside),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#e53935"}),
	)

	outline := make([]opts.ScatterData, 0)
	for _, xy := range zoneOutline(zone) {
		outline = append(outline, opts.ScatterData{Value: []interface{}{xy[0], xy[1]}})
	}
	scatter.AddSeries("zone", outline,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#fb8c00"}),
	)

	return scatter.Render(w)
}

func scatterData(points []scan.Point) []opts.ScatterData {
	out := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		x, y := polar(p)
		out = append(out, opts.ScatterData{
			Value: []interface{}{x, y, p.Angle, p.Distance},
			Name:  p.String(),
		})
	}
	return out
}
