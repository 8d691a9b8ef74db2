package viz

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/obstacle"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
)

var (
	clearColor  = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	dangerColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	zoneColor   = color.RGBA{R: 230, G: 140, B: 0, A: 255}
)

// PlotSize is the edge length of the rendered scan image.
const PlotSize = 6 * vg.Inch

// WriteScanPNG renders the points of st as a top-down scatter, with points
// inside zone highlighted and the zone outline drawn.
func WriteScanPNG(w io.Writer, st vehicle.Status, zone obstacle.ScannerZone) error {
	p, err := scanPlot(st, zone)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotSize, PlotSize, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func scanPlot(st vehicle.Status, zone obstacle.ScannerZone) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cycle %d - %s", st.Cycle, st.Command)
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y ahead (mm)"
	p.Add(plotter.NewGrid())

	inside, outside := splitZone(st.Points, zone)

	outline, err := plotter.NewLine(xys(zoneOutline(zone)))
	if err != nil {
		return nil, err
	}
	outline.Color = zoneColor
	outline.Width = vg.Points(1)
	p.Add(outline)
	p.Legend.Add(fmt.Sprintf("zone <%dmm", zone.DistanceMM), outline)

	for _, series := range []struct {
		label  string
		points []scan.Point
		colour color.Color
		radius vg.Length
	}{
		{"clear", outside, clearColor, vg.Points(1.5)},
		{"danger", inside, dangerColor, vg.Points(3)},
	} {
		if len(series.points) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pointXYs(series.points))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = series.colour
		s.GlyphStyle.Radius = series.radius
		p.Add(s)
		p.Legend.Add(series.label, s)
	}

	r := extent(st.Points, zone)
	p.X.Min, p.X.Max = -r, r
	p.Y.Min, p.Y.Max = -r, r

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func pointXYs(points []scan.Point) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i].X, out[i].Y = polar(pt)
	}
	return out
}

func xys(pairs [][2]float64) plotter.XYs {
	out := make(plotter.XYs, len(pairs))
	for i, xy := range pairs {
		out[i] = plotter.XY{X: xy[0], Y: xy[1]}
	}
	return out
}
