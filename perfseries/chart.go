// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfseries

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/streamlab/kperf/perfscore"
)

// ChartSize is the size of a rendered chart.
type ChartSize struct {
	// Width and Height are in centimeters.
	Width, Height float64
	DPI           int
}

// DefaultChartSize is used for a zero ChartSize.
var DefaultChartSize = ChartSize{Width: 24, Height: 15, DPI: 96}

func (s ChartSize) orDefault() ChartSize {
	if s.Width <= 0 || s.Height <= 0 || s.DPI <= 0 {
		return DefaultChartSize
	}
	return s
}

var errNoPoints = errors.New("no points to chart")

// KneeChart renders the latency-vs-throughput scatter of the board's
// rows as a PNG, one series per acks setting, with the knee of the
// curve marked.
func KneeChart(w io.Writer, b *perfscore.Board, size ChartSize) error {
	if len(b.Rows) == 0 {
		return errNoPoints
	}

	series := make(map[string]plotter.XYs)
	for _, r := range b.Rows {
		acks := r.Acks()
		if acks == "" {
			acks = "unset"
		}
		series[acks] = append(series[acks], plotter.XY{X: r.ThroughputMB, Y: r.AvgLatencyMS})
	}
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return dimLess(names[i], names[j]) })

	pl := plot.New()
	pl.Title.Text = "Latency vs throughput"
	pl.X.Label.Text = "throughput (MB/s)"
	pl.Y.Label.Text = "avg latency (ms)"
	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	pl.Add(grid)

	for i, name := range names {
		sc, err := plotter.NewScatter(series[name])
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		pl.Add(sc)
		pl.Legend.Add("acks="+name, sc)
	}

	if k := perfscore.Knee(b.Rows); k != nil {
		sc, err := plotter.NewScatter(plotter.XYs{{X: k.ThroughputMB, Y: k.AvgLatencyMS}})
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.Black
		sc.GlyphStyle.Shape = crossGlyph{}
		sc.GlyphStyle.Radius = vg.Points(8)
		pl.Add(sc)
		pl.Legend.Add(fmt.Sprintf("knee (%.1f MB/s)", k.ThroughputMB), sc)
	}
	pl.Legend.Top = true

	return writePNG(w, pl, size)
}

// ScalingChart renders mean and per-producer throughput against the
// number of producers as a PNG.
func ScalingChart(w io.Writer, s *ScalingReport, size ChartSize) error {
	if len(s.Points) == 0 {
		return errNoPoints
	}
	var total, per plotter.XYs
	for _, p := range s.Points {
		total = append(total, plotter.XY{X: float64(p.Producers), Y: p.ThroughputMB})
		per = append(per, plotter.XY{X: float64(p.Producers), Y: p.PerProducerMB})
	}

	pl := plot.New()
	pl.Title.Text = "Producer scaling"
	pl.X.Label.Text = "producers"
	pl.Y.Label.Text = "throughput (MB/s)"
	pl.Add(plotter.NewGrid())
	for i, l := range []struct {
		name string
		xys  plotter.XYs
	}{
		{"mean throughput", total},
		{"per producer", per},
	} {
		line, pts, err := plotter.NewLinePoints(l.xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		pts.Color = plotutil.Color(i)
		pts.Shape = plotutil.Shape(i)
		pl.Add(line, pts)
		pl.Legend.Add(l.name, line, pts)
	}
	return writePNG(w, pl, size)
}

func writePNG(w io.Writer, pl *plot.Plot, size ChartSize) error {
	size = size.orDefault()
	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(
		vgimg.UseWH(vg.Length(size.Width)*vg.Centimeter, vg.Length(size.Height)*vg.Centimeter),
		vgimg.UseDPI(size.DPI),
		vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(can))
	_, err := can.WriteTo(w)
	return err
}

const cosπover4 = vg.Length(.707106781202420)

// crossGlyph is a heavier version of draw.CrossGlyph.
type crossGlyph struct{}

// DrawGlyph implements the draw.GlyphDrawer interface.
func (crossGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: vg.Points(2)})
	r := sty.Radius * cosπover4
	p := make(vg.Path, 0, 2)
	p.Move(vg.Point{X: pt.X - r, Y: pt.Y - r})
	p.Line(vg.Point{X: pt.X + r, Y: pt.Y + r})
	c.Stroke(p)
	p = p[:0]
	p.Move(vg.Point{X: pt.X - r, Y: pt.Y + r})
	p.Line(vg.Point{X: pt.X + r, Y: pt.Y - r})
	c.Stroke(p)
}
