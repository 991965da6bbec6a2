// Package plotting renders correlation and PCA diagnostics with gonum/plot.
// The output format follows the file extension (png, svg, pdf, ...).
package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"envpred/pkg/core"
	"envpred/pkg/model"
)

var (
	scoreColor   = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	loadingColor = color.RGBA{R: 255, A: 255}
)

// corrGrid adapts a CorrMatrix to plotter.GridXYZ. Row 0 is drawn at the top.
type corrGrid struct{ m *core.CorrMatrix }

func (g corrGrid) Dims() (c, r int) { return g.m.N(), g.m.N() }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(g.m.N()-1-r, c) }
func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// CorrelationHeatmap draws m on a diverging blue-red scale fixed to [-1, 1].
func CorrelationHeatmap(m *core.CorrMatrix, filename string) error {
	n := m.N()
	if n == 0 {
		return fmt.Errorf("%w: empty correlation matrix", core.ErrInvalidArgument)
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	p := plot.New()
	p.Title.Text = "Pearson correlation"
	h := plotter.NewHeatMap(corrGrid{m}, cm.Palette(255))
	h.Min, h.Max = -1, 1
	p.Add(h)

	names := m.Names()
	p.NominalX(names...)
	reversed := make([]string, n)
	for i, name := range names {
		reversed[n-1-i] = name
	}
	p.NominalY(reversed...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight

	side := vg.Length(n)*0.35*vg.Inch + 1.5*vg.Inch
	return p.Save(side, side, filename)
}

// ScreePlot draws the explained variance of each component as bars with the
// cumulative proportion as a line on top.
func ScreePlot(pca *model.PCA, filename string) error {
	prop := pca.Proportion()
	if len(prop) == 0 {
		return fmt.Errorf("%w: PCA is not fitted", core.ErrInvalidArgument)
	}
	p := plot.New()
	p.Title.Text = "Scree plot"
	p.X.Label.Text = "Component"
	p.Y.Label.Text = "Proportion of variance"
	p.Y.Min, p.Y.Max = 0, 1

	bars, err := plotter.NewBarChart(plotter.Values(prop), vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = scoreColor
	p.Add(bars)

	cum := pca.Cumulative()
	pts := make(plotter.XYs, len(cum))
	for i, c := range cum {
		pts[i] = plotter.XY{X: float64(i), Y: c}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = loadingColor
	line.LineStyle.Width = vg.Points(2)
	points.Shape = draw.CircleGlyph{}
	points.Color = loadingColor
	p.Add(line, points)
	p.Legend.Add("cumulative", line, points)
	p.Legend.Top = true

	labels := make([]string, len(prop))
	for i := range labels {
		labels[i] = fmt.Sprintf("PC%d", i+1)
	}
	p.NominalX(labels...)

	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// Biplot draws the observations on the first two components together with
// each variable's loading vector, scaled to the spread of the scores.
func Biplot(pca *model.PCA, scores [][]float64, filename string) error {
	if len(pca.Components) < 2 {
		return fmt.Errorf("%w: biplot needs at least 2 components", core.ErrInvalidArgument)
	}
	p := plot.New()
	p.Title.Text = "PCA biplot"
	prop := pca.Proportion()
	p.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", 100*prop[0])
	p.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", 100*prop[1])

	pts := make(plotter.XYs, len(scores))
	reach := 0.0
	for i, s := range scores {
		if len(s) < 2 {
			return fmt.Errorf("%w: score row %d has %d columns", core.ErrInvalidArgument, i, len(s))
		}
		pts[i] = plotter.XY{X: s[0], Y: s[1]}
		reach = math.Max(reach, math.Hypot(s[0], s[1]))
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.Color = scoreColor
		sc.Shape = draw.CircleGlyph{}
		sc.Radius = vg.Points(1.5)
		p.Add(sc)
	}
	if reach == 0 {
		reach = 1
	}

	loadings := pca.Loadings()
	ends := make(plotter.XYs, len(loadings))
	names := make([]string, len(loadings))
	for j, l := range loadings {
		end := plotter.XY{X: l[0] * reach, Y: l[1] * reach}
		arrow, err := plotter.NewLine(plotter.XYs{{}, end})
		if err != nil {
			return err
		}
		arrow.Color = loadingColor
		arrow.LineStyle.Width = vg.Points(1)
		p.Add(arrow)
		ends[j] = end
		names[j] = fmt.Sprintf("V%d", j+1)
		if j < len(pca.Names) {
			names[j] = pca.Names[j]
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: ends, Labels: names})
	if err != nil {
		return err
	}
	p.Add(labels)
	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 6*vg.Inch, filename)
}
