package main

import (
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"envpred/pkg/data"
	"envpred/pkg/model"
	"envpred/pkg/plotting"
	"envpred/pkg/selection"
	"envpred/pkg/stats"
)

// --- Synthetic bioclimatic stack ---

// generateBioclim samples n pixels of the 19 WorldClim variables. Each is a
// noisy mix of a few latent gradients (temperature, seasonality, wetness,
// rain seasonality), which reproduces the strong collinearity of real stacks.
func generateBioclim(n int, rng *rand.Rand) *data.Dataset {
	// loadings on the latent factors: temp, tseason, wet, pseason
	mix := [19][4]float64{
		{1, 0, 0, 0},         // bio1 annual mean temperature
		{0.2, 0.5, -0.3, 0},  // bio2 mean diurnal range
		{0.3, -0.8, 0, 0},    // bio3 isothermality
		{0, 1, 0, 0},         // bio4 temperature seasonality
		{0.9, 0.4, 0, 0},     // bio5 max temperature of warmest month
		{0.9, -0.4, 0, 0},    // bio6 min temperature of coldest month
		{0, 0.95, 0, 0},      // bio7 temperature annual range
		{0.8, 0, 0.2, 0.3},   // bio8 mean temperature of wettest quarter
		{0.8, 0, -0.2, -0.3}, // bio9 mean temperature of driest quarter
		{0.95, 0.3, 0, 0},    // bio10 mean temperature of warmest quarter
		{0.95, -0.3, 0, 0},   // bio11 mean temperature of coldest quarter
		{0, 0, 1, 0},         // bio12 annual precipitation
		{0, 0, 0.8, 0.5},     // bio13 precipitation of wettest month
		{0, 0, 0.8, -0.5},    // bio14 precipitation of driest month
		{0, 0, 0, 1},         // bio15 precipitation seasonality
		{0, 0, 0.85, 0.4},    // bio16 precipitation of wettest quarter
		{0, 0, 0.85, -0.4},   // bio17 precipitation of driest quarter
		{0.3, 0, 0.7, 0},     // bio18 precipitation of warmest quarter
		{-0.3, 0, 0.7, 0},    // bio19 precipitation of coldest quarter
	}
	vars := make([]data.Variable, len(mix))
	for j := range vars {
		vars[j] = data.Variable{Name: fmt.Sprintf("bio%d", j+1), Values: make([]float64, n)}
	}
	for i := 0; i < n; i++ {
		var f [4]float64
		for k := range f {
			f[k] = rng.NormFloat64()
		}
		for j, w := range mix {
			v := 0.3 * rng.NormFloat64() // local noise
			for k := range f {
				v += w[k] * f[k]
			}
			vars[j].Values[i] = v
		}
	}
	ds, err := data.FromVariables(vars...)
	if err != nil {
		log.Fatal(err)
	}
	return ds
}

// plotPair visualizes the most correlated pair and the OLS line through it.
func plotPair(ds *data.Dataset, pair stats.Pair, filename string) {
	a, _ := ds.Index(pair.A)
	b, _ := ds.Index(pair.B)
	x, y := ds.Column(a), ds.Column(b)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s (r = %.2f)", pair.A, pair.B, pair.R)
	p.X.Label.Text = pair.A
	p.Y.Label.Text = pair.B

	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		log.Fatal(err)
	}
	s.Color = color.RGBA{B: 255, A: 255, R: 50, G: 50}
	s.Shape = draw.CircleGlyph{}
	s.Radius = vg.Points(1)
	p.Add(s)

	X := make([][]float64, len(x))
	for i, v := range x {
		X[i] = []float64{v}
	}
	lr := model.NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		log.Fatal(err)
	}
	lo, hi := stats.MinMax(x)
	linePts := plotter.XYs{
		{X: lo, Y: lr.W[0]*lo + lr.Bias()},
		{X: hi, Y: lr.W[0]*hi + lr.Bias()},
	}
	l, err := plotter.NewLine(linePts)
	if err != nil {
		log.Fatal(err)
	}
	l.Color = color.RGBA{R: 255, A: 255}
	l.LineStyle.Width = vg.Points(3)
	p.Add(l)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, filename); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Saved pair plot to %s\n", filename)
}

// --- Main Demo ---

func main() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	fmt.Println("=== Sampling a synthetic bioclimatic stack ===")
	n := 2000
	ds := generateBioclim(n, rng)
	fmt.Printf("Sampled %d pixels of %d variables.\n", ds.NumRows(), ds.NumVars())
	for _, s := range stats.Describe(ds)[:3] {
		fmt.Printf("  %-6s mean %6.3f  sd %5.3f  [%6.3f, %6.3f]\n", s.Name, s.Mean, s.SD, s.Min, s.Max)
	}
	fmt.Println()

	// --- Correlation ---
	fmt.Println("=== Pearson correlation ===")
	m, err := stats.CorrelationMatrix(ds)
	if err != nil {
		log.Fatal(err)
	}
	pairs := stats.HighPairs(m, 0.7)
	fmt.Printf("%d of %d pairs have |r| >= 0.7\n", len(pairs), ds.NumVars()*(ds.NumVars()-1)/2)
	for _, pr := range pairs[:min(5, len(pairs))] {
		fmt.Printf("  %-5s ~ %-5s r = %6.3f\n", pr.A, pr.B, pr.R)
	}
	if err := plotting.CorrelationHeatmap(m, "bioclim_correlation.png"); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Saved correlation heatmap to bioclim_correlation.png")
	if len(pairs) > 0 {
		plotPair(ds, pairs[0], "bioclim_top_pair.png")
	}
	fmt.Println()

	// --- Least-correlated subsets ---
	fmt.Println("=== Least-correlated subsets ===")
	sel := selection.NewSelector(selection.WithWorkers(0), selection.WithLogger(logger))
	for k := 3; k <= 7; k++ {
		start := time.Now()
		res, err := sel.Select(m, k)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("k=%d  max|r| %.3f  %-40s (%d subsets in %v)\n",
			k, res.Score, strings.Join(res.Names, ","), res.Evaluated, time.Since(start))
	}
	fmt.Println()

	// --- VIF ---
	fmt.Println("=== VIF filtering ===")
	step, err := selection.VIFStep(ds, 10, logger)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("vifstep(th=10) excluded %v\n", step.Excluded)
	cor, err := selection.VIFCor(ds, 0.7, logger)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("vifcor(th=0.7) kept %v\n", cor.Kept)
	for _, e := range cor.VIF {
		fmt.Printf("  %-5s VIF %.2f\n", e.Name, e.VIF)
	}
	fmt.Println()

	// --- PCA ---
	fmt.Println("=== Principal components ===")
	pca := model.NewPCA(0)
	if err := pca.FitDataset(ds); err != nil {
		log.Fatal(err)
	}
	cum := pca.Cumulative()
	for i, sd := range pca.StdDev()[:6] {
		fmt.Printf("  PC%-2d sd %.3f  cumulative %.3f\n", i+1, sd, cum[i])
	}
	kaiser, _ := pca.Retained(model.KaiserRule, 0)
	ninety, err := pca.Retained(model.CumulativeRule, 0.9)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Kaiser rule keeps %d components, 90%% of variance needs %d\n", kaiser, ninety)
	suggested, err := pca.SuggestPredictors(kaiser)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Suggested predictors: %v\n", suggested)

	scores, err := pca.TransformDataset(ds)
	if err != nil {
		log.Fatal(err)
	}
	if err := plotting.ScreePlot(pca, "bioclim_scree.png"); err != nil {
		log.Fatal(err)
	}
	if err := plotting.Biplot(pca, scores, "bioclim_biplot.png"); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Saved scree plot and biplot to bioclim_scree.png, bioclim_biplot.png")
}
