package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"envpred/pkg/core"
	"envpred/pkg/data"
	"envpred/pkg/dataprep"
	"envpred/pkg/model"
	"envpred/pkg/stats"
)

// VIFEntry is the variance inflation factor of one variable.
type VIFEntry struct {
	Name string  `json:"name" yaml:"name"`
	VIF  float64 `json:"vif" yaml:"vif"`
}

// MarshalJSON writes an infinite VIF (perfect collinearity) as the string "Inf".
func (e VIFEntry) MarshalJSON() ([]byte, error) {
	type plain struct {
		Name string `json:"name"`
		VIF  any    `json:"vif"`
	}
	p := plain{Name: e.Name, VIF: e.VIF}
	if math.IsInf(e.VIF, 1) {
		p.VIF = "Inf"
	}
	return json.Marshal(p)
}

// VIF computes 1/(1-R²) for every variable, where R² comes from regressing it
// on all the others by OLS. Perfectly collinear variables get +Inf, or a VIF
// that is only bounded by rounding error.
func VIF(d *data.Dataset) ([]VIFEntry, error) {
	p := d.NumVars()
	if p < 2 {
		return nil, fmt.Errorf("%w: VIF needs at least 2 variables, got %d", core.ErrInvalidArgument, p)
	}
	out := make([]VIFEntry, p)
	others := make([]int, 0, p-1)
	for j, name := range d.Names {
		others = others[:0]
		for i := 0; i < p; i++ {
			if i != j {
				others = append(others, i)
			}
		}
		X := dataprep.FeatureSelect(d.Rows, others)
		y := d.Column(j)

		reg := model.NewLinearRegression()
		if err := reg.Fit(X, y); err != nil {
			if errors.Is(err, model.ErrSingular) {
				out[j] = VIFEntry{Name: name, VIF: math.Inf(1)}
				continue
			}
			return nil, fmt.Errorf("VIF of %s: %w", name, err)
		}
		out[j] = VIFEntry{Name: name, VIF: vifFromR2(reg.Score(X, y))}
	}
	return out, nil
}

func vifFromR2(r2 float64) float64 {
	if r2 >= 1 {
		return math.Inf(1)
	}
	return 1 / (1 - r2)
}

// StepResult is the outcome of a stepwise collinearity filter.
type StepResult struct {
	Excluded []string   `json:"excluded" yaml:"excluded"` // in removal order
	Kept     []string   `json:"kept" yaml:"kept"`
	VIF      []VIFEntry `json:"vif" yaml:"vif"` // VIFs of the kept variables
}

// VIFStep repeatedly drops the variable with the largest VIF while that VIF
// is at least th (usdm's vifstep). A common threshold is 10.
func VIFStep(d *data.Dataset, th float64, logger *zap.Logger) (*StepResult, error) {
	if th <= 0 {
		return nil, fmt.Errorf("%w: VIF threshold must be positive, got %g", core.ErrInvalidArgument, th)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &StepResult{}
	cur := d
	for {
		vifs, err := keptVIF(cur)
		if err != nil {
			return nil, err
		}
		worst := 0
		for i, e := range vifs {
			if e.VIF > vifs[worst].VIF {
				worst = i
			}
		}
		if vifs[worst].VIF < th || cur.NumVars() == 1 {
			res.Kept = cur.Names
			res.VIF = vifs
			return res, nil
		}
		logger.Info("Excluding variable by VIF",
			zap.String("variable", vifs[worst].Name),
			zap.Float64("vif", vifs[worst].VIF),
			zap.Float64("threshold", th))
		res.Excluded = append(res.Excluded, vifs[worst].Name)
		if cur, err = cur.Select(without(cur.Names, worst)...); err != nil {
			return nil, err
		}
	}
}

// VIFCor repeatedly finds the most correlated pair among the kept variables
// and, while its |r| is at least th, drops whichever of the two has the larger
// VIF within the kept set (usdm's vifcor). A common threshold is 0.7.
func VIFCor(d *data.Dataset, th float64, logger *zap.Logger) (*StepResult, error) {
	if th <= 0 || th > 1 {
		return nil, fmt.Errorf("%w: correlation threshold must be in (0, 1], got %g", core.ErrInvalidArgument, th)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cm, err := stats.CorrelationMatrix(d)
	if err != nil {
		return nil, err
	}

	res := &StepResult{}
	cur := d
	for cur.NumVars() > 1 {
		sub, err := cm.Sub(cur.Names...)
		if err != nil {
			return nil, err
		}
		r, i, j := sub.MaxOffDiagonal()
		if r < th {
			break
		}
		vifs, err := VIF(cur)
		if err != nil {
			return nil, err
		}
		drop := j
		if vifs[i].VIF > vifs[j].VIF {
			drop = i
		}
		logger.Info("Excluding variable by correlation",
			zap.String("variable", cur.Names[drop]),
			zap.String("pair", cur.Names[i]+"~"+cur.Names[j]),
			zap.Float64("r", r),
			zap.Float64("vif", vifs[drop].VIF))
		res.Excluded = append(res.Excluded, cur.Names[drop])
		if cur, err = cur.Select(without(cur.Names, drop)...); err != nil {
			return nil, err
		}
	}

	vifs, err := keptVIF(cur)
	if err != nil {
		return nil, err
	}
	res.Kept = cur.Names
	res.VIF = vifs
	return res, nil
}

// keptVIF is VIF, except that a lone variable has nothing to be collinear
// with and gets a VIF of 1.
func keptVIF(d *data.Dataset) ([]VIFEntry, error) {
	if d.NumVars() == 1 {
		return []VIFEntry{{Name: d.Names[0], VIF: 1}}, nil
	}
	return VIF(d)
}

func without(names []string, drop int) []string {
	out := make([]string, 0, len(names)-1)
	out = append(out, names[:drop]...)
	return append(out, names[drop+1:]...)
}
