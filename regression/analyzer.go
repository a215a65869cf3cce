package regression

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Sample is one observed (container size, encoded bytes) pair, gathered
// by instrumenting real Encode calls or replaying a stored corpus.
type Sample struct {
	// ItemCount is the number of top-level elements the encoded
	// container held (an array's length, a map's entry count).
	ItemCount int
	// EncodedBytes is the total wire size that call produced.
	EncodedBytes int
}

// Analyze fits every candidate model against samples and ranks them by
// R². Samples with ItemCount <= 0 are dropped before fitting, since the
// hyperbolic, logarithmic and power shapes divide by or take the log of x.
func Analyze(samples []Sample) (*Result, error) {
	if len(samples) == 0 {
		return nil, errors.New("regression: no samples provided")
	}

	x := make([]float64, 0, len(samples))
	y := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.ItemCount <= 0 {
			continue
		}
		x = append(x, float64(s.ItemCount))
		y = append(y, float64(s.EncodedBytes)/float64(s.ItemCount))
	}
	if len(x) == 0 {
		return nil, errors.New("regression: no usable samples (every ItemCount was <= 0)")
	}

	return performRegression(x, y)
}

// performRegression fits all five model shapes and ranks them by R²
// (best first).
func performRegression(x, y []float64) (*Result, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("regression: mismatched data lengths: %d x vs %d y", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("regression: insufficient data points: %d", len(x))
	}

	models := []*Model{
		fitHyperbolic(x, y),
		fitLogarithmic(x, y),
		fitPower(x, y),
		fitExponential(x, y),
		fitPolynomial(x, y),
	}

	slices.SortFunc(models, func(a, b *Model) int {
		switch {
		case a.RSquared > b.RSquared:
			return -1
		case a.RSquared < b.RSquared:
			return 1
		default:
			return 0
		}
	})

	return &Result{BestFit: models[0], AllModels: models}, nil
}

// fitHyperbolic fits y = a + b/x via ordinary least squares on x' = 1/x.
func fitHyperbolic(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeHyperbolic, Formula: "y = 0 + 0/x"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := 1.0 / x[i]
		sumX += xi
		sumY += y[i]
		sumXY += xi * y[i]
		sumX2 += xi * xi
	}

	meanX, meanY := sumX/float64(n), sumY/float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a + b/x[i]
	}

	return &Model{
		Type:         ModelTypeHyperbolic,
		Coefficients: []float64{a, b},
		RSquared:     calculateRSquared(y, predicted),
		RMSE:         calculateRMSE(y, predicted),
		Formula:      fmt.Sprintf("y = %.4f + %.4f/x", a, b),
		Estimator:    NewHyperbolicEstimator(a, b),
	}
}

// fitLogarithmic fits y = a + b*ln(x) via OLS on x' = ln(x).
func fitLogarithmic(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeLogarithmic, Formula: "y = 0 + 0*ln(x)"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi := math.Log(x[i])
		sumX += xi
		sumY += y[i]
		sumXY += xi * y[i]
		sumX2 += xi * xi
	}

	meanX, meanY := sumX/float64(n), sumY/float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a + b*math.Log(x[i])
	}

	return &Model{
		Type:         ModelTypeLogarithmic,
		Coefficients: []float64{a, b},
		RSquared:     calculateRSquared(y, predicted),
		RMSE:         calculateRMSE(y, predicted),
		Formula:      fmt.Sprintf("y = %.4f + %.4f*ln(x)", a, b),
		Estimator:    NewLogarithmicEstimator(a, b),
	}
}

// fitPower fits y = a*x^b via OLS on the log-log transform ln(y) = ln(a) + b*ln(x).
func fitPower(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypePower, Formula: "y = 0*x^0"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi, yi := math.Log(x[i]), math.Log(y[i])
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX, meanY := sumX/float64(n), sumY/float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := math.Exp(meanY - b*meanX)

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a * math.Pow(x[i], b)
	}

	return &Model{
		Type:         ModelTypePower,
		Coefficients: []float64{a, b},
		RSquared:     calculateRSquared(y, predicted),
		RMSE:         calculateRMSE(y, predicted),
		Formula:      fmt.Sprintf("y = %.4f*x^%.4f", a, b),
		Estimator:    NewPowerEstimator(a, b),
	}
}

// fitExponential fits y = a*e^(b*x) via OLS on ln(y) = ln(a) + b*x.
func fitExponential(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypeExponential, Formula: "y = 0*e^(0*x)"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		xi, yi := x[i], math.Log(y[i])
		sumX += xi
		sumY += yi
		sumXY += xi * yi
		sumX2 += xi * xi
	}

	meanX, meanY := sumX/float64(n), sumY/float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := math.Exp(meanY - b*meanX)

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a * math.Exp(b*x[i])
	}

	return &Model{
		Type:         ModelTypeExponential,
		Coefficients: []float64{a, b},
		RSquared:     calculateRSquared(y, predicted),
		RMSE:         calculateRMSE(y, predicted),
		Formula:      fmt.Sprintf("y = %.4f*e^(%.4f*x)", a, b),
		Estimator:    NewExponentialEstimator(a, b),
	}
}

// fitPolynomial fits the quadratic y = a + b*x + c*x² via the normal
// equations, falling back to a linear fit below 3 samples or when the
// 3x3 system is singular.
func fitPolynomial(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{
			Type:         ModelTypePolynomial,
			Coefficients: []float64{0, 0, 0},
			Formula:      "y = 0 + 0*x + 0*x²",
			Estimator:    NewPolynomialEstimator(0, 0, 0),
		}
	}
	if n < 3 {
		return fitLinear(x, y)
	}

	var sumX, sumX2, sumX3, sumX4, sumY, sumXY, sumX2Y float64
	for i := range n {
		xi := x[i]
		xi2 := xi * xi
		xi3 := xi2 * xi
		xi4 := xi3 * xi
		yi := y[i]

		sumX += xi
		sumX2 += xi2
		sumX3 += xi3
		sumX4 += xi4
		sumY += yi
		sumXY += xi * yi
		sumX2Y += xi2 * yi
	}

	det := float64(n)*sumX2*sumX4 + sumX*sumX3*sumX2 + sumX2*sumX*sumX3 -
		(sumX2*sumX2*float64(n) + sumX*sumX*sumX4 + sumX3*sumX3*sumX2)
	if math.Abs(det) < 1e-10 {
		return fitLinear(x, y)
	}

	detA := sumY*sumX2*sumX4 + sumXY*sumX3*sumX2 + sumX2Y*sumX*sumX3 -
		(sumX2Y*sumX2*sumY + sumXY*sumX*sumX4 + sumY*sumX3*sumX3)
	a := detA / det

	detB := float64(n)*sumXY*sumX4 + sumY*sumX3*sumX2 + sumX2*sumX2Y*sumX -
		(sumX2*sumXY*float64(n) + sumY*sumX*sumX4 + sumX2Y*sumX3*sumX2)
	b := detB / det

	detC := float64(n)*sumX2*sumX2Y + sumX*sumXY*sumX2 + sumY*sumX*sumX3 -
		(sumX2*sumX2*sumY + sumX*sumXY*sumX2 + sumY*sumX3*sumX2)
	c := detC / det

	r2, rmse := calculateStatsOptimized(x, y, a, b, c)

	return &Model{
		Type:         ModelTypePolynomial,
		Coefficients: []float64{a, b, c},
		RSquared:     r2,
		RMSE:         rmse,
		Formula:      fmt.Sprintf("y = %.4f + %.4f*x + %.4f*x²", a, b, c),
		Estimator:    NewPolynomialEstimator(a, b, c),
	}
}

// fitLinear is the fallback for fitPolynomial when there's too little
// data (or a singular normal-equations matrix) for a genuine quadratic.
func fitLinear(x, y []float64) *Model {
	n := len(x)
	if n == 0 {
		return &Model{Type: ModelTypePolynomial, Formula: "y = 0 + 0*x"}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range n {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	meanX, meanY := sumX/float64(n), sumY/float64(n)
	b := (sumXY - float64(n)*meanX*meanY) / (sumX2 - float64(n)*meanX*meanX)
	a := meanY - b*meanX

	predicted := make([]float64, n)
	for i := range n {
		predicted[i] = a + b*x[i]
	}

	return &Model{
		Type:         ModelTypePolynomial,
		Coefficients: []float64{a, b, 0},
		RSquared:     calculateRSquared(y, predicted),
		RMSE:         calculateRMSE(y, predicted),
		Formula:      fmt.Sprintf("y = %.4f + %.4f*x", a, b),
		Estimator:    NewPolynomialEstimator(a, b, 0),
	}
}

// calculateRSquared returns the coefficient of determination: 1 - SSres/SStot.
func calculateRSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	mean := calculateMean(observed)
	var ssTot, ssRes float64
	for i := range observed {
		ssTot += (observed[i] - mean) * (observed[i] - mean)
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0
	}
	return 1.0 - (ssRes / ssTot)
}

// calculateRMSE returns sqrt(mean((observed-predicted)²)).
func calculateRMSE(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}
	var sumSq float64
	for i := range observed {
		diff := observed[i] - predicted[i]
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(observed)))
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStatsOptimized computes R² and RMSE for the polynomial fit in
// one pass, avoiding a second materialized predicted-values slice.
func calculateStatsOptimized(x, y []float64, a, b, c float64) (r2, rmse float64) {
	n := len(x)
	if n == 0 {
		return 0, 0
	}

	meanY := calculateMean(y)

	var ssTot, ssRes, sumSq float64
	for i := range x {
		predicted := a + b*x[i] + c*x[i]*x[i]
		ssTot += (y[i] - meanY) * (y[i] - meanY)
		diff := y[i] - predicted
		ssRes += diff * diff
		sumSq += diff * diff
	}

	if ssTot != 0 {
		r2 = 1.0 - (ssRes / ssTot)
	}
	rmse = math.Sqrt(sumSq / float64(n))
	return r2, rmse
}
