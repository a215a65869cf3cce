package regression

import "fmt"

// Model holds one fitted curve: its shape, coefficients, fit-quality
// metrics, a human-readable formula, and an Estimator for making
// predictions beyond the observed samples.
type Model struct {
	Type ModelType
	// Coefficients are the fitted parameters, in the order each
	// ModelType's estimator constructor expects them.
	Coefficients []float64
	// RSquared is the coefficient of determination (0-1, higher is better).
	RSquared float64
	// RMSE is the root mean square error, in the same units as the
	// sample's bytes-per-item values (lower is better).
	RMSE float64
	// Formula is a human-readable rendering of the fitted curve.
	Formula string
	// Estimator makes predictions using this model's coefficients.
	Estimator Estimator
}

func (m *Model) String() string {
	return fmt.Sprintf("Model{Type: %s, R²: %.4f, RMSE: %.4f, Formula: %s}",
		m.Type, m.RSquared, m.RMSE, m.Formula)
}

// Result is the outcome of Analyze: every candidate model, ranked by R²
// (best first), with BestFit as a convenience alias for AllModels[0].
type Result struct {
	BestFit   *Model
	AllModels []*Model
}

func (r *Result) String() string {
	if r.BestFit == nil {
		return "Result{BestFit: nil}"
	}
	return fmt.Sprintf("Result{BestFit: %s, TotalModels: %d}", r.BestFit, len(r.AllModels))
}
