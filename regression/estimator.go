package regression

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ModelType identifies which curve shape a Model/Estimator fits.
type ModelType int

const (
	ModelTypeHyperbolic ModelType = iota // y = a + b/x
	ModelTypeLogarithmic                 // y = a + b*ln(x)
	ModelTypePower                       // y = a*x^b
	ModelTypeExponential                 // y = a*e^(b*x)
	ModelTypePolynomial                  // y = a + b*x + c*x²
)

var modelTypeNames = map[ModelType]string{
	ModelTypeHyperbolic:  "hyperbolic",
	ModelTypeLogarithmic: "logarithmic",
	ModelTypePower:       "power",
	ModelTypeExponential: "exponential",
	ModelTypePolynomial:  "polynomial",
}

func (mt ModelType) String() string {
	if name, ok := modelTypeNames[mt]; ok {
		return name
	}
	return "unknown"
}

var modelTypeFromString = map[string]ModelType{
	"hyperbolic":  ModelTypeHyperbolic,
	"logarithmic": ModelTypeLogarithmic,
	"power":       ModelTypePower,
	"exponential": ModelTypeExponential,
	"polynomial":  ModelTypePolynomial,
}

// ModelTypeFromString returns the ModelType for a case-insensitive name,
// or ModelType(-1) if name doesn't match any known model.
func ModelTypeFromString(name string) ModelType {
	if mt, ok := modelTypeFromString[strings.ToLower(name)]; ok {
		return mt
	}
	return ModelType(-1)
}

func newEmptyEstimator(modelType ModelType) Estimator {
	switch modelType {
	case ModelTypeHyperbolic:
		return NewHyperbolicEstimator(0, 0)
	case ModelTypeLogarithmic:
		return NewLogarithmicEstimator(0, 0)
	case ModelTypePower:
		return NewPowerEstimator(0, 0)
	case ModelTypeExponential:
		return NewExponentialEstimator(0, 0)
	case ModelTypePolynomial:
		return NewPolynomialEstimator(0, 0, 0)
	default:
		return nil
	}
}

// Estimator predicts bytes-per-item for a given item count, using one
// fitted curve shape.
type Estimator interface {
	// Estimate returns the predicted bytes-per-item for x items.
	Estimate(x float64) float64
	Type() ModelType
	Coefficients() []float64
	// SetCoefficients replaces this estimator's coefficients. The slice
	// length must match the model's arity (2 for every shape but
	// polynomial, which takes 3).
	SetCoefficients(coeffs []float64) error
}

// HyperbolicEstimator implements y = a + b/x.
type HyperbolicEstimator struct {
	a, b   float64
	coeffs []float64
}

func NewHyperbolicEstimator(a, b float64) *HyperbolicEstimator {
	return &HyperbolicEstimator{a: a, b: b, coeffs: make([]float64, 2)}
}

func (h *HyperbolicEstimator) Estimate(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	return h.a + h.b/x
}

func (h *HyperbolicEstimator) Type() ModelType { return ModelTypeHyperbolic }

func (h *HyperbolicEstimator) Coefficients() []float64 {
	h.coeffs[0], h.coeffs[1] = h.a, h.b
	return h.coeffs
}

func (h *HyperbolicEstimator) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != 2 {
		return fmt.Errorf("hyperbolic model expects exactly 2 coefficients, got %d", len(coeffs))
	}
	h.a, h.b = coeffs[0], coeffs[1]
	return nil
}

// LogarithmicEstimator implements y = a + b*ln(x).
type LogarithmicEstimator struct {
	a, b   float64
	coeffs []float64
}

func NewLogarithmicEstimator(a, b float64) *LogarithmicEstimator {
	return &LogarithmicEstimator{a: a, b: b, coeffs: make([]float64, 2)}
}

func (l *LogarithmicEstimator) Estimate(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	return l.a + l.b*math.Log(x)
}

func (l *LogarithmicEstimator) Type() ModelType { return ModelTypeLogarithmic }

func (l *LogarithmicEstimator) Coefficients() []float64 {
	l.coeffs[0], l.coeffs[1] = l.a, l.b
	return l.coeffs
}

func (l *LogarithmicEstimator) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != 2 {
		return fmt.Errorf("logarithmic model expects exactly 2 coefficients, got %d", len(coeffs))
	}
	l.a, l.b = coeffs[0], coeffs[1]
	return nil
}

// PowerEstimator implements y = a*x^b.
type PowerEstimator struct {
	a, b   float64
	coeffs []float64
}

func NewPowerEstimator(a, b float64) *PowerEstimator {
	return &PowerEstimator{a: a, b: b, coeffs: make([]float64, 2)}
}

func (p *PowerEstimator) Estimate(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	return p.a * math.Pow(x, p.b)
}

func (p *PowerEstimator) Type() ModelType { return ModelTypePower }

func (p *PowerEstimator) Coefficients() []float64 {
	p.coeffs[0], p.coeffs[1] = p.a, p.b
	return p.coeffs
}

func (p *PowerEstimator) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != 2 {
		return fmt.Errorf("power model expects exactly 2 coefficients, got %d", len(coeffs))
	}
	p.a, p.b = coeffs[0], coeffs[1]
	return nil
}

// ExponentialEstimator implements y = a*e^(b*x).
type ExponentialEstimator struct {
	a, b   float64
	coeffs []float64
}

func NewExponentialEstimator(a, b float64) *ExponentialEstimator {
	return &ExponentialEstimator{a: a, b: b, coeffs: make([]float64, 2)}
}

func (e *ExponentialEstimator) Estimate(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	return e.a * math.Exp(e.b*x)
}

func (e *ExponentialEstimator) Type() ModelType { return ModelTypeExponential }

func (e *ExponentialEstimator) Coefficients() []float64 {
	e.coeffs[0], e.coeffs[1] = e.a, e.b
	return e.coeffs
}

func (e *ExponentialEstimator) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != 2 {
		return fmt.Errorf("exponential model expects exactly 2 coefficients, got %d", len(coeffs))
	}
	e.a, e.b = coeffs[0], coeffs[1]
	return nil
}

// PolynomialEstimator implements y = a + b*x + c*x².
type PolynomialEstimator struct {
	a, b, c float64
	coeffs  []float64
}

func NewPolynomialEstimator(a, b, c float64) *PolynomialEstimator {
	return &PolynomialEstimator{a: a, b: b, c: c, coeffs: make([]float64, 3)}
}

func (p *PolynomialEstimator) Estimate(x float64) float64 {
	if x <= 0 {
		return math.Inf(1)
	}
	return p.a + p.b*x + p.c*x*x
}

func (p *PolynomialEstimator) Type() ModelType { return ModelTypePolynomial }

func (p *PolynomialEstimator) Coefficients() []float64 {
	p.coeffs[0], p.coeffs[1], p.coeffs[2] = p.a, p.b, p.c
	return p.coeffs
}

func (p *PolynomialEstimator) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != 3 {
		return fmt.Errorf("polynomial model expects exactly 3 coefficients, got %d", len(coeffs))
	}
	p.a, p.b, p.c = coeffs[0], coeffs[1], coeffs[2]
	return nil
}

// NewEstimator builds an Estimator by model name (case-insensitive) and
// coefficient list, validating the coefficient count against the named
// model's arity.
func NewEstimator(name string, coeffs []float64) (Estimator, error) {
	modelType := ModelTypeFromString(name)
	if modelType == ModelType(-1) {
		var supported []string
		for _, n := range modelTypeNames {
			supported = append(supported, n)
		}
		slices.Sort(supported)
		return nil, fmt.Errorf("unknown model type: %s. Supported types: %s", name, strings.Join(supported, ", "))
	}

	estimator := newEmptyEstimator(modelType)
	if estimator == nil {
		return nil, fmt.Errorf("failed to create estimator for model type: %s", name)
	}
	if err := estimator.SetCoefficients(coeffs); err != nil {
		return nil, err
	}
	return estimator, nil
}
