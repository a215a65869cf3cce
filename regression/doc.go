// Package regression fits a handful of curve shapes against observed
// (container size, encoded bytes) samples and picks the best one, for
// deriving a closed-form replacement for the adaptive-size averages a
// codec.Context otherwise learns one call at a time (§4.4).
//
// # Usage
//
// Feed it samples gathered from real traffic — one per encode call, or
// aggregated offline from a corpus:
//
//	samples := []regression.Sample{
//	    {ItemCount: 10, EncodedBytes: 180},
//	    {ItemCount: 50, EncodedBytes: 820},
//	    {ItemCount: 200, EncodedBytes: 3100},
//	}
//	result, err := regression.Analyze(samples)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bytesPerItem := result.BestFit.Estimator.Estimate(75) // extrapolate to 75 items
//
// Five model shapes are fit — hyperbolic, logarithmic, power, exponential,
// polynomial — and ranked by R²; BestFit is the highest-scoring one, and
// AllModels holds every candidate for a caller that wants to compare fits
// rather than trust the automatic pick.
//
// # Model shapes
//
//   - Hyperbolic:   y = a + b/x
//   - Logarithmic:  y = a + b*ln(x)
//   - Power:        y = a*x^b
//   - Exponential:  y = a*e^(b*x)
//   - Polynomial:   y = a + b*x + c*x²  (falls back to linear below 3 samples)
//
// x is the container's item count, y the observed bytes-per-item for that
// sample.
package regression
