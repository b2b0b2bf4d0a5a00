// Package stats holds the numeric primitives of the scoring pipeline: z-scores,
// the normal distribution in both directions, winsorization, standard errors and
// Empirical Bayes shrinkage. Every function is pure and safe for concurrent use.
package stats

import (
	"math"
	"sort"
)

// Display-scale constants. One standard deviation is ten display points and the
// population mean sits at fifty.
const (
	ScaledBaseline = 50.0
	ScaledPerSD    = 10.0
	ScaledMin      = 0.0
	ScaledMax      = 100.0

	// zClamp bounds percentileToZScore at the degenerate ends of (0,100).
	zClamp = 3.0
)

// Coefficients of Acklam's rational approximation to the inverse normal CDF.
var (
	acklamA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	acklamB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	acklamC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	acklamD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

const acklamLow = 0.02425

// ZScore returns (value-mean)/stdDev, or 0 when the population is degenerate.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}
	return (value - mean) / stdDev
}

// PercentileToZScore maps a percentile in (0,100) to the standard normal
// quantile. p<=0 maps to -3 and p>=100 to +3.
func PercentileToZScore(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0
	case p <= 0:
		return -zClamp
	case p >= 100:
		return zClamp
	}

	q := p / 100
	var x float64
	switch {
	case q < acklamLow:
		r := math.Sqrt(-2 * math.Log(q))
		x = (((((acklamC[0]*r+acklamC[1])*r+acklamC[2])*r+acklamC[3])*r+acklamC[4])*r + acklamC[5]) /
			((((acklamD[0]*r+acklamD[1])*r+acklamD[2])*r+acklamD[3])*r + 1)
	case q > 1-acklamLow:
		r := math.Sqrt(-2 * math.Log(1-q))
		x = -(((((acklamC[0]*r+acklamC[1])*r+acklamC[2])*r+acklamC[3])*r+acklamC[4])*r + acklamC[5]) /
			((((acklamD[0]*r+acklamD[1])*r+acklamD[2])*r+acklamD[3])*r + 1)
	default:
		s := q - 0.5
		r := s * s
		x = (((((acklamA[0]*r+acklamA[1])*r+acklamA[2])*r+acklamA[3])*r+acklamA[4])*r + acklamA[5]) * s /
			(((((acklamB[0]*r+acklamB[1])*r+acklamB[2])*r+acklamB[3])*r+acklamB[4])*r + 1)
	}

	// One Halley step takes the approximation to full double precision.
	e := 0.5*math.Erfc(-x/math.Sqrt2) - q
	u := e * math.Sqrt(2*math.Pi) * math.Exp(x*x/2)
	return x - u/(1+x*u/2)
}

// ZScoreToPercentile is the forward standard normal CDF, in percent.
func ZScoreToPercentile(z float64) float64 {
	return 50 * (1 + math.Erf(z/math.Sqrt2))
}

// NormalPDF is the standard normal density.
func NormalPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// ZScoreToScaled maps z onto the 0-100 display scale: 50 + 10z, clamped.
func ZScoreToScaled(z float64) float64 {
	if math.IsNaN(z) {
		return ScaledBaseline
	}
	return Clamp(ScaledBaseline+ScaledPerSD*z, ScaledMin, ScaledMax)
}

// PercentileToHealthScore is the percentile-only fallback path: the display
// score implied by a percentile when no raw indicator value exists.
func PercentileToHealthScore(p float64) float64 {
	return ZScoreToScaled(PercentileToZScore(p))
}

// Winsorize caps an effect size at the normal quantiles of the given percentile
// bounds and reports whether it was capped. The window always contains zero,
// so bounds on one side of the median cap that side only.
func Winsorize(value, lowerPct, upperPct float64) (float64, bool) {
	lo := PercentileToZScore(lowerPct)
	hi := PercentileToZScore(upperPct)
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)
	switch {
	case value < lo:
		return lo, true
	case value > hi:
		return hi, true
	default:
		return value, false
	}
}

// StandardError returns sqrt(variance/n); 0 when n<=0 or variance is not positive.
func StandardError(variance float64, n int) float64 {
	if n <= 0 || variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance / float64(n))
}

// ConfidenceInterval returns score ± z*se clamped to the display scale.
func ConfidenceInterval(score, se, z float64) (lower, upper float64) {
	half := z * se
	return Clamp(score-half, ScaledMin, ScaledMax), Clamp(score+half, ScaledMin, ScaledMax)
}

// ShrinkageFactor is the weight given to the prior (the group mean) for a
// group of the given size: prior/(prior+n). More data means less shrinkage.
func ShrinkageFactor(groupSize int, priorStrength float64) float64 {
	if priorStrength <= 0 {
		return 0
	}
	if groupSize <= 0 {
		return 1
	}
	return priorStrength / (priorStrength + float64(groupSize))
}

// EmpiricalBayesShrink pulls a percentile rank toward the group mean (50) by
// ShrinkageFactor(groupSize, priorStrength). It returns the shrunk rank and the
// factor applied.
func EmpiricalBayesShrink(rawRank float64, groupSize int, priorStrength float64) (float64, float64) {
	b := ShrinkageFactor(groupSize, priorStrength)
	return b*ScaledBaseline + (1-b)*rawRank, b
}

// CohenD is the standardized difference mean(recent)-mean(early) over the pooled
// sample standard deviation.
func CohenD(early, recent []float64) (float64, error) {
	if len(early) < 2 || len(recent) < 2 {
		return 0, ErrInsufficientSamples
	}
	n1, n2 := float64(len(early)), float64(len(recent))
	pooled := ((n1-1)*SampleVariance(early) + (n2-1)*SampleVariance(recent)) / (n1 + n2 - 2)
	sd := math.Sqrt(pooled)
	if sd == 0 {
		return 0, ErrZeroVariance
	}
	return (Mean(recent) - Mean(early)) / sd, nil
}

// CohenDStandardError is the large-sample standard error of Cohen's d.
func CohenDStandardError(d float64, n1, n2 int) float64 {
	if n1 <= 0 || n2 <= 0 {
		return 0
	}
	a, b := float64(n1), float64(n2)
	return math.Sqrt((a+b)/(a*b) + d*d/(2*(a+b)))
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WeightedMean returns Σw·v/Σw, 0 when the weights sum to zero.
func WeightedMean(values, weights []float64) float64 {
	sum, wsum := 0.0, 0.0
	for i := range values {
		if i >= len(weights) {
			break
		}
		sum += values[i] * weights[i]
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// Variance is the population variance.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values))
}

// SampleVariance uses the n-1 denominator.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(values)-1)
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Median returns the middle value (mean of the two middle values for even n).
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// CoefficientOfVariation returns stdDev/|mean|, 0 when the mean is zero.
func CoefficientOfVariation(values []float64) float64 {
	m := Mean(values)
	if m == 0 {
		return 0
	}
	return StdDev(values) / math.Abs(m)
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
