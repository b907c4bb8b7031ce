package scoring

import (
	"errors"
	"math"
)

var errShapeMismatch = errors.New("feature vector width does not match fit")

// Scaler standardizes features to zero mean and unit variance, with
// the per-feature parameters fit on the training set.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-feature mean and population standard
// deviation. A constant feature gets std 1 so transforming it is a
// no-op instead of a division by zero.
func FitScaler(samples [][]float64) *Scaler {
	n := len(samples)
	width := len(samples[0])

	mean := make([]float64, width)
	for _, x := range samples {
		for j, v := range x {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	std := make([]float64, width)
	for _, x := range samples {
		for j, v := range x {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return &Scaler{Mean: mean, Std: std}
}

// Transform standardizes one feature vector.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) || len(s.Mean) != len(s.Std) {
		return nil, errShapeMismatch
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// Logit is a binary logistic-regression classifier.
type Logit struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Gradient-descent settings. Fixed so a refit on the same data yields
// the same model bit for bit.
const (
	fitIterations   = 1500
	fitLearningRate = 0.1
)

// FitLogit trains by full-batch gradient descent on the log loss,
// starting from zero weights.
func FitLogit(samples [][]float64, labels []float64) *Logit {
	n := len(samples)
	width := len(samples[0])

	w := make([]float64, width)
	var b float64
	gw := make([]float64, width)

	for iter := 0; iter < fitIterations; iter++ {
		for j := range gw {
			gw[j] = 0
		}
		var gb float64

		for i, x := range samples {
			z := b
			for j, v := range x {
				z += w[j] * v
			}
			err := sigmoid(z) - labels[i]
			for j, v := range x {
				gw[j] += err * v
			}
			gb += err
		}

		for j := range w {
			w[j] -= fitLearningRate * gw[j] / float64(n)
		}
		b -= fitLearningRate * gb / float64(n)
	}

	return &Logit{Weights: w, Bias: b}
}

// Probability returns the positive-class probability for a
// (pre-scaled) feature vector.
func (m *Logit) Probability(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, errShapeMismatch
	}
	z := m.Bias
	for j, v := range x {
		z += m.Weights[j] * v
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
