package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	DefaultRegularization = 1.0
	DefaultMaxIter        = 100
	DefaultTolerance      = 1e-4
)

var (
	ErrSingleClass = errors.New("training data must contain at least 2 distinct labels")
	ErrNotFinite   = errors.New("classifier weights are not finite")
)

// LogisticRegression is a multinomial (softmax) classifier with an L2 penalty
// on the weights. C is the inverse regularization strength; intercepts are not
// penalized. Fitting minimizes the mean cross entropy plus the penalty with
// LBFGS from zero weights, so the result depends only on the inputs.
type LogisticRegression struct {
	C         float64
	MaxIter   int
	Tolerance float64

	Classes   []string
	Weights   *mat.Dense // len(Classes) x features
	Intercept []float64
	Iters     int
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:         DefaultRegularization,
		MaxIter:   DefaultMaxIter,
		Tolerance: DefaultTolerance,
	}
}

func (m *LogisticRegression) Fit(x *mat.Dense, labels []string) error {
	if x.IsEmpty() {
		return fmt.Errorf("cannot fit on an empty feature matrix")
	}
	n, d := x.Dims()
	if n != len(labels) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", n, len(labels))
	}
	if m.C <= 0 || math.IsNaN(m.C) || math.IsInf(m.C, 0) {
		return fmt.Errorf("inverse regularization strength must be positive and finite, got %v", m.C)
	}

	classes := uniqueSorted(labels)
	k := len(classes)
	if k < 2 {
		return ErrSingleClass
	}

	classIdx := make(map[string]int, k)
	for i, c := range classes {
		classIdx[c] = i
	}
	target := make([]int, n)
	for i, label := range labels {
		target[i] = classIdx[label]
	}

	reg := 1 / (m.C * float64(n))
	nw := k * d

	// theta holds the weights row-major followed by the intercepts.
	split := func(theta []float64) (*mat.Dense, []float64) {
		return mat.NewDense(k, d, theta[:nw]), theta[nw:]
	}

	var probs mat.Dense
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w, b := split(theta)
			logits(&probs, x, w, b)
			loss := 0.0
			for i := 0; i < n; i++ {
				row := probs.RawRowView(i)
				loss += floats.LogSumExp(row) - row[target[i]]
			}
			return loss/float64(n) + 0.5*reg*floats.Dot(theta[:nw], theta[:nw])
		},
		Grad: func(grad, theta []float64) {
			w, b := split(theta)
			softmax(&probs, x, w, b)
			for i := 0; i < n; i++ {
				probs.Set(i, target[i], probs.At(i, target[i])-1)
			}
			probs.Scale(1/float64(n), &probs)

			gradW := mat.NewDense(k, d, grad[:nw])
			gradW.Mul(probs.T(), x)
			floats.AddScaled(grad[:nw], reg, theta[:nw])

			gradB := grad[nw:]
			for c := range gradB {
				gradB[c] = mat.Sum(probs.ColView(c))
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: m.Tolerance,
		MajorIterations:   m.MaxIter,
		Converger:         &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 20},
	}

	result, err := optimize.Minimize(problem, make([]float64, nw+k), settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}
	if !allFinite(result.X) || !allFinite([]float64{result.F}) {
		return ErrNotFinite
	}
	// A line search that stalls near the optimum still leaves the best point in result.
	if err != nil && !isLinesearchStall(err) {
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}

	w, b := split(result.X)
	m.Classes = classes
	m.Weights = mat.DenseCopyOf(w)
	m.Intercept = append([]float64(nil), b...)
	m.Iters = result.MajorIterations
	return nil
}

// logits writes x*W^T + b into dst.
func logits(dst *mat.Dense, x mat.Matrix, w *mat.Dense, b []float64) {
	dst.Reset()
	dst.Mul(x, w.T())

	n, _ := dst.Dims()
	for i := 0; i < n; i++ {
		floats.Add(dst.RawRowView(i), b)
	}
}

// softmax writes the row-wise softmax of x*W^T + b into dst.
func softmax(dst *mat.Dense, x mat.Matrix, w *mat.Dense, b []float64) {
	logits(dst, x, w, b)

	n, _ := dst.Dims()
	for i := 0; i < n; i++ {
		row := dst.RawRowView(i)
		lse := floats.LogSumExp(row)
		for c := range row {
			row[c] = math.Exp(row[c] - lse)
		}
	}
}

func isLinesearchStall(err error) bool {
	return errors.Is(err, optimize.ErrLinesearcherFailure) ||
		errors.Is(err, optimize.ErrNoProgress) ||
		errors.Is(err, optimize.ErrLinesearcherBound)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (m *LogisticRegression) PredictProba(x *mat.Dense) *mat.Dense {
	var probs mat.Dense
	if x.IsEmpty() {
		return &probs
	}
	softmax(&probs, x, m.Weights, m.Intercept)
	return &probs
}

// Predict returns the most probable class per row. Ties go to the class that sorts first.
func (m *LogisticRegression) Predict(x *mat.Dense) []string {
	if x.IsEmpty() {
		return nil
	}

	probs := m.PredictProba(x)
	n, _ := probs.Dims()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = m.Classes[floats.MaxIdx(probs.RawRowView(i))]
	}
	return out
}

func uniqueSorted(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
