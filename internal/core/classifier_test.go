package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLogisticRegressionSeparable(t *testing.T) {
	x := mat.NewDense(6, 3, []float64{
		1, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 1,
	})
	labels := []string{"positive", "positive", "negative", "negative", "neutral", "neutral"}

	model := NewLogisticRegression()
	require.NoError(t, model.Fit(x, labels))

	assert.Equal(t, []string{"negative", "neutral", "positive"}, model.Classes)
	assert.Equal(t, labels, model.Predict(x))

	probs := model.PredictProba(x)
	rows, cols := probs.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, mat.Sum(probs.RowView(i)), 1e-9)
	}
}

func TestLogisticRegressionRegularizationShrinksWeights(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 0, 1, 0, 0, 1, 0, 1})
	labels := []string{"a", "a", "b", "b"}

	strong := NewLogisticRegression()
	strong.C = 0.01
	require.NoError(t, strong.Fit(x, labels))

	weak := NewLogisticRegression()
	weak.C = 100
	require.NoError(t, weak.Fit(x, labels))

	assert.Less(t, mat.Norm(strong.Weights, 2), mat.Norm(weak.Weights, 2))
}

func TestLogisticRegressionStableAcrossRegularization(t *testing.T) {
	separable := mat.NewDense(4, 2, []float64{1, 0, 1, 0, 0, 1, 0, 1})
	unnormalized := mat.NewDense(4, 2, []float64{40, 0, 55, 0, 0, 60, 0, 35})
	labels := []string{"a", "a", "b", "b"}

	for _, x := range []*mat.Dense{separable, unnormalized} {
		for _, c := range []float64{0.001, 0.01, 0.1, 1, 10, 100} {
			model := NewLogisticRegression()
			model.C = c
			require.NoError(t, model.Fit(x, labels), "C=%v", c)

			for _, w := range model.Weights.RawMatrix().Data {
				assert.False(t, math.IsNaN(w) || math.IsInf(w, 0), "C=%v weight %v", c, w)
			}
			assert.Equal(t, labels, model.Predict(x), "C=%v", c)
			assert.Greater(t, model.Weights.At(0, 0), model.Weights.At(1, 0), "C=%v", c)
		}
	}
}

func TestLogisticRegressionRejectsInvalidRegularization(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	for _, c := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		model := NewLogisticRegression()
		model.C = c
		assert.Error(t, model.Fit(x, []string{"a", "b"}), "C=%v", c)
	}
}

func TestLogisticRegressionErrors(t *testing.T) {
	model := NewLogisticRegression()

	x := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	assert.ErrorIs(t, model.Fit(x, []string{"same", "same"}), ErrSingleClass)
	assert.Error(t, model.Fit(x, []string{"only-one-label"}))
	assert.Error(t, model.Fit(&mat.Dense{}, nil))
}
