package forecast

import "math"

// linearModel is an ordinary least squares fit of value on year.
type linearModel struct {
	intercept float64
	slope     float64
}

func fitLinear(years []int, values []float64) linearModel {
	n := float64(len(years))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range years {
		x := float64(y)
		sumX += x
		sumY += values[i]
		sumXY += x * values[i]
		sumXX += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / n
	return linearModel{intercept: intercept, slope: slope}
}

func (m linearModel) predict(year int) float64 {
	return m.intercept + m.slope*float64(year)
}

// polynomialModel fits value on powers of a centered and scaled year
// predictor. Raw years in the thousands make the Vandermonde system badly
// conditioned, so the basis is built on (year-mean)/scale instead; the fitted
// forecast values are unchanged by the substitution.
type polynomialModel struct {
	degree int
	center float64
	scale  float64
	coeffs []float64
}

func fitPolynomial(modelName string, degree int, years []int, values []float64) (*polynomialModel, error) {
	if len(years) < degree+1 {
		return nil, NewInsufficientDataErrorf(modelName, "degree %d fit needs at least %d observations, got %d", degree, degree+1, len(years))
	}

	center := 0.0
	for _, y := range years {
		center += float64(y)
	}
	center /= float64(len(years))

	scale := 0.0
	for _, y := range years {
		if d := math.Abs(float64(y) - center); d > scale {
			scale = d
		}
	}
	if scale == 0 {
		scale = 1
	}

	// Normal equations X'X b = X'y over the scaled basis.
	size := degree + 1
	xtx := make([][]float64, size)
	xty := make([]float64, size)
	for i := range xtx {
		xtx[i] = make([]float64, size)
	}
	for i, y := range years {
		t := (float64(y) - center) / scale
		row := make([]float64, size)
		row[0] = 1
		for j := 1; j < size; j++ {
			row[j] = row[j-1] * t
		}
		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				xtx[r][c] += row[r] * row[c]
			}
			xty[r] += row[r] * values[i]
		}
	}

	coeffs, ok := solveLinearSystem(xtx, xty)
	if !ok {
		return nil, NewNumericInstabilityErrorf(modelName, "singular normal equations for degree %d fit", degree)
	}

	return &polynomialModel{degree: degree, center: center, scale: scale, coeffs: coeffs}, nil
}

func (m *polynomialModel) predict(year int) float64 {
	t := (float64(year) - m.center) / m.scale
	result := 0.0
	power := 1.0
	for _, c := range m.coeffs {
		result += c * power
		power *= t
	}
	return result
}

// solveLinearSystem solves Ax=b by Gaussian elimination with partial
// pivoting. It reports false when a pivot degenerates, which callers surface
// as numeric instability. A and b are modified in place.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for c := col; c < n; c++ {
				a[row][c] -= factor * a[col][c]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for c := row + 1; c < n; c++ {
			sum -= a[row][c] * x[c]
		}
		x[row] = sum / a[row][row]
	}
	return x, true
}
