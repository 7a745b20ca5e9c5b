package solver

import (
	"fmt"
	"math"

	"equilibria/game"
)

const pivotTolerance = 1e-12

// tableau is a dictionary of one best-response polytope. Columns are indexed
// by label (row strategies first, then column strategies) with the right-hand
// side last; basis holds the label that is basic in each row.
type tableau struct {
	rows  [][]float64
	basis []int
}

// pivot brings the variable with label entering into the basis using the
// minimum ratio test and returns the label that left. Ties go to the first row.
func (t *tableau) pivot(entering int) (int, bool) {
	rhs := len(t.rows[0]) - 1
	row := -1
	best := math.Inf(1)
	for r, coeffs := range t.rows {
		if coeffs[entering] <= pivotTolerance {
			continue
		}
		if ratio := coeffs[rhs] / coeffs[entering]; ratio < best {
			best = ratio
			row = r
		}
	}
	if row < 0 {
		return 0, false
	}

	pivotRow := t.rows[row]
	scale := pivotRow[entering]
	for k := range pivotRow {
		pivotRow[k] /= scale
	}
	for r, coeffs := range t.rows {
		if r == row || coeffs[entering] == 0 {
			continue
		}
		factor := coeffs[entering]
		for k := range coeffs {
			coeffs[k] -= factor * pivotRow[k]
		}
	}

	leaving := t.basis[row]
	t.basis[row] = entering
	return leaving, true
}

// values returns the basic values of the variables labelled from..from+n-1.
func (t *tableau) values(from, n int) []float64 {
	rhs := len(t.rows[0]) - 1
	v := make([]float64, n)
	for r, label := range t.basis {
		if label >= from && label < from+n {
			v[label-from] = t.rows[r][rhs]
		}
	}
	return v
}

// lemkeHowson follows the complementary pivoting path from the artificial
// equilibrium after dropping label dropped, for the bimatrix game (a, b).
//
// The row polytope is Bᵀx + r = 1 (x labelled 0..m-1, r labelled m..m+n-1)
// and the column polytope is Ay + s = 1 (s labelled 0..m-1, y labelled
// m..m+n-1). Payoffs are shifted positive so both polytopes are bounded.
func lemkeHowson(a, b [][]float64, dropped, maxPivots int) (x, y []float64, pivots int, err error) {
	m, n := len(a), len(a[0])
	labels := m + n
	if dropped < 0 || dropped >= labels {
		return nil, nil, 0, fmt.Errorf("%w: dropped label %d outside [0, %d)", game.ErrMalformedGame, dropped, labels)
	}
	a, b = shiftPositive(a), shiftPositive(b)

	rowPolytope := &tableau{rows: make([][]float64, n), basis: make([]int, n)}
	for j := 0; j < n; j++ {
		coeffs := make([]float64, labels+1)
		for i := 0; i < m; i++ {
			coeffs[i] = b[i][j]
		}
		coeffs[m+j] = 1
		coeffs[labels] = 1
		rowPolytope.rows[j] = coeffs
		rowPolytope.basis[j] = m + j
	}
	colPolytope := &tableau{rows: make([][]float64, m), basis: make([]int, m)}
	for i := 0; i < m; i++ {
		coeffs := make([]float64, labels+1)
		coeffs[i] = 1
		for j := 0; j < n; j++ {
			coeffs[m+j] = a[i][j]
		}
		coeffs[labels] = 1
		colPolytope.rows[i] = coeffs
		colPolytope.basis[i] = i
	}

	current := colPolytope
	if dropped < m {
		current = rowPolytope
	}
	entering := dropped
	for {
		if pivots >= maxPivots {
			return nil, nil, pivots, fmt.Errorf("%w: Lemke-Howson path exceeded %d pivots", ErrConvergence, maxPivots)
		}
		leaving, ok := current.pivot(entering)
		pivots++
		if !ok {
			return nil, nil, pivots, fmt.Errorf("%w: unbounded ray while pivoting on label %d", ErrDegenerateEquilibrium, entering)
		}
		if leaving == dropped {
			break
		}
		entering = leaving
		if current == rowPolytope {
			current = colPolytope
		} else {
			current = rowPolytope
		}
	}

	if x, err = normalize(rowPolytope.values(0, m)); err != nil {
		return nil, nil, pivots, fmt.Errorf("row strategy: %w", err)
	}
	if y, err = normalize(colPolytope.values(m, n)); err != nil {
		return nil, nil, pivots, fmt.Errorf("column strategy: %w", err)
	}
	return x, y, pivots, nil
}

func shiftPositive(a [][]float64) [][]float64 {
	lowest := math.Inf(1)
	for _, row := range a {
		for _, v := range row {
			lowest = math.Min(lowest, v)
		}
	}
	shift := 1 - lowest
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = v + shift
		}
	}
	return out
}
