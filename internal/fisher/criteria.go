package fisher

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Criterion selects the scalar reduction of the Fisher matrix. Larger is
// better for all three.
type Criterion string

const (
	// Determinant is the D-criterion. A singular F scores zero, which is a
	// valid "uninformative design" outcome, not an error.
	Determinant Criterion = "det"
	// SumEigen sums the eigenvalues of F, which equals its trace.
	SumEigen Criterion = "sumeig"
	// MinEigen is the E-criterion: the smallest eigenvalue, exposing the
	// worst-identified parameter direction.
	MinEigen Criterion = "mineig"
)

func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(s) {
	case Determinant, SumEigen, MinEigen:
		return Criterion(s), nil
	}
	return "", fmt.Errorf("fim: unknown criterion %q (want det, sumeig or mineig)", s)
}

// Score reduces the assembled Fisher matrix to the selected criterion.
func Score(c Criterion, a *Assembly) (float64, error) {
	switch c {
	case Determinant:
		return DeterminantOf(a.F), nil
	case SumEigen:
		return sumEigenvalues(a.F)
	case MinEigen:
		return minEigenvalue(a.F)
	}
	return 0, fmt.Errorf("fim: unknown criterion %q", c)
}

// DeterminantOf computes det(F), mapping a numerically singular matrix to
// zero instead of propagating a NaN from the factorization.
func DeterminantOf(F *mat.SymDense) float64 {
	d := mat.Det(F)
	if math.IsNaN(d) {
		return 0
	}
	return d
}

func eigenvalues(F *mat.SymDense) ([]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(F, false); !ok {
		return nil, fmt.Errorf("fim: eigendecomposition of Fisher matrix failed")
	}
	return es.Values(nil), nil
}

func sumEigenvalues(F *mat.SymDense) (float64, error) {
	vals, err := eigenvalues(F)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum, nil
}

func minEigenvalue(F *mat.SymDense) (float64, error) {
	vals, err := eigenvalues(F)
	if err != nil {
		return 0, err
	}
	min := math.Inf(1)
	for _, v := range vals {
		if v < min {
			min = v
		}
	}
	return min, nil
}
