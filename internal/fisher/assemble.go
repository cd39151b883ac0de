// Package fisher assembles the sensitivity and covariance matrices of a
// scored design and reduces the Fisher information matrix to a scalar
// design criterion.
package fisher

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/oedlab/fimdesign/internal/fim"
)

// ErrorModel maps a predicted observable value to its measurement error.
// The default assumes 25% relative error.
type ErrorModel func(predicted float64) float64

func DefaultErrorModel(v float64) float64 { return 0.25 * v }

// varianceFloor keeps the covariance inversion defined when a predicted
// value (and therefore its modeled error) is exactly zero.
const varianceFloor = 1e-12

// Assembly is the matrix-level result of scoring one design.
type Assembly struct {
	S *mat.Dense     // sensitivities, n_p_full rows by total-sample columns
	C *mat.DiagDense // inverse measurement covariance
	F *mat.SymDense  // S * C * S^T, explicitly symmetrized
}

// Assemble flattens the transformed sensitivity tensors of every design
// combination (already in enumeration order) into S, builds the inverse
// covariance C from the error model, and computes F.
//
// Column order: combination, then time, then observable index, each nested
// inner to outer. observables[c][i][k] is observable i of combination c at
// time index k, as returned by sensitivity.Transform.
func Assemble(tensors []*fim.Tensor, observables [][][]float64, errModel ErrorModel, identityC bool) (*Assembly, error) {
	if len(tensors) == 0 {
		return nil, &fim.ConfigError{Field: "tensors", Reason: "no design combinations to assemble"}
	}
	if len(observables) != len(tensors) {
		return nil, fmt.Errorf("%w: %d observable sets for %d tensors", fim.ErrDimensionMismatch, len(observables), len(tensors))
	}
	if errModel == nil {
		errModel = DefaultErrorModel
	}

	npFull := tensors[0].Params
	totalCols := 0
	for c, tn := range tensors {
		if tn.Params != npFull {
			return nil, fmt.Errorf("%w: combination %d has %d parameter rows, want %d", fim.ErrDimensionMismatch, c, tn.Params, npFull)
		}
		if len(observables[c]) != tn.Outputs {
			return nil, fmt.Errorf("%w: combination %d has %d observable series for %d outputs", fim.ErrDimensionMismatch, c, len(observables[c]), tn.Outputs)
		}
		totalCols += tn.Outputs * tn.Times
	}

	S := mat.NewDense(npFull, totalCols, nil)
	cdiag := make([]float64, totalCols)

	col := 0
	for c, tn := range tensors {
		if !tn.IsValid() {
			return nil, fmt.Errorf("%w: sensitivity tensor of combination %d", fim.ErrNonFinite, c)
		}
		for k := 0; k < tn.Times; k++ {
			for i := 0; i < tn.Outputs; i++ {
				for j := 0; j < npFull; j++ {
					S.Set(j, col, tn.At(i, j, k))
				}

				if identityC {
					cdiag[col] = 1
				} else {
					e := errModel(observables[c][i][k])
					if math.IsNaN(e) || math.IsInf(e, 0) {
						return nil, fmt.Errorf("%w: error model produced non-finite value for combination %d", fim.ErrNonFinite, c)
					}
					v := e * e
					if v < varianceFloor {
						v = varianceFloor
					}
					cdiag[col] = 1 / v
				}
				col++
			}
		}
	}

	C := mat.NewDiagDense(totalCols, cdiag)

	var f mat.Dense
	f.Product(S, C, S.T())

	// Symmetrize explicitly; floating-point rounding can leave F slightly
	// asymmetric and the eigensolver requires exact symmetry.
	F := mat.NewSymDense(npFull, nil)
	for i := 0; i < npFull; i++ {
		for j := i; j < npFull; j++ {
			F.SetSym(i, j, 0.5*(f.At(i, j)+f.At(j, i)))
		}
	}

	return &Assembly{S: S, C: C, F: F}, nil
}

// TotalColumns returns the sample count the assembly covers.
func (a *Assembly) TotalColumns() int {
	_, c := a.S.Dims()
	return c
}
