package fim

import (
	"fmt"
	"math"
)

// Tensor is a dense 3-axis sensitivity container with named axes:
// output index (state or observable), parameter index, time index.
// Chain-rule composition goes through the explicit contraction methods
// below instead of ad hoc reshapes, so axis order is fixed once here.
type Tensor struct {
	Outputs int // n_x or n_obs
	Params  int // n_p or n_p + n_x
	Times   int

	data []float64
}

func NewTensor(outputs, params, times int) *Tensor {
	return &Tensor{
		Outputs: outputs,
		Params:  params,
		Times:   times,
		data:    make([]float64, outputs*params*times),
	}
}

func (t *Tensor) index(i, j, k int) int {
	return (i*t.Params+j)*t.Times + k
}

func (t *Tensor) At(i, j, k int) float64 {
	return t.data[t.index(i, j, k)]
}

func (t *Tensor) Set(i, j, k int, v float64) {
	t.data[t.index(i, j, k)] = v
}

func (t *Tensor) Clone() *Tensor {
	c := NewTensor(t.Outputs, t.Params, t.Times)
	copy(c.data, t.data)
	return c
}

// IsValid reports whether every entry is finite.
func (t *Tensor) IsValid() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series returns the time series for one (output, parameter) pair.
// The slice aliases the tensor storage.
func (t *Tensor) Series(i, j int) []float64 {
	lo := t.index(i, j, 0)
	return t.data[lo : lo+t.Times]
}

// ContractOutputs contracts the output axis against a time-indexed weight
// matrix w(k) (rows = new outputs, columns = old outputs), restricted to the
// parameter range [jLo, jHi). At every time k:
//
//	out[i, j-jLo, k] = sum_x w(k)[i][x] * t[x, j, k]
//
// This is the dg/dx * dx/dp term of the observable chain rule; w is
// time-indexed because dg/dx is evaluated along the trajectory.
func (t *Tensor) ContractOutputs(outputs int, w func(k int) [][]float64, jLo, jHi int) (*Tensor, error) {
	if jLo < 0 || jHi > t.Params || jLo > jHi {
		return nil, fmt.Errorf("%w: parameter range [%d,%d) outside 0..%d", ErrDimensionMismatch, jLo, jHi, t.Params)
	}

	out := NewTensor(outputs, jHi-jLo, t.Times)
	for k := 0; k < t.Times; k++ {
		wk := w(k)
		if len(wk) != outputs {
			return nil, fmt.Errorf("%w: weight matrix at time %d has %d rows, want %d", ErrDimensionMismatch, k, len(wk), outputs)
		}
		for i, row := range wk {
			if len(row) != t.Outputs {
				return nil, fmt.Errorf("%w: weight row length %d, want %d", ErrDimensionMismatch, len(row), t.Outputs)
			}
			for j := jLo; j < jHi; j++ {
				acc := 0.0
				for x := 0; x < t.Outputs; x++ {
					acc += row[x] * t.At(x, j, k)
				}
				out.Set(i, j-jLo, k, acc)
			}
		}
	}
	return out, nil
}

// Add accumulates other into t element-wise. Shapes must match exactly.
func (t *Tensor) Add(other *Tensor) error {
	if t.Outputs != other.Outputs || t.Params != other.Params || t.Times != other.Times {
		return fmt.Errorf("%w: tensor shapes (%d,%d,%d) vs (%d,%d,%d)",
			ErrDimensionMismatch, t.Outputs, t.Params, t.Times, other.Outputs, other.Params, other.Times)
	}
	for i, v := range other.data {
		t.data[i] += v
	}
	return nil
}

// ConcatParams concatenates a and b along the parameter axis.
func ConcatParams(a, b *Tensor) (*Tensor, error) {
	if a.Outputs != b.Outputs || a.Times != b.Times {
		return nil, fmt.Errorf("%w: cannot concat tensors (%d,%d,%d) and (%d,%d,%d) on parameter axis",
			ErrDimensionMismatch, a.Outputs, a.Params, a.Times, b.Outputs, b.Params, b.Times)
	}
	out := NewTensor(a.Outputs, a.Params+b.Params, a.Times)
	for i := 0; i < out.Outputs; i++ {
		for j := 0; j < a.Params; j++ {
			copy(out.Series(i, j), a.Series(i, j))
		}
		for j := 0; j < b.Params; j++ {
			copy(out.Series(i, a.Params+j), b.Series(i, j))
		}
	}
	return out, nil
}

// ScaleParam multiplies every entry with parameter index j by factor.
func (t *Tensor) ScaleParam(j int, factor float64) {
	for i := 0; i < t.Outputs; i++ {
		s := t.Series(i, j)
		for k := range s {
			s[k] *= factor
		}
	}
}
