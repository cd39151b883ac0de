package fim

import (
	"math"
	"testing"
)

func TestTensorIndexing(t *testing.T) {
	tn := NewTensor(2, 3, 4)
	tn.Set(1, 2, 3, 7.5)

	if got := tn.At(1, 2, 3); got != 7.5 {
		t.Errorf("At = %g, want 7.5", got)
	}
	if got := tn.At(0, 0, 0); got != 0 {
		t.Errorf("zero value = %g", got)
	}

	s := tn.Series(1, 2)
	if len(s) != 4 || s[3] != 7.5 {
		t.Errorf("Series = %v", s)
	}
	s[0] = 1 // Series aliases storage
	if tn.At(1, 2, 0) != 1 {
		t.Error("Series must alias tensor storage")
	}
}

func TestContractOutputs(t *testing.T) {
	// 2 states, 2 params, 2 times; weights select state sums.
	tn := NewTensor(2, 2, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				tn.Set(i, j, k, float64(1+i+10*j+100*k))
			}
		}
	}

	w := func(k int) [][]float64 { return [][]float64{{1, 1}} }
	out, err := tn.ContractOutputs(1, w, 0, 2)
	if err != nil {
		t.Fatalf("ContractOutputs: %v", err)
	}
	if out.Outputs != 1 || out.Params != 2 || out.Times != 2 {
		t.Fatalf("shape (%d,%d,%d)", out.Outputs, out.Params, out.Times)
	}
	// out[0,j,k] = tn[0,j,k] + tn[1,j,k]
	if got, want := out.At(0, 0, 0), tn.At(0, 0, 0)+tn.At(1, 0, 0); got != want {
		t.Errorf("contract = %g, want %g", got, want)
	}

	// Restricting the parameter range drops columns.
	out2, err := tn.ContractOutputs(1, w, 1, 2)
	if err != nil {
		t.Fatalf("ContractOutputs: %v", err)
	}
	if out2.Params != 1 {
		t.Errorf("restricted params = %d, want 1", out2.Params)
	}
	if got, want := out2.At(0, 0, 1), tn.At(0, 1, 1)+tn.At(1, 1, 1); got != want {
		t.Errorf("restricted contract = %g, want %g", got, want)
	}
}

func TestContractOutputsShapeErrors(t *testing.T) {
	tn := NewTensor(2, 2, 1)
	bad := func(k int) [][]float64 { return [][]float64{{1}} } // wrong column count
	if _, err := tn.ContractOutputs(1, bad, 0, 2); err == nil {
		t.Error("expected error for short weight row")
	}
	ok := func(k int) [][]float64 { return [][]float64{{1, 1}} }
	if _, err := tn.ContractOutputs(1, ok, 0, 3); err == nil {
		t.Error("expected error for parameter range out of bounds")
	}
}

func TestAddAndConcat(t *testing.T) {
	a := NewTensor(1, 2, 2)
	b := NewTensor(1, 2, 2)
	a.Set(0, 1, 1, 2)
	b.Set(0, 1, 1, 3)

	if err := a.Add(b); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.At(0, 1, 1) != 5 {
		t.Errorf("Add result %g, want 5", a.At(0, 1, 1))
	}

	c, err := ConcatParams(a, b)
	if err != nil {
		t.Fatalf("ConcatParams: %v", err)
	}
	if c.Params != 4 {
		t.Fatalf("concat params = %d, want 4", c.Params)
	}
	if c.At(0, 1, 1) != 5 || c.At(0, 3, 1) != 3 {
		t.Error("concat misplaced values")
	}

	if err := a.Add(NewTensor(1, 3, 2)); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestScaleParamAndValidity(t *testing.T) {
	tn := NewTensor(1, 2, 2)
	tn.Set(0, 0, 0, 2)
	tn.Set(0, 1, 0, 2)
	tn.ScaleParam(0, 3)

	if tn.At(0, 0, 0) != 6 || tn.At(0, 1, 0) != 2 {
		t.Error("ScaleParam must touch only the selected parameter")
	}

	if !tn.IsValid() {
		t.Error("finite tensor reported invalid")
	}
	tn.Set(0, 0, 1, math.NaN())
	if tn.IsValid() {
		t.Error("NaN tensor reported valid")
	}
}
