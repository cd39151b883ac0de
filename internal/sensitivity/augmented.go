// Package sensitivity builds the forward-sensitivity augmented ODE and
// transforms raw state sensitivities into observable sensitivities.
package sensitivity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/oedlab/fimdesign/internal/fim"
)

// Augmented couples the base ODE with its first-order variational equations:
//
//	dx/dt        = f(t, x, q, p, c)
//	d(dx/dp)/dt  = df/dx * (dx/dp) + df/dp
//	d(dx/dx0)/dt = df/dx * (dx/dx0)    [when initial-condition sensitivities on]
//
// The extended state is laid out as x, then dx/dp row-major by state, then
// dx/dx0 row-major by state.
type Augmented struct {
	model    *fim.ModelSpec
	q        []float64
	initSens bool

	nx, np int
}

// NewAugmented binds one input combination q to the model and validates the
// shapes of every derivative function by evaluating it once at (T0, X0).
// Shape defects surface here instead of mid-integration.
func NewAugmented(model *fim.ModelSpec, q []float64, initSens bool) (*Augmented, error) {
	a := &Augmented{
		model:    model,
		q:        q,
		initSens: initSens,
		nx:       model.StateDim(),
		np:       model.ParamDim(),
	}

	t0, x0 := model.T0, model.X0
	if got := len(model.RHS(t0, x0, q, model.Params, model.Consts)); got != a.nx {
		return nil, fmt.Errorf("%w: RHS returned %d values, want %d", fim.ErrDimensionMismatch, got, a.nx)
	}
	if err := checkMatShape("DFDX", model.DFDX(t0, x0, q, model.Params, model.Consts), a.nx, a.nx); err != nil {
		return nil, err
	}
	if err := checkMatShape("DFDP", model.DFDP(t0, x0, q, model.Params, model.Consts), a.nx, a.np); err != nil {
		return nil, err
	}
	if initSens {
		if err := checkMatShape("DFDX0", model.DFDX0(t0, x0, q, model.Params, model.Consts), a.nx, a.nx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func checkMatShape(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%w: %s has %d rows, want %d", fim.ErrDimensionMismatch, name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", fim.ErrDimensionMismatch, name, i, len(row), cols)
		}
	}
	return nil
}

// Dim returns the extended state dimension.
func (a *Augmented) Dim() int {
	d := a.nx + a.nx*a.np
	if a.initSens {
		d += a.nx * a.nx
	}
	return d
}

// InitialState returns the extended initial condition: x0, a zero dx/dp
// block, and an identity dx/dx0 block when enabled.
func (a *Augmented) InitialState() fim.State {
	y := make(fim.State, a.Dim())
	copy(y, a.model.X0)
	if a.initSens {
		base := a.nx + a.nx*a.np
		for i := 0; i < a.nx; i++ {
			y[base+i*a.nx+i] = 1
		}
	}
	return y
}

// Derive evaluates the augmented right-hand side.
func (a *Augmented) Derive(t float64, y fim.State) fim.State {
	nx, np := a.nx, a.np
	m := a.model
	x := fim.State(y[:nx])

	f := m.RHS(t, x, a.q, m.Params, m.Consts)
	dfdx := m.DFDX(t, x, a.q, m.Params, m.Consts)
	dfdp := m.DFDP(t, x, a.q, m.Params, m.Consts)

	dy := make(fim.State, len(y))
	copy(dy, f)

	// d(dx_i/dp_j)/dt = sum_k dfdx[i][k] * s[k][j] + dfdp[i][j]
	sens := y[nx : nx+nx*np]
	dsens := dy[nx : nx+nx*np]
	for i := 0; i < nx; i++ {
		for j := 0; j < np; j++ {
			acc := dfdp[i][j]
			for k := 0; k < nx; k++ {
				acc += dfdx[i][k] * sens[k*np+j]
			}
			dsens[i*np+j] = acc
		}
	}

	if a.initSens {
		base := nx + nx*np
		s0 := y[base:]
		ds0 := dy[base:]
		for i := 0; i < nx; i++ {
			for j := 0; j < nx; j++ {
				acc := 0.0
				for k := 0; k < nx; k++ {
					acc += dfdx[i][k] * s0[k*nx+j]
				}
				ds0[i*nx+j] = acc
			}
		}
	}

	return dy
}

// Jacobian returns the derivative of the augmented right-hand side with
// respect to the extended state, for stiff integration. The state block is
// df/dx; each sensitivity column inherits the same coupling, since
// d(ds_ij/dt)/ds_kl = dfdx[i][k] when l == j. The sensitivity blocks also
// couple back to x through second derivatives of f, which ModelSpec does not
// carry; those entries stay zero. Rosenbrock-W steps keep their order under
// an approximate Jacobian.
func (a *Augmented) Jacobian(t float64, y fim.State) *mat.Dense {
	nx, np := a.nx, a.np
	m := a.model
	x := fim.State(y[:nx])
	dfdx := m.DFDX(t, x, a.q, m.Params, m.Consts)

	J := mat.NewDense(a.Dim(), a.Dim(), nil)
	for i := 0; i < nx; i++ {
		for k := 0; k < nx; k++ {
			J.Set(i, k, dfdx[i][k])
		}
	}
	for i := 0; i < nx; i++ {
		for k := 0; k < nx; k++ {
			for j := 0; j < np; j++ {
				J.Set(nx+i*np+j, nx+k*np+j, dfdx[i][k])
			}
		}
	}
	if a.initSens {
		base := nx + nx*np
		for i := 0; i < nx; i++ {
			for k := 0; k < nx; k++ {
				for j := 0; j < nx; j++ {
					J.Set(base+i*nx+j, base+k*nx+j, dfdx[i][k])
				}
			}
		}
	}
	return J
}

// Unpack converts the raw extended states produced by the integrator into a
// Trajectory: plain states plus the sensitivity tensor with axes
// (state, parameter, time). The parameter axis covers the model parameters
// followed by the initial conditions when enabled.
func (a *Augmented) Unpack(times []float64, raw []fim.State) *fim.Trajectory {
	nx, np := a.nx, a.np
	npFull := np
	if a.initSens {
		npFull += nx
	}

	tr := &fim.Trajectory{
		Times:  times,
		States: make([]fim.State, len(raw)),
		Sens:   fim.NewTensor(nx, npFull, len(raw)),
	}

	for k, y := range raw {
		tr.States[k] = fim.State(y[:nx]).Clone()
		for i := 0; i < nx; i++ {
			for j := 0; j < np; j++ {
				tr.Sens.Set(i, j, k, y[nx+i*np+j])
			}
		}
		if a.initSens {
			base := nx + nx*np
			for i := 0; i < nx; i++ {
				for j := 0; j < nx; j++ {
					tr.Sens.Set(i, np+j, k, y[base+i*nx+j])
				}
			}
		}
	}

	return tr
}
