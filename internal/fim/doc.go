// Package fim provides the core types for Fisher-information experimental
// design of parametric ODE models.
//
// The package defines the fundamental types shared by the rest of the engine:
//
//   - [State]: vector of state values
//   - [ModelSpec]: an ODE model with optional analytic derivatives and an
//     optional observable function
//   - [Tensor]: 3-axis sensitivity container (output, parameter, time)
//   - [Trajectory]: one integration result at requested sample times
//
// # Conventions
//
// Every user-supplied function takes the same argument tuple
// (t, x, q, p, c): time, state, controllable inputs, parameters, constants.
// Matrix-valued derivatives are row-major nested slices; dfdx is n_x rows by
// n_x columns, dfdp is n_x rows by n_p columns, dgdx is n_obs rows by n_x
// columns.
//
// # Thread Safety
//
// ModelSpec functions must be re-entrant: the design enumerator calls them
// from concurrent integrations. All other types are owned by a single
// evaluation and are not shared.
package fim
