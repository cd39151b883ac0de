package fim

// Trajectory is the result of integrating one design combination: the state
// at every requested sample time plus the raw state-sensitivity tensor
// (axes: state, parameter, time). Consumers must treat it as read-only.
type Trajectory struct {
	Times  []float64
	States []State
	Sens   *Tensor
}

// StateSeries returns state component i at every sample time.
func (tr *Trajectory) StateSeries(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		out[k] = s[i]
	}
	return out
}
