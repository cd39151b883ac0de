package design

// Combination is one concrete design point: fixed input values plus the
// measurement times for that point. Index is the position in enumeration
// order and doubles as the result slot for parallel runs.
type Combination struct {
	Index int
	Q     []float64
	Times []float64
}

// Enumerate lists every input combination in lexicographic order with the
// last input index varying fastest. Downstream reshaping of the aggregated
// sensitivity matrix assumes exactly this order, so it is part of the
// package contract.
func (g *Grid) Enumerate() []Combination {
	n := g.NumCombinations()
	combos := make([]Combination, n)
	for idx := 0; idx < n; idx++ {
		combos[idx] = Combination{
			Index: idx,
			Q:     g.qAt(idx),
			Times: g.TimesFor(idx),
		}
	}
	return combos
}

// qAt decodes a flat enumeration index into input values, mixed-radix with
// the last dimension as the least significant digit.
func (g *Grid) qAt(idx int) []float64 {
	m := len(g.Inputs)
	q := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		size := len(g.Inputs[i])
		q[i] = g.Inputs[i][idx%size]
		idx /= size
	}
	return q
}
