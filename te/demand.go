package te

// Demand is an amount of traffic to send from one node to another.
type Demand struct {
	From   int
	To     int
	Volume float64
}

// Pair returns the (source, destination) pair of the demand.
func (d Demand) Pair() Pair {
	return Pair{d.From, d.To}
}

// Pair identifies a traffic matrix entry.
type Pair struct {
	From int
	To   int
}
