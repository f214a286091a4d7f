package eval

import (
	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise mixes a Dirichlet sample into a prior distribution to diversify
// exploration at the search root. Zero value disables it.
type Noise struct {
	// Epsilon is the mixing fraction in [0,1]. Zero disables the noise.
	Epsilon float64
	// Alpha is the symmetric Dirichlet concentration parameter.
	Alpha float64
}

func (n Noise) Enabled() bool {
	return n.Epsilon > 0 && n.Alpha > 0
}

// Apply returns (1-eps)*priors + eps*Dirichlet(alpha), drawn from the given
// seed. The input is not modified; the result sums to 1 when the input does.
func (n Noise) Apply(priors []float64, seed uint64) []float64 {
	if !n.Enabled() || len(priors) == 0 {
		return priors
	}

	alpha := make([]float64, len(priors))
	for i := range alpha {
		alpha[i] = n.Alpha
	}
	dir := distmv.NewDirichlet(alpha, distrand.NewSource(seed))
	sample := dir.Rand(nil)

	out := make([]float64, len(priors))
	for i, p := range priors {
		out[i] = (1-n.Epsilon)*p + n.Epsilon*sample[i]
	}
	return out
}
