package factor

import (
	"math/big"
	"sort"
)

// Power is one prime-power term of a decomposition.
type Power struct {
	Prime    *big.Int
	Exponent int
}

// Decomposition is the factor multiset of an integer: each prime mapped
// to its positive exponent. The zero exponent never appears. The
// product of Prime^Exponent over all entries equals the factored input
// exactly.
type Decomposition struct {
	entries map[string]*Power
}

// NewDecomposition returns an empty decomposition, the result of
// factoring 1.
func NewDecomposition() *Decomposition {
	return &Decomposition{entries: make(map[string]*Power)}
}

// Add increments the exponent of prime p, inserting it with exponent 1
// on first sight. The decomposition keeps its own copy of p.
func (d *Decomposition) Add(p *big.Int) {
	key := p.String()
	if e, ok := d.entries[key]; ok {
		e.Exponent++
		return
	}
	d.entries[key] = &Power{Prime: new(big.Int).Set(p), Exponent: 1}
}

// Exponent returns the exponent of p, or 0 when p is not a factor.
func (d *Decomposition) Exponent(p *big.Int) int {
	if e, ok := d.entries[p.String()]; ok {
		return e.Exponent
	}
	return 0
}

// Len returns the number of distinct primes.
func (d *Decomposition) Len() int {
	return len(d.entries)
}

// Powers returns the terms in ascending numeric order of prime.
func (d *Decomposition) Powers() []Power {
	out := make([]Power, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Prime.Cmp(out[j].Prime) < 0
	})
	return out
}

// Product multiplies out the decomposition. For an empty decomposition
// the product is 1.
func (d *Decomposition) Product() *big.Int {
	prod := big.NewInt(1)
	term := new(big.Int)
	for _, e := range d.entries {
		term.Set(e.Prime)
		for i := 0; i < e.Exponent; i++ {
			prod.Mul(prod, term)
		}
	}
	return prod
}
