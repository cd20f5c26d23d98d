package aggregate

import (
	"math"
	"math/big"
	"strconv"
)

// Figure is a statistic rounded to a fixed number of decimals. NaN marks a
// ratio whose denominator was zero; it is kept rather than replaced.
type Figure float64

// Undefined reports whether the figure came from a zero denominator.
func (f Figure) Undefined() bool { return math.IsNaN(float64(f)) }

func (f Figure) Float64() float64 { return float64(f) }

// String renders the figure the way reports show it; undefined figures read "n/a".
func (f Figure) String() string {
	if f.Undefined() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

func (f Figure) MarshalJSON() ([]byte, error) {
	if f.Undefined() || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// roundPrec holds |v|*10^decimals + 0.5 exactly for any finite float64
// that is not vanishingly small.
const roundPrec = 256

// round returns v rounded to the given decimals. The exact binary value of v
// is rounded, with exact ties going away from zero, so 1.45 (stored as
// 1.4499999...) becomes 1.4 while 12.5 becomes 13.
func round(v float64, decimals int) Figure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Figure(v)
	}
	scale := new(big.Float).SetPrec(roundPrec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	x := new(big.Float).SetPrec(roundPrec).SetFloat64(math.Abs(v))
	x.Mul(x, scale).Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	q := new(big.Float).SetPrec(roundPrec).SetInt(n)
	out, _ := q.Quo(q, scale).Float64()
	if v < 0 {
		out = -out
	}
	return Figure(out)
}

// ratio divides without guarding; 0/0 yields NaN.
func ratio(num, den float64) float64 {
	return num / den
}
