package transform

import (
	"fmt"
	"math"
	"math/big"

	"github.com/dbsmedya/wikietl/internal/config"
)

// Rounding selects how a tie on the last kept digit is broken.
type Rounding string

const (
	// HalfEven rounds ties to the even neighbour (0.125 -> 0.12).
	HalfEven Rounding = config.RoundHalfEven
	// HalfUp rounds ties away from zero (0.125 -> 0.13).
	HalfUp Rounding = config.RoundHalfUp
)

// ParseRounding maps a configured mode to a Rounding. Empty selects HalfEven.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case "", HalfEven:
		return HalfEven, nil
	case HalfUp:
		return HalfUp, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Round rounds v to the given number of decimal places. Ties are decided on
// the exact binary value of v: 0.125 is a tie, while 93.465 is stored as
// 93.46500000000000341 and rounds up under either mode.
func Round(v float64, decimals int, mode Rounding) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || decimals < 0 {
		return v
	}

	exact := new(big.Rat).SetFloat64(math.Abs(v))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	num := new(big.Int).Mul(exact.Num(), scale)

	q, rem := new(big.Int).QuoRem(num, exact.Denom(), new(big.Int))
	switch rem.Lsh(rem, 1).Cmp(exact.Denom()) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if mode == HalfUp || q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}

	r, _ := new(big.Rat).SetFrac(q, scale).Float64()
	if v < 0 {
		r = -r
	}
	return r
}
