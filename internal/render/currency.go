package render

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

var hundred = big.NewInt(100)

// FormatBRL formats v as Brazilian reais: "R$ 1.500,50". The exact binary
// value of v is rounded half away from zero to centavos, so 2.675 (stored as
// 2.67499...) gives "R$ 2,67". Negatives are prefixed with "-".
func FormatBRL(v float64) string {
	switch {
	case math.IsNaN(v):
		return "R$ NaN"
	case math.IsInf(v, 1):
		return "R$ ∞"
	case math.IsInf(v, -1):
		return "-R$ ∞"
	}

	cents := roundCents(math.Abs(v))
	negative := v < 0 && cents.Sign() > 0

	reaisInt, rem := new(big.Int).QuoRem(cents, hundred, new(big.Int))
	reais := reaisInt.String()
	centavos := int(rem.Int64())

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")
	b.WriteString(groupThousands(reais))
	b.WriteByte(',')
	if centavos < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(centavos))
	return b.String()
}

// roundCents returns v*100 rounded half up, computed without an
// intermediate float product.
func roundCents(v float64) *big.Int {
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, new(big.Rat).SetInt(hundred))

	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Lsh(m, 1).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
