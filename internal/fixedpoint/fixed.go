// Package fixedpoint implements an unsigned Q64.64 fixed-point number with
// checked arithmetic. Every operation is integer-only so results are
// bit-identical on every platform.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const fracBits = 64

var (
	// ErrArithmetic is the parent of every fixed-point failure.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrOverflow is returned when a result does not fit in 64 integer bits.
	ErrOverflow = fmt.Errorf("%w: overflow", ErrArithmetic)
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = fmt.Errorf("%w: underflow", ErrArithmetic)
	// ErrDivisionByZero is returned by Div and FromRatio on a zero divisor.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)
)

// UFixed is an unsigned number with 64 integer and 64 fractional bits.
// The raw value is kept in a uint256 and is always below 2^128, so a
// product of two raws never exceeds 256 bits.
type UFixed struct {
	raw uint256.Int
}

// Zero returns the fixed-point zero.
func Zero() UFixed {
	return UFixed{}
}

// FromUint64 converts an integer without loss.
func FromUint64(v uint64) UFixed {
	var f UFixed
	f.raw.SetUint64(v)
	f.raw.Lsh(&f.raw, fracBits)
	return f
}

// FromRatio returns num/den truncated to 64 fractional bits.
func FromRatio(num, den uint64) (UFixed, error) {
	return FromUint64(num).Div(FromUint64(den))
}

// Add returns x+y.
func (x UFixed) Add(y UFixed) (UFixed, error) {
	var z UFixed
	z.raw.Add(&x.raw, &y.raw)
	if !fits(&z.raw) {
		return UFixed{}, fmt.Errorf("add %s + %s: %w", x, y, ErrOverflow)
	}
	return z, nil
}

// Mul returns x*y truncated to 64 fractional bits.
func (x UFixed) Mul(y UFixed) (UFixed, error) {
	var z UFixed
	// both raws are < 2^128 so the full product fits in 256 bits
	z.raw.Mul(&x.raw, &y.raw)
	z.raw.Rsh(&z.raw, fracBits)
	if !fits(&z.raw) {
		return UFixed{}, fmt.Errorf("mul %s * %s: %w", x, y, ErrOverflow)
	}
	return z, nil
}

// Div returns x/y truncated to 64 fractional bits.
func (x UFixed) Div(y UFixed) (UFixed, error) {
	if y.raw.IsZero() {
		return UFixed{}, fmt.Errorf("div %s / 0: %w", x, ErrDivisionByZero)
	}
	var num UFixed
	num.raw.Lsh(&x.raw, fracBits)
	var z UFixed
	z.raw.Div(&num.raw, &y.raw)
	if !fits(&z.raw) {
		return UFixed{}, fmt.Errorf("div %s / %s: %w", x, y, ErrOverflow)
	}
	return z, nil
}

// MulDiv returns x*y/z with a single truncation. The product is kept at
// full width, so only a quotient of 2^64 or more overflows.
func MulDiv(x, y, z UFixed) (UFixed, error) {
	if z.raw.IsZero() {
		return UFixed{}, fmt.Errorf("muldiv %s * %s / 0: %w", x, y, ErrDivisionByZero)
	}
	// (x/2^64)*(y/2^64)/(z/2^64) scaled by 2^64 is raw(x)*raw(y)/raw(z)
	var q UFixed
	q.raw.Mul(&x.raw, &y.raw)
	q.raw.Div(&q.raw, &z.raw)
	if !fits(&q.raw) {
		return UFixed{}, fmt.Errorf("muldiv %s * %s / %s: %w", x, y, z, ErrOverflow)
	}
	return q, nil
}

// SqrtMul returns sqrt(x*y) truncated to 64 fractional bits without
// rounding the product first. It never fails.
func SqrtMul(x, y UFixed) UFixed {
	var z UFixed
	z.raw.Mul(&x.raw, &y.raw)
	z.raw.Sqrt(&z.raw)
	return z
}

// Sqrt returns the square root truncated to 64 fractional bits. It never
// fails: the root of any value below 2^64 is below 2^32.
func (x UFixed) Sqrt() UFixed {
	// sqrt(raw / 2^64) * 2^64 == sqrt(raw * 2^64)
	var scaled uint256.Int
	scaled.Lsh(&x.raw, fracBits)
	var z UFixed
	z.raw.Sqrt(&scaled)
	return z
}

// Floor truncates to an integer.
func (x UFixed) Floor() uint64 {
	var z uint256.Int
	z.Rsh(&x.raw, fracBits)
	return z.Uint64()
}

// IsZero reports whether x == 0.
func (x UFixed) IsZero() bool {
	return x.raw.IsZero()
}

// Cmp returns -1, 0 or +1 as x is less than, equal to or greater than y.
func (x UFixed) Cmp(y UFixed) int {
	return x.raw.Cmp(&y.raw)
}

// Min returns the smaller of x and y.
func Min(x, y UFixed) UFixed {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

// Raw exposes the underlying Q64.64 integer, for debugging and tests.
func (x UFixed) Raw() *big.Int {
	return x.raw.ToBig()
}

// String renders the exact decimal value, trimmed of trailing zeros.
func (x UFixed) String() string {
	denom := new(big.Int).Lsh(big.NewInt(1), fracBits)
	text := new(big.Rat).SetFrac(x.raw.ToBig(), denom).FloatString(fracBits)
	for len(text) > 0 && text[len(text)-1] == '0' {
		text = text[:len(text)-1]
	}
	if len(text) > 0 && text[len(text)-1] == '.' {
		text = text[:len(text)-1]
	}
	return text
}

func fits(v *uint256.Int) bool {
	return v[2] == 0 && v[3] == 0
}
