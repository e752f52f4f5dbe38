package domain

import (
	"github.com/holiman/uint256"
)

// ParseAmount parses a base-10 amount in smallest units. It rejects
// malformed strings and values that do not fit in 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, ErrInvalidAmount
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount as a base-10 string. A nil amount renders
// as "0" so persisted records never carry empty numerics.
func FormatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

// CheckedMul returns a*b or ErrOverflow.
func CheckedMul(a, b *uint256.Int) (*uint256.Int, error) {
	prod, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return prod, nil
}

// CheckedSub returns a-b or ErrOverflow on underflow.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrOverflow
	}
	return diff, nil
}
