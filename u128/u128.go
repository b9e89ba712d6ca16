package u128

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	binary "github.com/gagliardetto/binary"
)

var (
	ErrNegative = errors.New("value cannot be negative")
	ErrOverflow = errors.New("value overflows Uint128")
)

// Uint128 scans decimal or 0x-prefixed text into a binary.Uint128.
type Uint128 binary.Uint128

func (u *Uint128) Scan(s fmt.ScanState, ch rune) error {
	i := new(big.Int)
	if err := i.Scan(s, ch); err != nil {
		return err
	}
	if err := check(i); err != nil {
		return err
	}
	*u = Uint128(split(i))
	return nil
}

// ParseBig parses an unsigned 128-bit integer. Underscore separators and
// 0x, 0o, 0b prefixes are accepted, as is a "<<n" shift suffix so Q64
// values can be written as "1<<64".
func ParseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	shift := uint(0)
	if base, bits, ok := strings.Cut(s, "<<"); ok {
		n, err := fmt.Sscan(strings.TrimSpace(bits), &shift)
		if err != nil || n != 1 {
			return nil, fmt.Errorf("parse %q: bad shift", s)
		}
		s = strings.TrimSpace(base)
	}
	i, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("parse %q: not an integer", s)
	}
	i.Lsh(i, shift)
	if err := check(i); err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return i, nil
}

// Parse is ParseBig returning the record field representation.
func Parse(s string) (binary.Uint128, error) {
	i, err := ParseBig(s)
	if err != nil {
		return binary.Uint128{}, err
	}
	return split(i), nil
}

// MustParse panics on malformed input; for constants and tests.
func MustParse(s string) binary.Uint128 {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func check(i *big.Int) error {
	if i.Sign() < 0 {
		return ErrNegative
	}
	if i.BitLen() > 128 {
		return ErrOverflow
	}
	return nil
}

var lowMask = new(big.Int).SetUint64(^uint64(0))

func split(i *big.Int) binary.Uint128 {
	return binary.Uint128{
		Lo: new(big.Int).And(i, lowMask).Uint64(),
		Hi: new(big.Int).Rsh(i, 64).Uint64(),
	}
}
