package dammv2

import (
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func addU64(a uint64, b *big.Int) (uint64, error) {
	sum := new(big.Int).Add(state.U64(a), b)
	if !fitsU64(sum) {
		return 0, fmt.Errorf("u64 add %d + %s: %w", a, b.String(), shared.ErrArithmeticOverflow)
	}
	return sum.Uint64(), nil
}

func subU64(a uint64, b *big.Int) (uint64, error) {
	diff := new(big.Int).Sub(state.U64(a), b)
	if !fitsU64(diff) {
		return 0, fmt.Errorf("u64 sub %d - %s: %w", a, b.String(), shared.ErrArithmeticOverflow)
	}
	return diff.Uint64(), nil
}

func addU128(a binary.Uint128, b *big.Int) (binary.Uint128, error) {
	sum := new(big.Int).Add(a.BigInt(), b)
	if !fitsU128(sum) {
		return binary.Uint128{}, fmt.Errorf("u128 add: %w", shared.ErrArithmeticOverflow)
	}
	return state.U128(sum), nil
}

func subU128(a binary.Uint128, b *big.Int) (binary.Uint128, error) {
	diff := new(big.Int).Sub(a.BigInt(), b)
	if !fitsU128(diff) {
		return binary.Uint128{}, fmt.Errorf("u128 sub: %w", shared.ErrArithmeticOverflow)
	}
	return state.U128(diff), nil
}

func addU256(a [32]uint8, b *big.Int) ([32]uint8, error) {
	sum := new(big.Int).Add(state.U256(a), b)
	if sum.Cmp(shared.U256Max) > 0 {
		return a, fmt.Errorf("u256 add: %w", shared.ErrArithmeticOverflow)
	}
	return state.PutU256(sum), nil
}

// mulDivFloor returns floor(v * numerator / SplitPositionDenominator).
func mulDivFloor(v *big.Int, numerator uint32) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(int64(numerator)))
	return out.Div(out, big.NewInt(SplitPositionDenominator))
}
