package state

import (
	"math/big"

	binary "github.com/gagliardetto/binary"
)

var lowMask = new(big.Int).SetUint64(^uint64(0))

// U128 narrows v into a Uint128. Callers range check v beforehand.
func U128(v *big.Int) binary.Uint128 {
	if v == nil {
		return binary.Uint128{}
	}
	lo := new(big.Int).And(v, lowMask).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	return binary.Uint128{Lo: lo, Hi: hi}
}

func IsZeroU128(v binary.Uint128) bool {
	return v.Lo == 0 && v.Hi == 0
}

// U64 widens a stored u64 into a big integer.
func U64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// U256 reads a 32 byte little endian accumulator.
func U256(b [32]uint8) *big.Int {
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

// PutU256 stores v as 32 little endian bytes, keeping the low 256 bits.
func PutU256(v *big.Int) [32]uint8 {
	var out [32]uint8
	be := v.Bytes()
	for i := 0; i < len(be) && i < len(out); i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}
