package pool_fees

import (
	"fmt"
	"math/big"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

var (
	one             = big.NewInt(1)
	two             = big.NewInt(2)
	four            = big.NewInt(4)
	feeDenominator  = big.NewInt(shared.FeeDenominator)
	basisPointMax   = big.NewInt(shared.BasisPointMax)
	minFeeNumerator = big.NewInt(shared.MinFeeNumerator)
)

func toNumerator(bps *big.Int) *big.Int {
	out := new(big.Int).Mul(bps, feeDenominator)
	return out.Div(out, basisPointMax)
}

// ToNumerator converts basis points into a fee numerator over FeeDenominator.
func ToNumerator(bps uint64) *big.Int {
	return toNumerator(new(big.Int).SetUint64(bps))
}

// GetMaxFeeNumerator returns the protocol fee ceiling of a pool version.
func GetMaxFeeNumerator(poolVersion shared.PoolVersion) *big.Int {
	switch poolVersion {
	case shared.PoolVersionV0:
		return big.NewInt(shared.MaxFeeNumeratorV0)
	case shared.PoolVersionV1:
		return big.NewInt(shared.MaxFeeNumeratorV1)
	default:
		return big.NewInt(0)
	}
}

func GetMaxFeeBps(poolVersion shared.PoolVersion) uint64 {
	switch poolVersion {
	case shared.PoolVersionV0:
		return shared.MaxFeeBpsV0
	case shared.PoolVersionV1:
		return shared.MaxFeeBpsV1
	default:
		return 0
	}
}

func invalidFee(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, shared.ErrInvalidFeeConfiguration)...)
}
