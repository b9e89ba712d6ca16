package math

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func Q64ToDecimal(num *big.Int, decimalPlaces int32) decimal.Decimal {
	if num == nil {
		return decimal.Zero
	}
	out := decimal.NewFromBigInt(num, 0).Div(decimal.NewFromBigInt(shared.OneQ64, 0))
	if decimalPlaces >= 0 {
		return out.Round(decimalPlaces)
	}
	return out
}

func DecimalToQ64(num decimal.Decimal) *big.Int {
	v := num.Mul(decimal.NewFromBigInt(shared.OneQ64, 0)).Floor()
	return v.BigInt()
}
