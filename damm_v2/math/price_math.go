package math

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

// CalculateInitSqrtPrice finds the sqrt price at which the given deposit
// fully backs the same liquidity on both sides of [minSqrtPrice, maxSqrtPrice].
func CalculateInitSqrtPrice(tokenAAmount, tokenBAmount, minSqrtPrice, maxSqrtPrice *big.Int) (*big.Int, error) {
	if tokenAAmount.Sign() == 0 || tokenBAmount.Sign() == 0 {
		return nil, shared.ErrAmountIsZero
	}
	amountA := decimal.NewFromBigInt(tokenAAmount, 0)
	amountB := decimal.NewFromBigInt(tokenBAmount, 0)
	minSqrt := Q64ToDecimal(minSqrtPrice, -1)
	maxSqrt := Q64ToDecimal(maxSqrtPrice, -1)

	x := decimal.NewFromInt(1).Div(maxSqrt)
	y := amountB.Div(amountA)
	xy := x.Mul(y)

	paMinusXY := minSqrt.Sub(xy)
	xyMinusPa := xy.Sub(minSqrt)
	fourY := decimal.NewFromInt(4).Mul(y)
	discriminant := xyMinusPa.Mul(xyMinusPa).Add(fourY)
	discFloat, ok := new(big.Float).SetPrec(256).SetString(discriminant.String())
	if !ok {
		return nil, errors.New("invalid discriminant")
	}
	sqrtDisc, err := decimal.NewFromString(new(big.Float).SetPrec(256).Sqrt(discFloat).Text('f', 40))
	if err != nil {
		return nil, err
	}
	result := DecimalToQ64(paMinusXY.Add(sqrtDisc).Div(decimal.NewFromInt(2)))
	if err := ValidatePriceRange(result, minSqrtPrice, maxSqrtPrice); err != nil {
		return nil, fmt.Errorf("init sqrt price %s: %w", result.String(), err)
	}
	return result, nil
}

func GetPriceFromSqrtPrice(sqrtPrice *big.Int, tokenADecimal, tokenBDecimal uint8) decimal.Decimal {
	decSqrt := decimal.NewFromBigInt(sqrtPrice, 0)
	return decSqrt.Mul(decSqrt).
		Mul(decimal.New(1, int32(tokenADecimal)-int32(tokenBDecimal))).
		Div(decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0))
}

func GetSqrtPriceFromPrice(price decimal.Decimal, tokenADecimal, tokenBDecimal uint8) (*big.Int, error) {
	adjusted := price.Div(decimal.New(1, int32(tokenADecimal)-int32(tokenBDecimal)))
	f, ok := new(big.Float).SetPrec(256).SetString(adjusted.String())
	if !ok || f.Sign() <= 0 {
		return nil, fmt.Errorf("price %s: %w", price.String(), shared.ErrInvalidParameters)
	}
	sqrtValue := new(big.Float).SetPrec(256).Sqrt(f)
	sqrtValue.Mul(sqrtValue, new(big.Float).SetInt(shared.OneQ64))
	out, _ := sqrtValue.Int(nil)
	return out, nil
}

// GetPriceImpact returns the distance between execution and spot price in percent.
func GetPriceImpact(amountIn, amountOut, currentSqrtPrice *big.Int, aToB bool, tokenADecimal, tokenBDecimal uint8) (decimal.Decimal, error) {
	if amountIn.Sign() == 0 {
		return decimal.Zero, nil
	}
	if amountOut.Sign() == 0 {
		return decimal.Zero, errors.New("amount out must be greater than 0")
	}
	spotPrice := GetPriceFromSqrtPrice(currentSqrtPrice, tokenADecimal, tokenBDecimal)
	if spotPrice.IsZero() {
		return decimal.Zero, errors.New("spot price is zero")
	}
	scale := decimal.New(1, int32(tokenADecimal)-int32(tokenBDecimal))
	var executionPrice decimal.Decimal
	if aToB {
		executionPrice = decimal.NewFromBigInt(amountOut, 0).Div(decimal.NewFromBigInt(amountIn, 0))
	} else {
		executionPrice = decimal.NewFromBigInt(amountIn, 0).Div(decimal.NewFromBigInt(amountOut, 0))
	}
	executionPrice = executionPrice.Mul(scale)
	return executionPrice.Sub(spotPrice).Abs().Div(spotPrice).Mul(decimal.NewFromInt(100)), nil
}

// GetPriceChange returns |next² - current²| / current² in percent.
func GetPriceChange(nextSqrtPrice, currentSqrtPrice *big.Int) decimal.Decimal {
	den := new(big.Int).Mul(currentSqrtPrice, currentSqrtPrice)
	if den.Sign() == 0 {
		return decimal.Zero
	}
	diff := new(big.Int).Sub(new(big.Int).Mul(nextSqrtPrice, nextSqrtPrice), den)
	diff.Abs(diff)
	return decimal.NewFromBigInt(diff, 0).Div(decimal.NewFromBigInt(den, 0)).Mul(decimal.NewFromInt(100))
}
