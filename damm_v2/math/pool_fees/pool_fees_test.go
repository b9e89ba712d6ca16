package pool_fees

import (
	"errors"
	"math/big"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

func TestFeeTimeSchedulerMonotone(t *testing.T) {
	for _, mode := range []shared.BaseFeeMode{shared.BaseFeeModeFeeTimeSchedulerLinear, shared.BaseFeeModeFeeTimeSchedulerExponential} {
		params, err := helpers.GetFeeTimeSchedulerParams(5000, 25, mode, 60, 3600)
		if err != nil {
			t.Fatal("GetFeeTimeSchedulerParams() fail", err)
		}
		handler, err := GetBaseFeeHandlerFromParams(params)
		if err != nil {
			t.Fatal("GetBaseFeeHandlerFromParams() fail", err)
		}
		scheduler := handler.(FeeTimeScheduler)

		activation := big.NewInt(1_000)
		prev := new(big.Int).Set(scheduler.CliffFeeNumerator)
		for point := int64(1_000); point <= 5_000; point += 30 {
			fee, err := GetFeeTimeBaseFeeNumerator(scheduler.CliffFeeNumerator, scheduler.NumberOfPeriod, scheduler.PeriodFrequency, scheduler.ReductionFactor, mode, big.NewInt(point), activation)
			if err != nil {
				t.Fatal("GetFeeTimeBaseFeeNumerator() fail", err)
			}
			if fee.Cmp(prev) > 0 {
				t.Fatalf("%s: fee rose from %s to %s at point %d", mode, prev, fee, point)
			}
			prev = fee
		}
		minFee, err := handler.GetMinFeeNumerator()
		if err != nil {
			t.Fatal("GetMinFeeNumerator() fail", err)
		}
		if prev.Cmp(minFee) != 0 {
			t.Fatalf("%s: fee after the last period %s, want %s", mode, prev, minFee)
		}

		before, err := GetFeeTimeBaseFeeNumerator(scheduler.CliffFeeNumerator, scheduler.NumberOfPeriod, scheduler.PeriodFrequency, scheduler.ReductionFactor, mode, big.NewInt(10), activation)
		if err != nil {
			t.Fatal("GetFeeTimeBaseFeeNumerator() fail", err)
		}
		if before.Cmp(minFee) != 0 {
			t.Fatalf("%s: fee before activation %s, want the final fee %s", mode, before, minFee)
		}
	}
}

func TestRateLimiterFeeNumerator(t *testing.T) {
	reference := big.NewInt(1_000_000_000)
	cliff := big.NewInt(10_000_000)

	fee, err := GetFeeNumeratorFromIncludedFeeAmount(big.NewInt(500_000_000), reference, cliff, 5000, 10)
	if err != nil {
		t.Fatal("GetFeeNumeratorFromIncludedFeeAmount() fail", err)
	}
	if fee.Cmp(cliff) != 0 {
		t.Fatalf("fee below the reference amount %s, want %s", fee, cliff)
	}

	// one reference slice at 1% and one at 1.1%
	fee, err = GetFeeNumeratorFromIncludedFeeAmount(big.NewInt(2_000_000_000), reference, cliff, 5000, 10)
	if err != nil {
		t.Fatal("GetFeeNumeratorFromIncludedFeeAmount() fail", err)
	}
	if fee.Cmp(big.NewInt(10_500_000)) != 0 {
		t.Fatalf("fee %s, want 10500000", fee)
	}

	prev := big.NewInt(0)
	maxFee := ToNumerator(5000)
	for _, multiple := range []int64{1, 2, 10, 100, 490, 491, 1_000} {
		amount := new(big.Int).Mul(reference, big.NewInt(multiple))
		fee, err := GetFeeNumeratorFromIncludedFeeAmount(amount, reference, cliff, 5000, 10)
		if err != nil {
			t.Fatal("GetFeeNumeratorFromIncludedFeeAmount() fail", err)
		}
		if fee.Cmp(prev) < 0 || fee.Cmp(maxFee) > 0 {
			t.Fatalf("fee %s for %dx reference outside [%s, %s]", fee, multiple, prev, maxFee)
		}
		prev = fee
	}
}

func TestRateLimiterOnlyBtoA(t *testing.T) {
	reference := big.NewInt(1_000_000_000)
	activation := big.NewInt(100)
	if IsRateLimiterApplied(reference, 10, 5000, 10, big.NewInt(105), activation, shared.TradeDirectionAtoB) {
		t.Fatal("rate limiter applied to an a to b trade")
	}
	if !IsRateLimiterApplied(reference, 10, 5000, 10, big.NewInt(110), activation, shared.TradeDirectionBtoA) {
		t.Fatal("rate limiter not applied inside its window")
	}
	if IsRateLimiterApplied(reference, 10, 5000, 10, big.NewInt(111), activation, shared.TradeDirectionBtoA) {
		t.Fatal("rate limiter applied after its window")
	}
}

func TestMarketCapSchedulerFollowsPriceInsideWindow(t *testing.T) {
	initSqrtPrice := big.NewInt(1_000_000)
	// 5% above the initial sqrt price
	movedSqrtPrice := big.NewInt(1_050_000)
	cliff := big.NewInt(500_000_000)
	reduction := big.NewInt(10_000_000)
	ctx := shared.FeeContext{
		CurrentPoint:     big.NewInt(150),
		ActivationPoint:  big.NewInt(100),
		InitSqrtPrice:    initSqrtPrice,
		CurrentSqrtPrice: movedSqrtPrice,
	}

	if period := GetFeeMarketCapPeriod(20, 100, 1_000, ctx); period != 5 {
		t.Fatalf("period %d inside the window, want 5", period)
	}

	scheduler := FeeMarketCapScheduler{NumberOfPeriod: 20, SqrtPriceStepBps: 100, SchedulerExpirationDuration: 1_000}
	ctx.ReachedPeriod = scheduler.NextReachedPeriod(ctx, movedSqrtPrice)
	if ctx.ReachedPeriod != 5 {
		t.Fatalf("reached period %d, want 5", ctx.ReachedPeriod)
	}

	// price returns home inside the window, the fee climbs back to the cliff
	ctx.CurrentSqrtPrice = initSqrtPrice
	if period := GetFeeMarketCapPeriod(20, 100, 1_000, ctx); period != 0 {
		t.Fatalf("period %d after the price returned, want 0", period)
	}
	fee, err := GetFeeMarketCapBaseFeeNumerator(cliff, 20, 100, 1_000, reduction, shared.BaseFeeModeFeeMarketCapSchedulerLinear, ctx)
	if err != nil {
		t.Fatal("GetFeeMarketCapBaseFeeNumerator() fail", err)
	}
	if fee.Cmp(cliff) != 0 {
		t.Fatalf("fee %s after the price returned, want the cliff %s", fee, cliff)
	}
	if next := scheduler.NextReachedPeriod(ctx, initSqrtPrice); next != 0 {
		t.Fatalf("reached period %d after the price returned, want 0", next)
	}
}

func TestMarketCapSchedulerFreezesAfterExpiry(t *testing.T) {
	initSqrtPrice := big.NewInt(1_000_000)
	scheduler := FeeMarketCapScheduler{NumberOfPeriod: 20, SqrtPriceStepBps: 100, SchedulerExpirationDuration: 1_000}
	ctx := shared.FeeContext{
		CurrentPoint:     big.NewInt(900),
		ActivationPoint:  big.NewInt(100),
		InitSqrtPrice:    initSqrtPrice,
		CurrentSqrtPrice: initSqrtPrice,
	}
	// last swap inside the window leaves the price 3% up
	ctx.ReachedPeriod = scheduler.NextReachedPeriod(ctx, big.NewInt(1_030_000))
	if ctx.ReachedPeriod != 3 {
		t.Fatalf("reached period %d, want 3", ctx.ReachedPeriod)
	}

	for _, tt := range []struct {
		point     int64
		sqrtPrice int64
	}{
		{1_101, 1_000_000},
		{1_101, 2_000_000},
		{500_000, 1_500_000},
	} {
		ctx.CurrentPoint = big.NewInt(tt.point)
		ctx.CurrentSqrtPrice = big.NewInt(tt.sqrtPrice)
		if period := GetFeeMarketCapPeriod(20, 100, 1_000, ctx); period != 3 {
			t.Fatalf("period %d at point %d after expiry, want 3", period, tt.point)
		}
		if next := scheduler.NextReachedPeriod(ctx, ctx.CurrentSqrtPrice); next != 3 {
			t.Fatalf("reached period moved to %d after expiry", next)
		}
	}

	// before activation the last period applies
	ctx.CurrentPoint = big.NewInt(50)
	if period := GetFeeMarketCapPeriod(20, 100, 1_000, ctx); period != 20 {
		t.Fatalf("period %d before activation, want 20", period)
	}
}

func TestMarketCapSchedulerMonotone(t *testing.T) {
	initSqrtPrice := new(big.Int).Set(shared.OneQ64)
	for _, mode := range []shared.BaseFeeMode{shared.BaseFeeModeFeeMarketCapSchedulerLinear, shared.BaseFeeModeFeeMarketCapSchedulerExp} {
		params, err := helpers.GetFeeMarketCapSchedulerParams(5000, 100, mode, 20, 100, 1_000)
		if err != nil {
			t.Fatal("GetFeeMarketCapSchedulerParams() fail", err)
		}
		handler, err := GetBaseFeeHandlerFromParams(params)
		if err != nil {
			t.Fatal("GetBaseFeeHandlerFromParams() fail", err)
		}
		scheduler := handler.(FeeMarketCapScheduler)
		minFee, err := handler.GetMinFeeNumerator()
		if err != nil {
			t.Fatal("GetMinFeeNumerator() fail", err)
		}

		ctx := shared.FeeContext{
			CurrentPoint:    big.NewInt(150),
			ActivationPoint: big.NewInt(100),
			InitSqrtPrice:   initSqrtPrice,
		}
		prev := new(big.Int).Set(scheduler.CliffFeeNumerator)
		// 0.25% sqrt price steps up to 25% above the start
		for i := int64(0); i <= 100; i++ {
			ctx.CurrentSqrtPrice = new(big.Int).Mul(initSqrtPrice, big.NewInt(10_000+25*i))
			ctx.CurrentSqrtPrice.Div(ctx.CurrentSqrtPrice, big.NewInt(10_000))
			fee, err := GetFeeMarketCapBaseFeeNumerator(scheduler.CliffFeeNumerator, scheduler.NumberOfPeriod, scheduler.SqrtPriceStepBps, scheduler.SchedulerExpirationDuration, scheduler.ReductionFactor, mode, ctx)
			if err != nil {
				t.Fatal("GetFeeMarketCapBaseFeeNumerator() fail", err)
			}
			if i == 0 && fee.Cmp(scheduler.CliffFeeNumerator) != 0 {
				t.Fatalf("%s: fee %s at the initial price, want the cliff", mode, fee)
			}
			if fee.Cmp(prev) > 0 {
				t.Fatalf("%s: fee rose from %s to %s at step %d", mode, prev, fee, i)
			}
			if fee.Cmp(big.NewInt(shared.MinFeeNumerator)) < 0 {
				t.Fatalf("%s: fee %s below the minimum", mode, fee)
			}
			prev = fee
		}
		if prev.Cmp(minFee) != 0 {
			t.Fatalf("%s: fee past the last period %s, want %s", mode, prev, minFee)
		}
	}
}

func TestExponentialFeeByPeriod(t *testing.T) {
	cliff := big.NewInt(500_000_000)
	tests := []struct {
		reductionBps int64
		period       uint16
		want         int64
	}{
		{5000, 0, 500_000_000},
		{5000, 1, 250_000_000},
		{5000, 2, 125_000_000},
		{5000, 4, 31_250_000},
		{2500, 1, 375_000_000},
		{2500, 2, 281_250_000},
	}
	for _, tt := range tests {
		got := GetFeeNumeratorOnExponentialFeeScheduler(cliff, big.NewInt(tt.reductionBps), tt.period)
		if got.Cmp(big.NewInt(tt.want)) != 0 {
			t.Fatalf("reduction %d bps period %d: fee %s, want %d", tt.reductionBps, tt.period, got, tt.want)
		}
	}

	// capped at the last period
	got, err := getFeeNumeratorByPeriod(cliff, big.NewInt(5000), 2, 9, true)
	if err != nil {
		t.Fatal("getFeeNumeratorByPeriod() fail", err)
	}
	if got.Int64() != 125_000_000 {
		t.Fatalf("fee %s past the last period, want 125000000", got)
	}
}

func TestDynamicFeeNumerator(t *testing.T) {
	tests := []struct {
		accumulator, binStep, variableFeeControl int64
		want                                     int64
	}{
		{0, 80, 9_000, 0},
		{1, 1, 1, 1},
		{3, 7, 5_000, 1},
		{10_000, 1, 1_000_000, 1_000},
		{100_000, 10, 123_456, 1_234_560},
		// 987600^2 * 9000 / 1e11 = 87781.8384
		{12_345, 80, 9_000, 87_782},
	}
	for _, tt := range tests {
		got := GetDynamicFeeNumerator(big.NewInt(tt.accumulator), big.NewInt(tt.binStep), big.NewInt(tt.variableFeeControl))
		if got.Cmp(big.NewInt(tt.want)) != 0 {
			t.Fatalf("surcharge(%d, %d, %d) = %s, want %d", tt.accumulator, tt.binStep, tt.variableFeeControl, got, tt.want)
		}
	}

	dynamicFee := state.DynamicFeeStruct{
		BinStep:               80,
		VariableFeeControl:    9_000,
		VolatilityAccumulator: state.U128(big.NewInt(12_345)),
	}
	if got := DynamicFeeNumerator(dynamicFee); got.Sign() != 0 {
		t.Fatalf("surcharge %s while disabled, want 0", got)
	}
	dynamicFee.Initialized = 1
	if got := DynamicFeeNumerator(dynamicFee); got.Int64() != 87_782 {
		t.Fatalf("surcharge %s while enabled, want 87782", got)
	}
}

func TestUpdateReferencesDecayWindow(t *testing.T) {
	tests := []struct {
		now           uint64
		wantReference int64
		wantMoved     bool
	}{
		{1_005, 0, false},
		{1_010, 10_000, true},
		{1_119, 10_000, true},
		{1_120, 0, true},
		{5_000, 0, true},
	}
	for _, tt := range tests {
		dynamicFee := state.DynamicFeeStruct{
			Initialized:           1,
			FilterPeriod:          10,
			DecayPeriod:           120,
			ReductionFactor:       5000,
			LastUpdateTimestamp:   1_000,
			SqrtPriceReference:    state.U128(big.NewInt(1_000)),
			VolatilityAccumulator: state.U128(big.NewInt(20_000)),
		}
		if err := UpdateReferences(&dynamicFee, big.NewInt(2_000), tt.now); err != nil {
			t.Fatal("UpdateReferences() fail", err)
		}
		if got := dynamicFee.VolatilityReference.BigInt(); got.Cmp(big.NewInt(tt.wantReference)) != 0 {
			t.Fatalf("now %d: volatility reference %s, want %d", tt.now, got, tt.wantReference)
		}
		moved := dynamicFee.SqrtPriceReference.BigInt().Int64() == 2_000
		if moved != tt.wantMoved {
			t.Fatalf("now %d: reference price moved %v, want %v", tt.now, moved, tt.wantMoved)
		}
	}
}

func TestValidateFees(t *testing.T) {
	if err := ValidateStaticFee(ToNumerator(shared.MaxFeeBpsV0+1), shared.PoolVersionV0); !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("ValidateStaticFee() want ErrInvalidFeeConfiguration above the v0 cap", err)
	}
	if err := ValidateStaticFee(ToNumerator(shared.MaxFeeBpsV0+1), shared.PoolVersionV1); err != nil {
		t.Fatal("ValidateStaticFee() fail", err)
	}
	if err := ValidateStaticFee(big.NewInt(shared.MinFeeNumerator-1), shared.PoolVersionV1); !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("ValidateStaticFee() want ErrInvalidFeeConfiguration below the minimum", err)
	}

	// a scheduler that would decay below zero
	err := ValidateFeeTimeScheduler(10, big.NewInt(10), big.NewInt(60_000_000), big.NewInt(500_000_000), shared.BaseFeeModeFeeTimeSchedulerLinear, shared.PoolVersionV1)
	if !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("ValidateFeeTimeScheduler() want ErrInvalidFeeConfiguration", err)
	}

	err = ValidateFeeRateLimiter(big.NewInt(10_000_000), 10, 5000, 10, big.NewInt(1_000_000_000), shared.CollectFeeModeBothToken, shared.ActivationTypeTimestamp, shared.PoolVersionV1)
	if !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("ValidateFeeRateLimiter() want ErrInvalidFeeConfiguration outside OnlyB", err)
	}
	err = ValidateFeeRateLimiter(big.NewInt(10_000_000), 10, 5000, 10, big.NewInt(1_000_000_000), shared.CollectFeeModeOnlyB, shared.ActivationTypeTimestamp, shared.PoolVersionV1)
	if err != nil {
		t.Fatal("ValidateFeeRateLimiter() fail", err)
	}
}
