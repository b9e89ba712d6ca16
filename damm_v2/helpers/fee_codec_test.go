package helpers

import (
	"errors"
	"testing"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

func TestBaseFeeBlobRoundTrip(t *testing.T) {
	configs := []BaseFeeConfig{
		{Mode: shared.BaseFeeModeFeeTimeSchedulerLinear, StartingBaseFeeBps: 5000, EndingBaseFeeBps: 25, NumberOfPeriod: 60, TotalDuration: 3600},
		{Mode: shared.BaseFeeModeFeeTimeSchedulerExponential, StartingBaseFeeBps: 5000, EndingBaseFeeBps: 25, NumberOfPeriod: 60, TotalDuration: 3600},
		{Mode: shared.BaseFeeModeRateLimiter, StartingBaseFeeBps: 100, FeeIncrementBps: 10, MaxFeeBps: 5000, MaxLimiterDuration: 10, ReferenceAmount: 1_000_000_000},
		{Mode: shared.BaseFeeModeFeeMarketCapSchedulerLinear, StartingBaseFeeBps: 5000, EndingBaseFeeBps: 100, NumberOfPeriod: 20, SqrtPriceStepBps: 100, SchedulerExpirationDuration: 86_400},
		{Mode: shared.BaseFeeModeFeeMarketCapSchedulerExp, StartingBaseFeeBps: 5000, EndingBaseFeeBps: 100, NumberOfPeriod: 20, SqrtPriceStepBps: 100, SchedulerExpirationDuration: 86_400},
	}
	for _, cfg := range configs {
		params, err := GetBaseFeeParams(cfg)
		if err != nil {
			t.Fatal("GetBaseFeeParams() fail", cfg.Mode, err)
		}
		if params.Mode() != cfg.Mode {
			t.Fatalf("mode %s, want %s", params.Mode(), cfg.Mode)
		}
		blob, err := ToPodAlignedBaseFee(params)
		if err != nil {
			t.Fatal("ToPodAlignedBaseFee() fail", cfg.Mode, err)
		}
		back, err := FromPodAlignedBaseFee(blob)
		if err != nil {
			t.Fatal("FromPodAlignedBaseFee() fail", cfg.Mode, err)
		}
		if back != params {
			t.Fatalf("%s: blob round trip changed the parameters", cfg.Mode)
		}
	}
}

func TestBaseFeeParamsRejectsBadInput(t *testing.T) {
	if _, err := GetBaseFeeParams(BaseFeeConfig{Mode: 9}); !errors.Is(err, shared.ErrInvalidBaseFeeMode) {
		t.Fatal("GetBaseFeeParams() want ErrInvalidBaseFeeMode", err)
	}
	if _, err := GetFeeTimeSchedulerParams(100, 200, shared.BaseFeeModeFeeTimeSchedulerLinear, 10, 100); !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("GetFeeTimeSchedulerParams() want ErrInvalidFeeConfiguration for a rising fee", err)
	}
	if _, err := GetFeeTimeSchedulerParams(200, 100, shared.BaseFeeModeFeeTimeSchedulerLinear, 0, 100); !errors.Is(err, shared.ErrInvalidFeeConfiguration) {
		t.Fatal("GetFeeTimeSchedulerParams() want ErrInvalidFeeConfiguration without periods", err)
	}
}
