package helpers

import (
	"bytes"
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"

	"github.com/krazyTry/cpamm-go/damm_v2/shared"
)

const (
	// BaseFeeParamsSize is the borsh size of every base fee parameter variant.
	BaseFeeParamsSize = 30
	// BaseFeeDataSize is the size of the pod-aligned blob stored on the pool.
	BaseFeeDataSize = 32

	paramsModeOffset = 26
	podModeOffset    = 8
)

// BaseFeeParameters carries one borsh-encoded base fee variant.
type BaseFeeParameters struct {
	Data [BaseFeeParamsSize]uint8
}

// Mode reads the variant tag.
func (p BaseFeeParameters) Mode() shared.BaseFeeMode {
	return shared.BaseFeeMode(p.Data[paramsModeOffset])
}

type BorshFeeTimeScheduler struct {
	CliffFeeNumerator uint64
	NumberOfPeriod    uint16
	PeriodFrequency   uint64
	ReductionFactor   uint64
	BaseFeeMode       uint8
	Padding           [3]uint8
}

type BorshFeeRateLimiter struct {
	CliffFeeNumerator  uint64
	FeeIncrementBps    uint16
	MaxLimiterDuration uint32
	MaxFeeBps          uint32
	ReferenceAmount    uint64
	BaseFeeMode        uint8
	Padding            [3]uint8
}

type BorshFeeMarketCapScheduler struct {
	CliffFeeNumerator           uint64
	NumberOfPeriod              uint16
	SqrtPriceStepBps            uint32
	SchedulerExpirationDuration uint32
	ReductionFactor             uint64
	BaseFeeMode                 uint8
	Padding                     [3]uint8
}

type PodAlignedFeeTimeScheduler struct {
	CliffFeeNumerator uint64
	BaseFeeMode       uint8
	Padding           [5]uint8
	NumberOfPeriod    uint16
	PeriodFrequency   uint64
	ReductionFactor   uint64
}

type PodAlignedFeeRateLimiter struct {
	CliffFeeNumerator  uint64
	BaseFeeMode        uint8
	Padding            [5]uint8
	FeeIncrementBps    uint16
	MaxLimiterDuration uint32
	MaxFeeBps          uint32
	ReferenceAmount    uint64
}

type PodAlignedFeeMarketCapScheduler struct {
	CliffFeeNumerator           uint64
	BaseFeeMode                 uint8
	Padding                     [5]uint8
	NumberOfPeriod              uint16
	SqrtPriceStepBps            uint32
	SchedulerExpirationDuration uint32
	ReductionFactor             uint64
}

func marshal(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, size int, v any) error {
	if len(data) < size {
		return fmt.Errorf("base fee data is %d bytes, want %d: %w", len(data), size, shared.ErrInvalidFeeConfiguration)
	}
	return binary.NewBorshDecoder(data[:size]).Decode(v)
}

func toParams(data []byte) BaseFeeParameters {
	var out BaseFeeParameters
	copy(out.Data[:], data)
	return out
}

func EncodeFeeTimeSchedulerParams(cliffFeeNumerator uint64, numberOfPeriod uint16, periodFrequency, reductionFactor uint64, baseFeeMode shared.BaseFeeMode) (BaseFeeParameters, error) {
	data, err := marshal(BorshFeeTimeScheduler{
		CliffFeeNumerator: cliffFeeNumerator,
		NumberOfPeriod:    numberOfPeriod,
		PeriodFrequency:   periodFrequency,
		ReductionFactor:   reductionFactor,
		BaseFeeMode:       uint8(baseFeeMode),
	})
	if err != nil {
		return BaseFeeParameters{}, err
	}
	return toParams(data), nil
}

func DecodeFeeTimeSchedulerParams(data []byte) (BorshFeeTimeScheduler, error) {
	var out BorshFeeTimeScheduler
	err := unmarshal(data, BaseFeeParamsSize, &out)
	return out, err
}

func EncodeFeeRateLimiterParams(cliffFeeNumerator uint64, feeIncrementBps uint16, maxLimiterDuration, maxFeeBps uint32, referenceAmount uint64) (BaseFeeParameters, error) {
	data, err := marshal(BorshFeeRateLimiter{
		CliffFeeNumerator:  cliffFeeNumerator,
		FeeIncrementBps:    feeIncrementBps,
		MaxLimiterDuration: maxLimiterDuration,
		MaxFeeBps:          maxFeeBps,
		ReferenceAmount:    referenceAmount,
		BaseFeeMode:        uint8(shared.BaseFeeModeRateLimiter),
	})
	if err != nil {
		return BaseFeeParameters{}, err
	}
	return toParams(data), nil
}

func DecodeFeeRateLimiterParams(data []byte) (BorshFeeRateLimiter, error) {
	var out BorshFeeRateLimiter
	err := unmarshal(data, BaseFeeParamsSize, &out)
	return out, err
}

func EncodeFeeMarketCapSchedulerParams(cliffFeeNumerator uint64, numberOfPeriod uint16, sqrtPriceStepBps, schedulerExpirationDuration uint32, reductionFactor uint64, baseFeeMode shared.BaseFeeMode) (BaseFeeParameters, error) {
	data, err := marshal(BorshFeeMarketCapScheduler{
		CliffFeeNumerator:           cliffFeeNumerator,
		NumberOfPeriod:              numberOfPeriod,
		SqrtPriceStepBps:            sqrtPriceStepBps,
		SchedulerExpirationDuration: schedulerExpirationDuration,
		ReductionFactor:             reductionFactor,
		BaseFeeMode:                 uint8(baseFeeMode),
	})
	if err != nil {
		return BaseFeeParameters{}, err
	}
	return toParams(data), nil
}

func DecodeFeeMarketCapSchedulerParams(data []byte) (BorshFeeMarketCapScheduler, error) {
	var out BorshFeeMarketCapScheduler
	err := unmarshal(data, BaseFeeParamsSize, &out)
	return out, err
}

func DecodePodAlignedFeeTimeScheduler(data []byte) (PodAlignedFeeTimeScheduler, error) {
	var out PodAlignedFeeTimeScheduler
	err := unmarshal(data, BaseFeeDataSize, &out)
	return out, err
}

func DecodePodAlignedFeeRateLimiter(data []byte) (PodAlignedFeeRateLimiter, error) {
	var out PodAlignedFeeRateLimiter
	err := unmarshal(data, BaseFeeDataSize, &out)
	return out, err
}

func DecodePodAlignedFeeMarketCapScheduler(data []byte) (PodAlignedFeeMarketCapScheduler, error) {
	var out PodAlignedFeeMarketCapScheduler
	err := unmarshal(data, BaseFeeDataSize, &out)
	return out, err
}

// ToPodAlignedBaseFee converts borsh parameters into the 32 byte blob kept on the pool.
func ToPodAlignedBaseFee(params BaseFeeParameters) ([BaseFeeDataSize]uint8, error) {
	var out [BaseFeeDataSize]uint8
	var (
		data []byte
		err  error
	)
	switch mode := params.Mode(); mode {
	case shared.BaseFeeModeFeeTimeSchedulerLinear, shared.BaseFeeModeFeeTimeSchedulerExponential:
		p, derr := DecodeFeeTimeSchedulerParams(params.Data[:])
		if derr != nil {
			return out, derr
		}
		data, err = marshal(PodAlignedFeeTimeScheduler{
			CliffFeeNumerator: p.CliffFeeNumerator,
			BaseFeeMode:       p.BaseFeeMode,
			NumberOfPeriod:    p.NumberOfPeriod,
			PeriodFrequency:   p.PeriodFrequency,
			ReductionFactor:   p.ReductionFactor,
		})
	case shared.BaseFeeModeRateLimiter:
		p, derr := DecodeFeeRateLimiterParams(params.Data[:])
		if derr != nil {
			return out, derr
		}
		data, err = marshal(PodAlignedFeeRateLimiter{
			CliffFeeNumerator:  p.CliffFeeNumerator,
			BaseFeeMode:        p.BaseFeeMode,
			FeeIncrementBps:    p.FeeIncrementBps,
			MaxLimiterDuration: p.MaxLimiterDuration,
			MaxFeeBps:          p.MaxFeeBps,
			ReferenceAmount:    p.ReferenceAmount,
		})
	case shared.BaseFeeModeFeeMarketCapSchedulerLinear, shared.BaseFeeModeFeeMarketCapSchedulerExp:
		p, derr := DecodeFeeMarketCapSchedulerParams(params.Data[:])
		if derr != nil {
			return out, derr
		}
		data, err = marshal(PodAlignedFeeMarketCapScheduler{
			CliffFeeNumerator:           p.CliffFeeNumerator,
			BaseFeeMode:                 p.BaseFeeMode,
			NumberOfPeriod:              p.NumberOfPeriod,
			SqrtPriceStepBps:            p.SqrtPriceStepBps,
			SchedulerExpirationDuration: p.SchedulerExpirationDuration,
			ReductionFactor:             p.ReductionFactor,
		})
	default:
		return out, fmt.Errorf("mode %d: %w", mode, shared.ErrInvalidBaseFeeMode)
	}
	if err != nil {
		return out, err
	}
	copy(out[:], data)
	return out, nil
}

// FromPodAlignedBaseFee converts a stored blob back into borsh parameters.
func FromPodAlignedBaseFee(data [BaseFeeDataSize]uint8) (BaseFeeParameters, error) {
	switch mode := shared.BaseFeeMode(data[podModeOffset]); mode {
	case shared.BaseFeeModeFeeTimeSchedulerLinear, shared.BaseFeeModeFeeTimeSchedulerExponential:
		p, err := DecodePodAlignedFeeTimeScheduler(data[:])
		if err != nil {
			return BaseFeeParameters{}, err
		}
		return EncodeFeeTimeSchedulerParams(p.CliffFeeNumerator, p.NumberOfPeriod, p.PeriodFrequency, p.ReductionFactor, mode)
	case shared.BaseFeeModeRateLimiter:
		p, err := DecodePodAlignedFeeRateLimiter(data[:])
		if err != nil {
			return BaseFeeParameters{}, err
		}
		return EncodeFeeRateLimiterParams(p.CliffFeeNumerator, p.FeeIncrementBps, p.MaxLimiterDuration, p.MaxFeeBps, p.ReferenceAmount)
	case shared.BaseFeeModeFeeMarketCapSchedulerLinear, shared.BaseFeeModeFeeMarketCapSchedulerExp:
		p, err := DecodePodAlignedFeeMarketCapScheduler(data[:])
		if err != nil {
			return BaseFeeParameters{}, err
		}
		return EncodeFeeMarketCapSchedulerParams(p.CliffFeeNumerator, p.NumberOfPeriod, p.SqrtPriceStepBps, p.SchedulerExpirationDuration, p.ReductionFactor, mode)
	default:
		return BaseFeeParameters{}, fmt.Errorf("mode %d: %w", mode, shared.ErrInvalidBaseFeeMode)
	}
}

// bigInt is a local alias for readability.
type bigInt = big.Int

func toU64(v *bigInt) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("value %s does not fit u64: %w", v.String(), shared.ErrArithmeticOverflow)
	}
	return v.Uint64(), nil
}
