package dammv2

import (
	"encoding/binary"
	"fmt"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/math/pool_fees"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// requireStaticBaseFee fails while the pool's scheduler can still change
// the base fee on its own.
func requireStaticBaseFee(pool *state.Pool, clock Clock) (shared.BaseFeeHandler, error) {
	handler, err := pool_fees.GetBaseFeeHandler(pool.PoolFees.BaseFee.Data[:])
	if err != nil {
		return nil, err
	}
	if !handler.ValidateBaseFeeIsStatic(clock.currentPointBig(pool.ActivationType), state.U64(pool.ActivationPoint)) {
		return nil, fmt.Errorf("%s scheduler still active: %w", handler.Mode(), shared.ErrCannotUpdateBaseFee)
	}
	return handler, nil
}

func validateStoredBaseFee(pool *state.Pool) error {
	handler, err := pool_fees.GetBaseFeeHandler(pool.PoolFees.BaseFee.Data[:])
	if err != nil {
		return err
	}
	return handler.Validate(pool.CollectFeeMode, pool.ActivationType, PoolVersion(pool.Version))
}

func baseFeeFamily(mode shared.BaseFeeMode) int {
	switch {
	case mode.IsTimeScheduler():
		return 0
	case mode == shared.BaseFeeModeRateLimiter:
		return 1
	case mode.IsMarketCapScheduler():
		return 2
	default:
		return -1
	}
}

// UpdateBaseFee replaces the base fee parameters of a pool whose scheduler
// has gone static. The new parameters must be of the same family.
func UpdateBaseFee(pool *state.Pool, params BaseFee, clock Clock) error {
	current, err := requireStaticBaseFee(pool, clock)
	if err != nil {
		return err
	}
	if baseFeeFamily(current.Mode()) != baseFeeFamily(params.Mode()) {
		return fmt.Errorf("cannot switch base fee from %s to %s: %w", current.Mode(), params.Mode(), shared.ErrInvalidBaseFeeMode)
	}
	data, err := helpers.ToPodAlignedBaseFee(params)
	if err != nil {
		return err
	}
	p := *pool
	p.PoolFees.BaseFee.Data = data
	if err := validateStoredBaseFee(&p); err != nil {
		return err
	}
	*pool = p
	return nil
}

// UpdatePoolFees changes the cliff fee numerator and/or the dynamic fee.
func UpdatePoolFees(pool *state.Pool, params UpdatePoolFeesParams, clock Clock) error {
	if params.CliffFeeNumerator == nil && params.DynamicFee == nil {
		return fmt.Errorf("nothing to update: %w", shared.ErrInvalidParameters)
	}
	p := *pool
	if params.CliffFeeNumerator != nil {
		if _, err := requireStaticBaseFee(&p, clock); err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(p.PoolFees.BaseFee.Data[:8], *params.CliffFeeNumerator)
		if err := validateStoredBaseFee(&p); err != nil {
			return err
		}
	}
	if params.DynamicFee != nil {
		if isZeroDynamicFee(*params.DynamicFee) {
			p.PoolFees.DynamicFee = state.DynamicFeeStruct{}
		} else {
			if err := helpers.ValidateDynamicFeeParams(*params.DynamicFee); err != nil {
				return err
			}
			p.PoolFees.DynamicFee = newDynamicFeeStruct(*params.DynamicFee)
		}
	}
	*pool = p
	return nil
}

func isZeroDynamicFee(params DynamicFee) bool {
	return params.BinStep == 0 &&
		state.IsZeroU128(params.BinStepU128) &&
		params.FilterPeriod == 0 &&
		params.DecayPeriod == 0 &&
		params.ReductionFactor == 0 &&
		params.MaxVolatilityAccumulator == 0 &&
		params.VariableFeeControl == 0
}

// EnableDynamicFee installs a surcharge configuration. Any previous
// configuration and its accumulated state are discarded.
func EnableDynamicFee(pool *state.Pool, params DynamicFee) error {
	if err := helpers.ValidateDynamicFeeParams(params); err != nil {
		return err
	}
	pool.PoolFees.DynamicFee = newDynamicFeeStruct(params)
	return nil
}

func DisableDynamicFee(pool *state.Pool) error {
	if !pool_fees.IsDynamicFeeEnabled(pool.PoolFees.DynamicFee) {
		return shared.ErrDynamicFeeAlreadyInState
	}
	pool.PoolFees.DynamicFee = state.DynamicFeeStruct{}
	return nil
}

// SetPoolStatus enables or disables trading.
func SetPoolStatus(pool *state.Pool, status PoolStatus) error {
	if status > PoolStatusDisable {
		return fmt.Errorf("pool status %d: %w", status, shared.ErrInvalidParameters)
	}
	if PoolStatus(pool.PoolStatus) == status {
		return fmt.Errorf("pool status already %d: %w", status, shared.ErrInvalidParameters)
	}
	pool.PoolStatus = uint8(status)
	return nil
}
