package dammv2

import (
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
)

// ClaimPositionFee pays out the position's pending LP fees. Locked
// liquidity does not block fee claims.
func ClaimPositionFee(pool *state.Pool, position *state.Position, clock Clock) (ClaimFeeResult, error) {
	p, pos := *pool, *position
	if err := accrue(&p, &pos, clock); err != nil {
		return ClaimFeeResult{}, err
	}
	result := ClaimFeeResult{FeeA: pos.FeeAPending, FeeB: pos.FeeBPending}

	var err error
	if pos.Metrics.TotalClaimedAFee, err = addU64(pos.Metrics.TotalClaimedAFee, state.U64(result.FeeA)); err != nil {
		return ClaimFeeResult{}, err
	}
	if pos.Metrics.TotalClaimedBFee, err = addU64(pos.Metrics.TotalClaimedBFee, state.U64(result.FeeB)); err != nil {
		return ClaimFeeResult{}, err
	}
	pos.FeeAPending, pos.FeeBPending = 0, 0

	*pool, *position = p, pos
	return result, nil
}

// ClaimProtocolFee withdraws up to maxA and maxB of the protocol's share.
func ClaimProtocolFee(pool *state.Pool, maxAmountA, maxAmountB uint64) ClaimFeeResult {
	result := ClaimFeeResult{FeeA: min(pool.ProtocolAFee, maxAmountA), FeeB: min(pool.ProtocolBFee, maxAmountB)}
	pool.ProtocolAFee -= result.FeeA
	pool.ProtocolBFee -= result.FeeB
	return result
}

// ClaimPartnerFee withdraws up to maxA and maxB of the partner's share.
func ClaimPartnerFee(pool *state.Pool, maxAmountA, maxAmountB uint64) (ClaimFeeResult, error) {
	if !pool.HasPartner() {
		return ClaimFeeResult{}, shared.ErrPartnerNotSet
	}
	result := ClaimFeeResult{FeeA: min(pool.PartnerAFee, maxAmountA), FeeB: min(pool.PartnerBFee, maxAmountB)}
	pool.PartnerAFee -= result.FeeA
	pool.PartnerBFee -= result.FeeB
	return result, nil
}
