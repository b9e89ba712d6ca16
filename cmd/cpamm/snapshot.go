package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"

	"github.com/krazyTry/cpamm-go/damm_v2/helpers"
	"github.com/krazyTry/cpamm-go/damm_v2/shared"
	"github.com/krazyTry/cpamm-go/damm_v2/state"
	"github.com/krazyTry/cpamm-go/u128"
)

func loadPoolSnapshot(path string) (*state.Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool, err := parsePoolSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pool, nil
}

// parsePoolSnapshot reads a pool from JSON. The document is either the pool
// itself or wraps it under "pool". U128 fields accept decimal strings,
// 0x strings, "1<<64" shifts or plain JSON integers.
func parsePoolSnapshot(data []byte) (*state.Pool, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("pool snapshot is not valid json: %w", shared.ErrInvalidParameters)
	}
	root := gjson.GetBytes(data, "pool")
	if !root.IsObject() {
		root = gjson.ParseBytes(data)
	}

	r := snapshotReader{root: root}
	pool := &state.Pool{
		SqrtPrice:              r.u128("sqrtPrice", true),
		SqrtMinPrice:           r.u128OrDefault("sqrtMinPrice", shared.MinSqrtPrice.String()),
		SqrtMaxPrice:           r.u128OrDefault("sqrtMaxPrice", shared.MaxSqrtPrice.String()),
		Liquidity:              r.u128("liquidity", true),
		PermanentLockLiquidity: r.u128("permanentLockLiquidity", false),
		ActivationPoint:        root.Get("activationPoint").Uint(),
		ActivationType:         uint8(root.Get("activationType").Uint()),
		PoolStatus:             uint8(root.Get("poolStatus").Uint()),
		CollectFeeMode:         uint8(root.Get("collectFeeMode").Uint()),
		Version:                uint8(root.Get("version").Uint()),
		TokenAMint:             r.key("tokenAMint"),
		TokenBMint:             r.key("tokenBMint"),
		Partner:                r.key("partner"),
	}

	fees := snapshotReader{root: root.Get("poolFees")}
	pool.PoolFees.ProtocolFeePercent = uint8(fees.root.Get("protocolFeePercent").Uint())
	pool.PoolFees.PartnerFeePercent = uint8(fees.root.Get("partnerFeePercent").Uint())
	pool.PoolFees.ReferralFeePercent = uint8(fees.root.Get("referralFeePercent").Uint())
	pool.PoolFees.ReachedPeriod = uint16(fees.root.Get("reachedPeriod").Uint())
	pool.PoolFees.InitSqrtPrice = fees.u128OrDefault("initSqrtPrice", pool.SqrtPrice.BigInt().String())
	pool.PoolFees.BaseFee.Data = fees.baseFee("baseFee")

	dynamic := snapshotReader{root: fees.root.Get("dynamicFee")}
	if dynamic.root.Exists() {
		d := &pool.PoolFees.DynamicFee
		d.Initialized = uint8(dynamic.root.Get("initialized").Uint())
		d.BinStep = uint16(dynamic.root.Get("binStep").Uint())
		d.BinStepU128 = dynamic.u128("binStepU128", d.Initialized != 0)
		d.FilterPeriod = uint16(dynamic.root.Get("filterPeriod").Uint())
		d.DecayPeriod = uint16(dynamic.root.Get("decayPeriod").Uint())
		d.ReductionFactor = uint16(dynamic.root.Get("reductionFactor").Uint())
		d.MaxVolatilityAccumulator = uint32(dynamic.root.Get("maxVolatilityAccumulator").Uint())
		d.VariableFeeControl = uint32(dynamic.root.Get("variableFeeControl").Uint())
		d.LastUpdateTimestamp = dynamic.root.Get("lastUpdateTimestamp").Uint()
		d.SqrtPriceReference = dynamic.u128("sqrtPriceReference", false)
		d.VolatilityAccumulator = dynamic.u128("volatilityAccumulator", false)
		d.VolatilityReference = dynamic.u128("volatilityReference", false)
		fees.errs = append(fees.errs, dynamic.errs...)
	}

	r.errs = append(r.errs, fees.errs...)
	if len(r.errs) > 0 {
		return nil, fmt.Errorf("pool snapshot: %s: %w", strings.Join(r.errs, "; "), shared.ErrInvalidParameters)
	}
	return pool, nil
}

// snapshotReader collects field errors so one bad snapshot reports all of them.
type snapshotReader struct {
	root gjson.Result
	errs []string
}

func (r *snapshotReader) u128(path string, required bool) binary.Uint128 {
	v := r.root.Get(path)
	if !v.Exists() {
		if required {
			r.errs = append(r.errs, path+" is required")
		}
		return binary.Uint128{}
	}
	out, err := u128.Parse(v.String())
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", path, err))
	}
	return out
}

func (r *snapshotReader) u128OrDefault(path, fallback string) binary.Uint128 {
	if r.root.Get(path).Exists() {
		return r.u128(path, true)
	}
	return u128.MustParse(fallback)
}

func (r *snapshotReader) key(path string) solanago.PublicKey {
	v := r.root.Get(path)
	if !v.Exists() || v.String() == "" {
		return solanago.PublicKey{}
	}
	key, err := solanago.PublicKeyFromBase58(v.String())
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", path, err))
	}
	return key
}

// baseFee reads the 32 byte pod-aligned blob as a byte array or hex string,
// or builds a static fee from "feeBps".
func (r *snapshotReader) baseFee(path string) [helpers.BaseFeeDataSize]uint8 {
	var out [helpers.BaseFeeDataSize]uint8
	v := r.root.Get(path)
	if bps := v.Get("feeBps"); bps.Exists() {
		params, err := helpers.GetStaticFeeParams(uint16(bps.Uint()))
		if err == nil {
			out, err = helpers.ToPodAlignedBaseFee(params)
		}
		if err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s.feeBps: %v", path, err))
		}
		return out
	}

	data := v.Get("data")
	switch {
	case data.IsArray():
		items := data.Array()
		if len(items) != len(out) {
			r.errs = append(r.errs, fmt.Sprintf("%s.data has %d bytes, want %d", path, len(items), len(out)))
			return out
		}
		for i, item := range items {
			if item.Uint() > 0xff {
				r.errs = append(r.errs, fmt.Sprintf("%s.data[%d] is not a byte", path, i))
				return out
			}
			out[i] = uint8(item.Uint())
		}
	case data.Type == gjson.String:
		raw, err := hex.DecodeString(strings.TrimPrefix(data.String(), "0x"))
		if err != nil || len(raw) != len(out) {
			r.errs = append(r.errs, fmt.Sprintf("%s.data is not %d hex bytes", path, len(out)))
			return out
		}
		copy(out[:], raw)
	default:
		r.errs = append(r.errs, path+" needs data or feeBps")
	}
	return out
}
