package state

import (
	"math/big"
	"reflect"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
)

func TestPoolRecordRoundTrip(t *testing.T) {
	pool := &Pool{
		TokenAMint:      solanago.NewWallet().PublicKey(),
		TokenBMint:      solanago.NewWallet().PublicKey(),
		Liquidity:       U128(new(big.Int).Lsh(big.NewInt(1), 100)),
		SqrtPrice:       U128(new(big.Int).Lsh(big.NewInt(1), 64)),
		ActivationPoint: 1_700_000_000,
		ActivationType:  1,
		CollectFeeMode:  2,
		Version:         1,
	}
	pool.PoolFees.ProtocolFeePercent = 20
	pool.PoolFees.BaseFee.Data[8] = 2
	pool.PoolFees.DynamicFee.BinStepU128 = U128(big.NewInt(1844674407370955))
	pool.FeeAPerLiquidity[31] = 0x7f
	pool.RewardInfos[1].RewardRate = U128(big.NewInt(123456789))
	pool.RewardInfos[1].Initialized = 1

	data, err := EncodePool(pool)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodePool(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(pool, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", pool, got)
	}
	if got.Liquidity.BigInt().Cmp(new(big.Int).Lsh(big.NewInt(1), 100)) != 0 {
		t.Errorf("liquidity = %s", got.Liquidity.String())
	}
}

func TestDecodeRejectsWrongDiscriminator(t *testing.T) {
	data, err := EncodePosition(&Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodePool(data); err == nil {
		t.Fatal("expected discriminator mismatch")
	}
	if _, err := DecodePosition(data[:4]); err == nil {
		t.Fatal("expected short record error")
	}
}

func TestFieldOffset(t *testing.T) {
	tests := []struct {
		record any
		field  string
		want   uint64
	}{
		{&Position{}, "Pool", 8},
		{&Position{}, "NftMint", 40},
		{&Position{}, "Owner", 72},
		{&Pool{}, "PoolFees", 8},
		{&Pool{}, "TokenAMint", 8 + 168},
	}
	for _, tt := range tests {
		if got := FieldOffset(tt.record, tt.field); got != tt.want {
			t.Errorf("FieldOffset(%T, %s) = %d, want %d", tt.record, tt.field, got, tt.want)
		}
	}
}

func TestInnerVestingCanonicalZero(t *testing.T) {
	var v InnerVesting
	if !v.IsZero() {
		t.Fatal("zero value should be canonical")
	}
	v.CliffPoint = PermanentCliffPoint
	if v.IsZero() || !v.IsPermanent() {
		t.Fatal("permanent schedule misreported")
	}
}
