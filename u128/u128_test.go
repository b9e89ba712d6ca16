package u128

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

func TestParse(t *testing.T) {
	q64 := new(big.Int).Lsh(big.NewInt(1), 64)
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	tests := []struct {
		in   string
		want *big.Int
	}{
		{"0", big.NewInt(0)},
		{"1_000_000", big.NewInt(1_000_000)},
		{"0xff", big.NewInt(255)},
		{"1<<64", q64},
		{" 3 << 1 ", big.NewInt(6)},
		{"340282366920938463463374607431768211455", max},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) fail: %v", tt.in, err)
		}
		if got.BigInt().Cmp(tt.want) != 0 {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got.BigInt(), tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	if _, err := Parse("-1"); !errors.Is(err, ErrNegative) {
		t.Errorf("Parse(-1) want ErrNegative, got %v", err)
	}
	if _, err := Parse("1<<128"); !errors.Is(err, ErrOverflow) {
		t.Errorf("Parse(1<<128) want ErrOverflow, got %v", err)
	}
	for _, in := range []string{"", "abc", "1.5", "1<<x"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) want error", in)
		}
	}
}

func TestScan(t *testing.T) {
	var u Uint128
	if _, err := fmt.Sscan("18446744073709551617", &u); err != nil {
		t.Fatal("Sscan() fail", err)
	}
	if u.Lo != 1 || u.Hi != 1 {
		t.Fatalf("scanned lo=%d hi=%d, want 1 and 1", u.Lo, u.Hi)
	}
}
