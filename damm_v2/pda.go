package dammv2

import (
	"bytes"
	"encoding/binary"

	solanago "github.com/gagliardetto/solana-go"
)

// getFirstKey returns the lexicographically larger key bytes.
func getFirstKey(key1, key2 solanago.PublicKey) []byte {
	buf1 := key1.Bytes()
	buf2 := key2.Bytes()
	if bytes.Compare(buf1, buf2) == 1 {
		return buf1
	}
	return buf2
}

// getSecondKey returns the lexicographically smaller key bytes.
func getSecondKey(key1, key2 solanago.PublicKey) []byte {
	buf1 := key1.Bytes()
	buf2 := key2.Bytes()
	if bytes.Compare(buf1, buf2) == 1 {
		return buf2
	}
	return buf1
}

func derive(seeds ...[]byte) solanago.PublicKey {
	pub, _, _ := solanago.FindProgramAddress(seeds, CpAmmProgramID)
	return pub
}

// DeriveConfigAddress keys a shared fee configuration by index.
func DeriveConfigAddress(index uint64) solanago.PublicKey {
	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, index)
	return derive([]byte(seedConfig), indexBytes)
}

// DerivePoolAddress is independent of mint order.
func DerivePoolAddress(config, tokenAMint, tokenBMint solanago.PublicKey) solanago.PublicKey {
	return derive(
		[]byte(seedPool),
		config.Bytes(),
		getFirstKey(tokenAMint, tokenBMint),
		getSecondKey(tokenAMint, tokenBMint),
	)
}

func DerivePositionAddress(positionNft solanago.PublicKey) solanago.PublicKey {
	return derive([]byte(seedPosition), positionNft.Bytes())
}

func DeriveTokenVaultAddress(tokenMint, pool solanago.PublicKey) solanago.PublicKey {
	return derive([]byte(seedTokenVault), tokenMint.Bytes(), pool.Bytes())
}

func DeriveRewardVaultAddress(pool solanago.PublicKey, rewardIndex uint8) solanago.PublicKey {
	return derive([]byte(seedRewardVault), pool.Bytes(), []byte{rewardIndex})
}
