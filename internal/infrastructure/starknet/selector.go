package starknet

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// mask250 keeps the low 250 bits of a keccak digest
var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// SelectorFromName computes starknet_keccak(name), the selector of an entry point or event
func SelectorFromName(name string) *big.Int {
	digest := new(big.Int).SetBytes(crypto.Keccak256([]byte(name)))
	return digest.And(digest, mask250)
}

// feltHex formats a felt without leading zeros
func feltHex(v *big.Int) string {
	return fmt.Sprintf("0x%x", v)
}

var (
	transferSelector  = SelectorFromName("Transfer")
	balanceOfSelector = SelectorFromName("balanceOf")
	symbolSelector    = SelectorFromName("symbol")
)
