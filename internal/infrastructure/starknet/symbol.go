package starknet

import (
	"math/big"
	"strings"
)

// UnknownSymbol is returned when no decoding strategy recovers a readable symbol
const UnknownSymbol = "TOKEN"

// symbolStrategy recovers a symbol from the felts returned by symbol()
type symbolStrategy func(felts []*big.Int) (string, bool)

// symbolStrategies are tried in order; the first success wins
var symbolStrategies = []symbolStrategy{
	decodeByteArray,
	decodeShortStringForward,
	decodeShortStringReversed,
}

// decodeSymbol runs the strategies and falls back to UnknownSymbol
func decodeSymbol(felts []*big.Int) string {
	for _, strategy := range symbolStrategies {
		if s, ok := strategy(felts); ok {
			return s
		}
	}
	return UnknownSymbol
}

// decodeShortStringForward reads a single felt as big-endian packed ASCII
func decodeShortStringForward(felts []*big.Int) (string, bool) {
	if len(felts) != 1 {
		return "", false
	}
	return symbolLike(felts[0].Bytes())
}

// decodeShortStringReversed reads a single felt as little-endian packed ASCII
func decodeShortStringReversed(felts []*big.Int) (string, bool) {
	if len(felts) != 1 {
		return "", false
	}
	b := felts[0].Bytes()
	reversed := make([]byte, len(b))
	for i := range b {
		reversed[len(b)-1-i] = b[i]
	}
	return symbolLike(reversed)
}

// decodeByteArray reads a Cairo ByteArray: [n, word_0..word_{n-1}, pending_word, pending_len].
// Full words hold 31 bytes each.
func decodeByteArray(felts []*big.Int) (string, bool) {
	if len(felts) < 3 || !felts[0].IsUint64() {
		return "", false
	}
	n := felts[0].Uint64()
	if uint64(len(felts)) != n+3 {
		return "", false
	}
	pendingLen := felts[len(felts)-1]
	if !pendingLen.IsUint64() || pendingLen.Uint64() > 30 {
		return "", false
	}

	var sb strings.Builder
	for i := uint64(1); i <= n; i++ {
		sb.Write(padBytes(felts[i].Bytes(), 31))
	}
	sb.Write(padBytes(felts[n+1].Bytes(), int(pendingLen.Uint64())))

	return printable([]byte(sb.String()))
}

func padBytes(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// symbolLike accepts printable ASCII starting with a letter or digit
func symbolLike(b []byte) (string, bool) {
	s, ok := printable(b)
	if !ok {
		return "", false
	}
	c := s[0]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
		return s, true
	}
	return "", false
}

func printable(b []byte) (string, bool) {
	trimmed := strings.Trim(string(b), "\x00")
	if trimmed == "" {
		return "", false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] < 32 || trimmed[i] > 126 {
			return "", false
		}
	}
	return trimmed, true
}
