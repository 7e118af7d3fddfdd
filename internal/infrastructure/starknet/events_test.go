package starknet

import (
	"math/big"
	"testing"
)

const (
	testFrom = "0x1c8d2bb6f58a0e0a95b2d2c9b6f0e4e4ad4e0d6f3a38fa1a3b0f6c9a1a2b3c4"
	testTo   = "0x52c7ba99c77fc38dd3346beea6c0753c3471f2e3135af5bb837d6c9523fff62"
)

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func TestCombineU256(t *testing.T) {
	low := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	high := big.NewInt(1)

	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 129), big.NewInt(1))
	if got := combineU256(low, high); got.Cmp(expected) != 0 {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestDecodeTransferEvent_Layouts(t *testing.T) {
	maxLow := "0xffffffffffffffffffffffffffffffff"
	expected, _ := new(big.Int).SetString("1ffffffffffffffffffffffffffffffff", 16)

	tests := []struct {
		name  string
		event emittedEvent
	}{
		{
			name: "indexed layout",
			event: emittedEvent{
				Keys:            []string{feltHex(transferSelector), testFrom, testTo},
				Data:            []string{maxLow, "0x1"},
				BlockNumber:     uint64Ptr(650000),
				TransactionHash: "0xABC",
			},
		},
		{
			name: "non-indexed layout",
			event: emittedEvent{
				Keys:            []string{feltHex(transferSelector)},
				Data:            []string{testFrom, testTo, maxLow, "0x1"},
				BlockNumber:     uint64Ptr(650000),
				TransactionHash: "0xABC",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := decodeTransferEvent(tt.event)
			if transfer == nil {
				t.Fatal("expected transfer, got nil")
			}
			if transfer.Value.Cmp(expected) != 0 {
				t.Errorf("expected value %s, got %s", expected, transfer.Value)
			}
			if transfer.From != "0x01c8d2bb6f58a0e0a95b2d2c9b6f0e4e4ad4e0d6f3a38fa1a3b0f6c9a1a2b3c4" {
				t.Errorf("expected canonical from, got %s", transfer.From)
			}
			if transfer.To != "0x052c7ba99c77fc38dd3346beea6c0753c3471f2e3135af5bb837d6c9523fff62" {
				t.Errorf("expected canonical to, got %s", transfer.To)
			}
			if transfer.BlockNumber != 650000 {
				t.Errorf("expected block 650000, got %d", transfer.BlockNumber)
			}
		})
	}
}

func TestDecodeTransferEvent_Unrecognized(t *testing.T) {
	tests := []struct {
		name  string
		event emittedEvent
	}{
		{
			name: "two keys",
			event: emittedEvent{
				Keys:        []string{feltHex(transferSelector), testFrom},
				Data:        []string{testTo, "0x1", "0x0"},
				BlockNumber: uint64Ptr(1),
			},
		},
		{
			name: "short data",
			event: emittedEvent{
				Keys:        []string{feltHex(transferSelector)},
				Data:        []string{testFrom, testTo, "0x1"},
				BlockNumber: uint64Ptr(1),
			},
		},
		{
			name: "pending event",
			event: emittedEvent{
				Keys: []string{feltHex(transferSelector), testFrom, testTo},
				Data: []string{"0x1", "0x0"},
			},
		},
		{
			name: "bad amount",
			event: emittedEvent{
				Keys:        []string{feltHex(transferSelector), testFrom, testTo},
				Data:        []string{"0xzz", "0x0"},
				BlockNumber: uint64Ptr(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if transfer := decodeTransferEvent(tt.event); transfer != nil {
				t.Errorf("expected nil, got %+v", transfer)
			}
		})
	}
}

func TestParseFelt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"0x10", "16", true},
		{"0X0a", "10", true},
		{"42", "42", true},
		{"0x", "", false},
		{"", "", false},
		{"-1", "", false},
	}

	for _, tt := range tests {
		got, ok := parseFelt(tt.input)
		if ok != tt.ok {
			t.Errorf("parseFelt(%q): expected ok=%v, got %v", tt.input, tt.ok, ok)
			continue
		}
		if ok && got.String() != tt.expected {
			t.Errorf("parseFelt(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}
