package entities

import "testing"

func TestChainConfig_ExplorerLinks(t *testing.T) {
	tests := []struct {
		name    string
		chain   ChainConfig
		address string
		tx      string
	}{
		{
			name:    "evm",
			chain:   ChainConfig{Kind: ChainKindEVM, ExplorerURL: "https://moonscan.io"},
			address: "https://moonscan.io/address/0xabc",
			tx:      "https://moonscan.io/tx/0xdef",
		},
		{
			name:    "felt",
			chain:   ChainConfig{Kind: ChainKindFelt, ExplorerURL: "https://starkscan.co"},
			address: "https://starkscan.co/contract/0xabc",
			tx:      "https://starkscan.co/tx/0xdef",
		},
		{
			name:  "no explorer",
			chain: ChainConfig{Kind: ChainKindEVM},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chain.AddressURL("0xabc"); got != tt.address {
				t.Errorf("expected address link %q, got %q", tt.address, got)
			}
			if got := tt.chain.TransactionURL("0xdef"); got != tt.tx {
				t.Errorf("expected transaction link %q, got %q", tt.tx, got)
			}
		})
	}
}

func TestChainConfig_IsNativeToken(t *testing.T) {
	chain := ChainConfig{NativeTokenAddress: "0x0000000000000000000000000000000000000802"}

	if !chain.IsNativeToken("0x0000000000000000000000000000000000000802") {
		t.Error("expected sentinel to match")
	}
	if chain.IsNativeToken("0x55d398326f99059ff775485246999027b3197955") {
		t.Error("expected token contract not to match")
	}
	if (ChainConfig{}).IsNativeToken("") {
		t.Error("expected no native token without a sentinel")
	}
}
