package config

import (
	"math/big"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// Known contract addresses used as chain defaults
const (
	BSCUSDTAddress        = "0x55d398326f99059fF775485246999027B3197955"
	MoonbeamWGLMRAddress  = "0xAcc15dC74880C9944775448304B263D191c6077F"
	MoonbeamNativeAddress = "0x0000000000000000000000000000000000000802"
	StarknetLORDSAddress  = "0x0124aeb495b947201f5faC96fD1138E326AD86195B98df6DEc9009158A533B49"
)

// moonbeamRelayerFee is the automated 0.02 GLMR payment excluded from recipient stats
var moonbeamRelayerFee = big.NewInt(20000000000000000)

// DefaultChains returns the chains served by the scanner
func DefaultChains() []entities.ChainConfig {
	return []entities.ChainConfig{
		{
			ID:              "bsc",
			Name:            "BNB Smart Chain",
			Kind:            entities.ChainKindEVM,
			ChainID:         "56",
			APIURL:          "https://api.etherscan.io/v2/api",
			ExplorerURL:     "https://bscscan.com",
			NativeCurrency:  "BNB",
			DefaultContract: BSCUSDTAddress,
			DemoSymbol:      "USDT",
		},
		{
			ID:                 "moonbeam",
			Name:               "Moonbeam",
			Kind:               entities.ChainKindEVM,
			ChainID:            "1284",
			APIURL:             "https://api.etherscan.io/v2/api",
			ExplorerURL:        "https://moonscan.io",
			NativeCurrency:     "GLMR",
			NativeTokenAddress: MoonbeamNativeAddress,
			DefaultContract:    MoonbeamWGLMRAddress,
			DemoSymbol:         "WGLMR",
			MinTransferAmount:  new(big.Int).Set(moonbeamRelayerFee),
			ExcludedRecipients: []string{"0x86c66061a0e55d91c8bfa464fe84dc58f8733253"},
		},
		{
			ID:              "starknet",
			Name:            "Starknet",
			Kind:            entities.ChainKindFelt,
			ChainID:         "23448594291968334",
			APIURL:          "https://alpha-mainnet.starknet.io",
			ExplorerURL:     "https://starkscan.co",
			NativeCurrency:  "ETH",
			DefaultContract: StarknetLORDSAddress,
			DemoSymbol:      "STRK",
		},
	}
}
