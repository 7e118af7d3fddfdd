package services

import (
	"math/big"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

const (
	// MessageNoTransfers accompanies a successful scan that matched nothing
	MessageNoTransfers = "No outgoing token transfers found for this address and contract"

	unconfiguredExplorerNotice = "No Etherscan API key configured. Showing demo data. Get a free API key at https://etherscan.io/apis"
	unconfiguredStarknetNotice = "Starknet live queries are not enabled. Set STARKNET_ENABLED=enabled to query the network. Showing demo data."
)

// UnconfiguredNotice returns the actionable notice shown when a chain has no live adapter
func UnconfiguredNotice(chain entities.ChainConfig) string {
	if chain.Kind == entities.ChainKindFelt {
		return unconfiguredStarknetNotice
	}
	return unconfiguredExplorerNotice
}

type demoRecipient struct {
	address  string
	total    string
	balance  string
	count    int
	lastTime string
}

var evmDemoRecipients = []demoRecipient{
	{"0x1234567890123456789012345678901234567890", "1000000000000000000000", "500000000000000000000", 5, "1735142400"},
	{"0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", "750000000000000000000", "0", 3, "1735056000"},
	{"0x9876543210987654321098765432109876543210", "250000000000000000000", "250000000000000000000", 1, "1734969600"},
}

var feltDemoRecipients = []demoRecipient{
	{"0x01234567890abcdef1234567890abcdef12345678901234567890abcdef12345", "5000000000000000000000", "4500000000000000000000", 2, "1640995500"},
	{"0x03abcdef1234567890abcdef1234567890abcdef1234567890abcdef12345678", "2500000000000000000000", "2500000000000000000000", 1, "1640995400"},
	{"0x0567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef123", "1000000000000000000000", "800000000000000000000", 1, "1640995300"},
}

type demoTransfer struct {
	hash  string
	to    string
	value int64
	block uint64
	time  uint64
}

var evmDemoTransfers = []demoTransfer{
	{"0x567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234", "0x2170ed0880ac9a755fd29b2688956bd959f933f8", 2000000000000000000, 12345680, 1640995320},
	{"0xabcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890", "0x8894e0a0c962cb723c1976a4421c95949be2d4e3", 500000000000000000, 12345679, 1640995260},
	{"0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef", "0x742d35cc6635c0532925a3b8d000b73b2d9b2e9f", 1000000000000000000, 12345678, 1640995200},
}

// DemoScanResult returns the fixed recipient dataset for chain
func DemoScanResult(chain entities.ChainConfig) *entities.ScanResult {
	source := evmDemoRecipients
	if chain.Kind == entities.ChainKindFelt {
		source = feltDemoRecipients
	}

	symbol := chain.DemoSymbol
	if symbol == "" {
		symbol = UnknownSymbol
	}

	result := &entities.ScanResult{
		Chain:       chain.ID,
		Recipients:  make([]entities.RecipientAnalysis, 0, len(source)),
		TokenSymbol: symbol,
		IsDemo:      true,
	}
	for _, r := range source {
		result.Recipients = append(result.Recipients, entities.RecipientAnalysis{
			Address:          r.address,
			TotalReceived:    r.total,
			CurrentBalance:   r.balance,
			TransferCount:    r.count,
			LastTransferTime: r.lastTime,
			ExplorerURL:      chain.AddressURL(r.address),
		})
		result.TotalTransfers += r.count
	}
	return result
}

// DemoTransfers returns a fixed outgoing transfer list attributed to wallet, newest first
func DemoTransfers(chain entities.ChainConfig, wallet string) []entities.Transfer {
	transfers := make([]entities.Transfer, 0, len(evmDemoTransfers))
	for i, d := range evmDemoTransfers {
		to := d.to
		if chain.Kind == entities.ChainKindFelt {
			to = feltDemoRecipients[i].address
		}
		t := entities.NewTransfer(d.hash, wallet, to, big.NewInt(d.value), d.block, d.time)
		t.TokenSymbol = chain.NativeCurrency
		transfers = append(transfers, t)
	}
	return transfers
}
