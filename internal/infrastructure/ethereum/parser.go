package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// TransferEventSignature is the keccak256 hash of Transfer(address,address,uint256)
var TransferEventSignature = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// ParseTransferEvent parses a raw log into a Transfer with lowercase addresses
func ParseTransferEvent(log types.Log, blockTimestamp uint64) (*entities.Transfer, error) {
	if len(log.Topics) != 3 {
		return nil, fmt.Errorf("invalid number of topics: expected 3, got %d: %w", len(log.Topics), entities.ErrDecode)
	}

	if log.Topics[0] != TransferEventSignature {
		return nil, fmt.Errorf("not a Transfer event: %w", entities.ErrDecode)
	}

	// Topics[1] and Topics[2] hold the indexed from/to addresses left-padded to 32 bytes
	fromAddress := common.BytesToAddress(log.Topics[1].Bytes())
	toAddress := common.BytesToAddress(log.Topics[2].Bytes())

	if len(log.Data) != 32 {
		return nil, fmt.Errorf("invalid data length: expected 32, got %d: %w", len(log.Data), entities.ErrDecode)
	}
	value := new(big.Int).SetBytes(log.Data)

	transfer := entities.NewTransfer(
		strings.ToLower(log.TxHash.Hex()),
		strings.ToLower(fromAddress.Hex()),
		strings.ToLower(toAddress.Hex()),
		value,
		log.BlockNumber,
		blockTimestamp,
	)
	return &transfer, nil
}

// ParseTransferLogs parses multiple logs into transfers.
// Logs without a known block timestamp or with an unexpected layout are skipped.
func ParseTransferLogs(logs []types.Log, blockTimestamps map[uint64]uint64) ([]entities.Transfer, []int) {
	transfers := make([]entities.Transfer, 0, len(logs))
	failedIndices := make([]int, 0)

	for i, log := range logs {
		if log.Removed {
			continue
		}

		timestamp, ok := blockTimestamps[log.BlockNumber]
		if !ok {
			failedIndices = append(failedIndices, i)
			continue
		}

		transfer, err := ParseTransferEvent(log, timestamp)
		if err != nil {
			failedIndices = append(failedIndices, i)
			continue
		}

		transfers = append(transfers, *transfer)
	}

	return transfers, failedIndices
}

// IsTransferEvent checks if a log is a Transfer event
func IsTransferEvent(log types.Log) bool {
	return len(log.Topics) == 3 && log.Topics[0] == TransferEventSignature
}
