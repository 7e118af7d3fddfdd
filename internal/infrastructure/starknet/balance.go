package starknet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/bimakw/recipient-scanner/internal/domain/entities"
)

// balanceShape enumerates the physical encodings of a u256 balance
type balanceShape int

const (
	shapeUnknown balanceShape = iota
	// {"low": x, "high": y}
	shapeObjectLowHigh
	// {"balance": x} where x is any other shape
	shapeObjectSingleField
	// 123, "123" or "0x7b"
	shapeRawInteger
	// [x]
	shapeSingleElementArray
	// [low, high]
	shapeLowHighArray
)

const maxBalanceDepth = 3

func (s balanceShape) String() string {
	switch s {
	case shapeObjectLowHigh:
		return "object_low_high"
	case shapeObjectSingleField:
		return "object_single_field"
	case shapeRawInteger:
		return "raw_integer"
	case shapeSingleElementArray:
		return "single_element_array"
	case shapeLowHighArray:
		return "low_high_array"
	default:
		return "unknown"
	}
}

// classifyBalance determines the shape of a raw balance result
func classifyBalance(raw json.RawMessage) balanceShape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeUnknown
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return shapeUnknown
		}
		_, hasLow := obj["low"]
		_, hasHigh := obj["high"]
		if hasLow && hasHigh && len(obj) == 2 {
			return shapeObjectLowHigh
		}
		if len(obj) == 1 {
			return shapeObjectSingleField
		}
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return shapeUnknown
		}
		switch len(arr) {
		case 1:
			return shapeSingleElementArray
		case 2:
			return shapeLowHighArray
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			if _, ok := parseFelt(s); ok {
				return shapeRawInteger
			}
		}
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err == nil {
			if _, ok := new(big.Int).SetString(n.String(), 10); ok {
				return shapeRawInteger
			}
		}
	}
	return shapeUnknown
}

// decodeBalance normalizes any recognized balance shape to one integer
func decodeBalance(raw json.RawMessage) (*big.Int, error) {
	return decodeBalanceDepth(raw, 0)
}

func decodeBalanceDepth(raw json.RawMessage, depth int) (*big.Int, error) {
	if depth > maxBalanceDepth {
		return nil, fmt.Errorf("balance nested too deeply: %w", entities.ErrDecode)
	}

	switch shape := classifyBalance(raw); shape {
	case shapeObjectLowHigh:
		var obj struct {
			Low  json.RawMessage `json:"low"`
			High json.RawMessage `json:"high"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("bad %s balance: %v: %w", shape, err, entities.ErrDecode)
		}
		return decodeLowHigh(obj.Low, obj.High)

	case shapeObjectSingleField:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("bad %s balance: %v: %w", shape, err, entities.ErrDecode)
		}
		for _, v := range obj {
			return decodeBalanceDepth(v, depth+1)
		}

	case shapeRawInteger:
		return decodeInteger(raw)

	case shapeSingleElementArray:
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("bad %s balance: %v: %w", shape, err, entities.ErrDecode)
		}
		return decodeBalanceDepth(arr[0], depth+1)

	case shapeLowHighArray:
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("bad %s balance: %v: %w", shape, err, entities.ErrDecode)
		}
		return decodeLowHigh(arr[0], arr[1])
	}

	return nil, fmt.Errorf("unrecognized balance shape %s: %w", string(raw), entities.ErrDecode)
}

func decodeLowHigh(lowRaw, highRaw json.RawMessage) (*big.Int, error) {
	low, err := decodeInteger(lowRaw)
	if err != nil {
		return nil, err
	}
	high, err := decodeInteger(highRaw)
	if err != nil {
		return nil, err
	}
	return combineU256(low, high), nil
}

// decodeInteger accepts a JSON number or a decimal/hex string
func decodeInteger(raw json.RawMessage) (*big.Int, error) {
	trimmed := bytes.TrimSpace(raw)

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if v, ok := parseFelt(s); ok {
			return v, nil
		}
		return nil, fmt.Errorf("bad integer %q: %w", s, entities.ErrDecode)
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		if v, ok := new(big.Int).SetString(n.String(), 10); ok && v.Sign() >= 0 {
			return v, nil
		}
	}
	return nil, fmt.Errorf("bad integer %s: %w", string(trimmed), entities.ErrDecode)
}
