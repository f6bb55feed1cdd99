package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizeAddress validates a hex address and returns its lowercase form.
func NormalizeAddress(input string) (string, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return "", fmt.Errorf("%w: invalid address %q", ErrBadInput, input)
	}
	return strings.ToLower(common.HexToAddress(input).Hex()), nil
}

// NormalizePoolAddress accepts 20-byte pool addresses and 32-byte pool ids
// and returns the lowercase form.
func NormalizePoolAddress(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	data, err := hexutil.Decode(input)
	if err != nil || (len(data) != common.AddressLength && len(data) != common.HashLength) {
		return "", fmt.Errorf("%w: invalid pool address %q", ErrBadInput, input)
	}
	return input, nil
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
