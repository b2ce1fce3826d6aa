package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the length of a canonical wallet address string, prefix included
const AddressLength = 2 + 2*common.AddressLength

// NormalizeAddress validates a 0x-prefixed hex wallet address and returns
// its lower-case form. Checksums are not enforced: comparison is case-insensitive.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if len(address) != AddressLength || (!strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X")) {
		return "", ErrInvalidAddress
	}
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return "0x" + strings.ToLower(address[2:]), nil
}

// SameAddress compares two wallet addresses ignoring case
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
