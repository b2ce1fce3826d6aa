// Package eth implements the personal-message signing scheme used by
// Ethereum wallets (recoverable ECDSA over secp256k1 with the
// "\x19Ethereum Signed Message:\n<len>" prefix).
package eth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an [R || S || V] recoverable signature
const SignatureLength = crypto.SignatureLength

var ErrMalformedSignature = errors.New("malformed signature")

// PersonalHash returns the digest a wallet signs for message
func PersonalHash(message []byte) []byte {
	return accounts.TextHash(message)
}

// DecodeSignature parses a hex signature, with or without 0x prefix, and
// normalizes the recovery id to 0/1. Wallets commonly emit 27/28.
func DecodeSignature(signature string) ([]byte, error) {
	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, "0x") && !strings.HasPrefix(signature, "0X") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode("0x" + signature[2:])
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", ErrMalformedSignature)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes: %w", SignatureLength, ErrMalformedSignature)
	}

	switch v := sig[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case 27, 28:
		sig[crypto.RecoveryIDOffset] = v - 27
	default:
		return nil, fmt.Errorf("invalid recovery id %d: %w", v, ErrMalformedSignature)
	}
	return sig, nil
}

// RecoverAddress returns the address whose key produced sig over message
func RecoverAddress(message []byte, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, ErrMalformedSignature
	}
	pub, err := crypto.SigToPub(PersonalHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover pubkey: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyPersonalSignature reports whether signature over message was produced
// by the key behind address. Malformed input is reported as false.
func VerifyPersonalSignature(message, signature, address string) bool {
	sig, err := DecodeSignature(signature)
	if err != nil {
		return false
	}
	recovered, err := RecoverAddress([]byte(message), sig)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered.Hex(), address)
}

// SignPersonalMessage signs message the way a wallet's personal_sign does,
// returning a 0x-prefixed signature with a 27/28 recovery id.
func SignPersonalMessage(key *ecdsa.PrivateKey, message []byte) (string, error) {
	sig, err := crypto.Sign(PersonalHash(message), key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// AddressOf returns the lower-case hex address of key
func AddressOf(key *ecdsa.PrivateKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}
