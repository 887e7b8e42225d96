// Package wallet holds secp256k1 keys used to cosign order digests. It backs
// the cosignature tests and fixtures only; the SDK never signs at runtime.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key format")
	ErrNilPrivateKey     = errors.New("private key is nil")
)

// Wallet holds the private key and derived address for signing operations.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWalletFromHex creates a new Wallet from a hex-encoded private key.
// The hex string can optionally include the "0x" prefix.
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	cleanKey := strings.TrimPrefix(hexKey, "0x")
	cleanKey = strings.TrimPrefix(cleanKey, "0X")

	if len(cleanKey) != 64 {
		return nil, ErrInvalidPrivateKey
	}

	privateKey, err := crypto.HexToECDSA(cleanKey)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}

	return &Wallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// Address returns the Ethereum address derived from the private key.
func (w *Wallet) Address() common.Address {
	return w.address
}

// AddressHex returns the Ethereum address as a checksummed hex string.
func (w *Wallet) AddressHex() string {
	return w.address.Hex()
}

// SignDigest signs a 32-byte digest and returns a 65-byte [R || S || V]
// signature with V in {27, 28}, the form reactors verify cosignatures in.
func (w *Wallet) SignDigest(digest common.Hash) ([]byte, error) {
	if w.privateKey == nil {
		return nil, ErrNilPrivateKey
	}

	signature, err := crypto.Sign(digest.Bytes(), w.privateKey)
	if err != nil {
		return nil, err
	}

	// Adjust V value from 0/1 to 27/28 for Ethereum compatibility
	if signature[64] < 27 {
		signature[64] += 27
	}

	return signature, nil
}
