package order

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Cosigned is an order carrying cosigner overrides: *CosignedOrder,
// *NonlinearOrder or *PriorityOrder.
type Cosigned interface {
	Order
	cosigner() common.Address
	cosignature() []byte
}

// Hash returns a local keccak256 digest of the order's ABI encoding with
// cosigner data and cosignature cleared. It identifies an order within this
// module and is stable across cosigning. It is not the reactor's order hash,
// which is the typed-data struct hash computed by whoever built the order.
func Hash(o Order) (common.Hash, error) {
	encoded, err := encode(o, false)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode order: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// CosignatureHash returns the digest a cosigner signs:
// keccak256(orderHash || uint256(chainID) || abi.encode(cosignerData)).
// orderHash must be the hash the reactor computes for o; it binds the
// cosigner data to a single order.
func CosignatureHash(orderHash common.Hash, o Cosigned, chainID *big.Int) (common.Hash, error) {
	cosignerData, err := encodeCosignerData(o)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode cosigner data: %w", err)
	}

	return crypto.Keccak256Hash(
		orderHash.Bytes(),
		padTo32Bytes(chainID),
		cosignerData,
	), nil
}

// RecoverCosigner recovers the address that produced the order's cosignature
// over orderHash.
func RecoverCosigner(orderHash common.Hash, o Cosigned, chainID *big.Int) (common.Address, error) {
	sig := o.cosignature()
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidCosignature, len(sig))
	}

	digest, err := CosignatureHash(orderHash, o, chainID)
	if err != nil {
		return common.Address{}, err
	}

	// Accept both 0/1 and 27/28 recovery ids.
	sigForRecovery := make([]byte, crypto.SignatureLength)
	copy(sigForRecovery, sig)
	if sigForRecovery[64] >= 27 {
		sigForRecovery[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sigForRecovery)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidCosignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyCosignature checks that the cosignature over orderHash was produced
// by the order's declared cosigner.
func VerifyCosignature(orderHash common.Hash, o Cosigned, chainID *big.Int) error {
	signer, err := RecoverCosigner(orderHash, o, chainID)
	if err != nil {
		return err
	}
	if signer != o.cosigner() {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrInvalidCosignature, signer.Hex(), o.cosigner().Hex())
	}
	return nil
}

// padTo32Bytes pads a big.Int to 32 bytes (left-padded with zeros).
func padTo32Bytes(value *big.Int) []byte {
	if value == nil {
		return make([]byte, 32)
	}
	bytes := value.Bytes()
	if len(bytes) >= 32 {
		return bytes[len(bytes)-32:]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(bytes):], bytes)
	return padded
}
