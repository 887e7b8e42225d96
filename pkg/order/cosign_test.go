package order

import (
	"math/big"
	"testing"

	"github.com/dantezy/reactor-sdk/internal/wallet"
	"github.com/dantezy/reactor-sdk/pkg/decay"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test private key (DO NOT use in production)
const testCosignerKey = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

var mainnet = big.NewInt(1)

// Order hashes as the reactor would compute them. They come from the
// typed-data layer that built the order, not from this package.
var (
	reactorHashA = crypto.Keccak256Hash([]byte("order a"))
	reactorHashB = crypto.Keccak256Hash([]byte("order b"))
)

func cosign(t *testing.T, w *wallet.Wallet, orderHash common.Hash, o Cosigned) []byte {
	t.Helper()
	digest, err := CosignatureHash(orderHash, o, mainnet)
	require.NoError(t, err)
	sig, err := w.SignDigest(digest)
	require.NoError(t, err)
	return sig
}

func TestVerifyCosignature(t *testing.T) {
	w, err := wallet.NewWalletFromHex(testCosignerKey)
	require.NoError(t, err)

	orders := map[string]func(t *testing.T) Cosigned{
		"cosigned": func(t *testing.T) Cosigned {
			o := cosignedOrder(t)
			o.Cosigner = w.Address()
			o.CosignerData.InputOverride = big.NewInt(950)
			o.Cosignature = cosign(t, w, reactorHashA, o)
			return o
		},
		"nonlinear": func(t *testing.T) Cosigned {
			o := nonlinearOrder()
			o.Cosigner = w.Address()
			o.CosignerData.DecayStartBlock = 1234
			o.Cosignature = cosign(t, w, reactorHashA, o)
			return o
		},
		"priority": func(t *testing.T) Cosigned {
			o := priorityOrder(big.NewInt(1), big.NewInt(1), 1)
			o.Cosigner = w.Address()
			o.CosignerData.AuctionTargetBlock = 150
			o.Cosignature = cosign(t, w, reactorHashA, o)
			return o
		},
	}

	for name, build := range orders {
		t.Run(name, func(t *testing.T) {
			o := build(t)
			require.NoError(t, VerifyCosignature(reactorHashA, o, mainnet))

			signer, err := RecoverCosigner(reactorHashA, o, mainnet)
			require.NoError(t, err)
			assert.Equal(t, w.Address(), signer)

			assert.ErrorIs(t, VerifyCosignature(reactorHashA, o, big.NewInt(137)), ErrInvalidCosignature)
		})
	}
}

func TestVerifyCosignature_UsesSuppliedOrderHash(t *testing.T) {
	w, err := wallet.NewWalletFromHex(testCosignerKey)
	require.NoError(t, err)

	o := cosignedOrder(t)
	o.Cosigner = w.Address()
	o.Cosignature = cosign(t, w, reactorHashA, o)

	local, err := Hash(o)
	require.NoError(t, err)
	require.NotEqual(t, reactorHashA, local)

	require.NoError(t, VerifyCosignature(reactorHashA, o, mainnet))
	assert.ErrorIs(t, VerifyCosignature(local, o, mainnet), ErrInvalidCosignature)
}

func TestVerifyCosignature_TamperedData(t *testing.T) {
	w, err := wallet.NewWalletFromHex(testCosignerKey)
	require.NoError(t, err)

	o := cosignedOrder(t)
	o.Cosigner = w.Address()
	o.Cosignature = cosign(t, w, reactorHashA, o)

	o.CosignerData.ExclusiveFiller = fillerA
	assert.ErrorIs(t, VerifyCosignature(reactorHashA, o, mainnet), ErrInvalidCosignature)
}

func TestVerifyCosignature_ReplayAcrossOrders(t *testing.T) {
	w, err := wallet.NewWalletFromHex(testCosignerKey)
	require.NoError(t, err)

	first := cosignedOrder(t)
	first.Cosigner = w.Address()
	first.Cosignature = cosign(t, w, reactorHashA, first)

	second := cosignedOrder(t)
	second.Cosigner = w.Address()
	second.Nonce = big.NewInt(8)
	second.Cosignature = first.Cosignature

	assert.ErrorIs(t, VerifyCosignature(reactorHashB, second, mainnet), ErrInvalidCosignature)
}

func TestVerifyCosignature_WrongCosigner(t *testing.T) {
	w, err := wallet.NewWalletFromHex(testCosignerKey)
	require.NoError(t, err)

	o := priorityOrder(big.NewInt(1), big.NewInt(1), 1)
	o.Cosigner = fillerA
	o.Cosignature = cosign(t, w, reactorHashA, o)

	assert.ErrorIs(t, VerifyCosignature(reactorHashA, o, mainnet), ErrInvalidCosignature)
}

func TestVerifyCosignature_BadLength(t *testing.T) {
	o := priorityOrder(big.NewInt(1), big.NewInt(1), 1)
	o.Cosignature = []byte{1, 2, 3}

	_, err := RecoverCosigner(reactorHashA, o, mainnet)
	assert.ErrorIs(t, err, ErrInvalidCosignature)
}

func TestHash_IgnoresCosignerData(t *testing.T) {
	o := cosignedOrder(t)
	before, err := Hash(o)
	require.NoError(t, err)

	o.CosignerData.InputOverride = big.NewInt(900)
	o.Cosignature = make([]byte, 65)
	after, err := Hash(o)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	o.Nonce = big.NewInt(99)
	changed, err := Hash(o)
	require.NoError(t, err)
	assert.NotEqual(t, before, changed)
}

func TestABIEncoder_AllVariants(t *testing.T) {
	orders := map[string]Order{
		"classic":   classicOrder(t),
		"cosigned":  cosignedOrder(t),
		"nonlinear": nonlinearOrder(),
		"priority":  priorityOrder(nil, nil, 1),
	}

	for name, o := range orders {
		t.Run(name, func(t *testing.T) {
			encoded, err := ABIEncoder{}.Encode(o)
			require.NoError(t, err)
			require.NotEmpty(t, encoded)
			assert.Zero(t, len(encoded)%32, "abi encoding must be word aligned")
			// Every order is a dynamic tuple, so the head is an offset of 0x20.
			assert.Equal(t, big.NewInt(32), new(big.Int).SetBytes(encoded[:32]))
		})
	}
}

func TestABIEncoder_InvalidCurve(t *testing.T) {
	o := nonlinearOrder()
	o.Outputs[0].Curve.RelativeAmounts = o.Outputs[0].Curve.RelativeAmounts[:1]

	_, err := ABIEncoder{}.Encode(o)
	assert.ErrorIs(t, err, decay.ErrInvalidCurve)
}

func TestWireCurvePacking(t *testing.T) {
	w, err := wireCurveOf(decay.Curve{
		RelativeBlocks:  []uint64{1, 2, 65535},
		RelativeAmounts: []*big.Int{big.NewInt(-1), big.NewInt(0), big.NewInt(1)},
	})
	require.NoError(t, err)

	want := new(big.Int).Lsh(big.NewInt(65535), 32)
	want.Or(want, big.NewInt(2<<16|1))
	assert.Equal(t, want, w.RelativeBlocks)
}
