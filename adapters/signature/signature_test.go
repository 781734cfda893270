package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *ecdsa.PrivateKey, digest []byte) string {
	t.Helper()
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)
	return EncodeSignature(sig)
}

func payloadFor(message string) []byte {
	// the verifier receives the decoded form of core.EncodePayload
	return []byte(message)
}

func TestVerifyTron(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	address := TronAddress(&key.PublicKey)
	_, err = core.NormalizeAddress(address, core.NetworkTron)
	require.NoError(t, err)

	payload := payloadFor("Sign this message to authenticate: 0123")
	v := NewVerifier()

	t.Run("trx.sign", func(t *testing.T) {
		assert.NoError(t, v.VerifySignature(core.NetworkTron, address, payload, sign(t, key, TronDigest(payload))))
	})

	t.Run("signMessageV2", func(t *testing.T) {
		assert.NoError(t, v.VerifySignature(core.NetworkTron, address, payload, sign(t, key, TronDigestV2(payload))))
	})

	t.Run("without prefix and raw recovery id", func(t *testing.T) {
		sig, err := crypto.Sign(TronDigest(payload), key)
		require.NoError(t, err)
		assert.NoError(t, v.VerifySignature(core.NetworkTron, address, payload, strings.TrimPrefix(EncodeSignature(sig), "0x")))
	})

	t.Run("other key", func(t *testing.T) {
		err := v.VerifySignature(core.NetworkTron, address, payload, sign(t, other, TronDigest(payload)))
		assert.True(t, errors.Is(err, core.ErrSignatureInvalid))
	})

	t.Run("other payload", func(t *testing.T) {
		sig := sign(t, key, TronDigest(payloadFor("something else")))
		err := v.VerifySignature(core.NetworkTron, address, payload, sig)
		assert.True(t, errors.Is(err, core.ErrSignatureInvalid))
	})

	t.Run("ethereum digest", func(t *testing.T) {
		err := v.VerifySignature(core.NetworkTron, address, payload, sign(t, key, EthereumDigest(payload)))
		assert.True(t, errors.Is(err, core.ErrSignatureInvalid))
	})
}

func TestVerifyEthereum(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	address := EthereumAddress(&key.PublicKey)
	payload := payloadFor("Sign this message to authenticate: abcd")
	v := NewVerifier()

	sig := sign(t, key, EthereumDigest(payload))
	assert.NoError(t, v.VerifySignature(core.NetworkEthereum, address, payload, sig))
	assert.NoError(t, v.VerifySignature(core.NetworkEthereum, crypto.PubkeyToAddress(key.PublicKey).Hex(), payload, sig))

	err = v.VerifySignature(core.NetworkEthereum, address, payload, sign(t, key, TronDigest(payload)))
	assert.True(t, errors.Is(err, core.ErrSignatureInvalid))
}

func TestVerifyMalformedSignature(t *testing.T) {
	v := NewVerifier()
	for _, sig := range []string{"", "0x", "0xzz", "0x" + strings.Repeat("ab", 64), "0x" + strings.Repeat("ab", 65)} {
		err := v.VerifySignature(core.NetworkTron, "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb", []byte("m"), sig)
		assert.True(t, errors.Is(err, core.ErrSignatureInvalid), sig)
	}
}

func TestDecodeSignature(t *testing.T) {
	raw := strings.Repeat("11", 64)

	sig, err := DecodeSignature("0x" + raw + "1c")
	require.NoError(t, err)
	assert.Equal(t, byte(1), sig[64])

	sig, err = DecodeSignature(raw + "00")
	require.NoError(t, err)
	assert.Equal(t, byte(0), sig[64])

	_, err = DecodeSignature(raw + "05")
	assert.Error(t, err)
}

func TestAddressDerivation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tron, err := Address(core.NetworkTron, &key.PublicKey)
	require.NoError(t, err)
	payload, err := core.DecodeTronAddress(tron)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Bytes(), payload[1:])

	eth, err := Address(core.NetworkEthereum, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()), eth)

	_, err = Address(core.Network("btc"), &key.PublicKey)
	assert.Error(t, err)
}

// Output of TronWeb trx.sign(hex(message)) and signMessageV2(message) for the
// well known development key whose Ethereum address is 0xf39fd6e5...92266
func TestVerifyTronKnownSignatures(t *testing.T) {
	const (
		privateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
		address    = "TYBNgWfhGuNzdLtjKtxXTfskAhTbMcqbaG"
		message    = "Sign this message to authenticate: 0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		sigV1      = "0x586280bb16cab8c18f1b77ab3cc9772c7662e72594cf8fc367e744764573417c094e5020ab97a33d03218919337fdad124036e4c0ebbd78f22352edd9a4594041b"
		sigV2      = "0x5780246c4d01973369e07998dad859d47cc2d55c85cf9a6ba1dd8eaea1de58696c6e1799b8d45a6dd0734665361bb41f67ca818ff11216e9d8c45a70a73ee3781b"
	)

	key, err := crypto.HexToECDSA(privateKey)
	require.NoError(t, err)
	assert.Equal(t, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", EthereumAddress(&key.PublicKey))
	assert.Equal(t, address, TronAddress(&key.PublicKey))

	payload, err := hex.DecodeString(core.EncodePayload(message))
	require.NoError(t, err)

	v := NewVerifier()
	assert.NoError(t, v.VerifySignature(core.NetworkTron, address, payload, sigV1))
	assert.NoError(t, v.VerifySignature(core.NetworkTron, address, payload, sigV2))

	// both signatures are deterministic, so signing again must reproduce them
	assert.Equal(t, sigV1, sign(t, key, TronDigest(payload)))
	assert.Equal(t, sigV2, sign(t, key, TronDigestV2(payload)))

	tampered := sigV1[:len(sigV1)-4] + "00" + sigV1[len(sigV1)-2:]
	assert.Error(t, v.VerifySignature(core.NetworkTron, address, payload, tampered))
}
