package crypto

import (
	"path/filepath"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	for _, prefix := range []AddressPrefix{AccountPrefix, AssetPrefix} {
		encoded := FromArray(prefix, raw).String()
		decoded, err := DecodeAddress(encoded)
		require.NoError(t, err)
		require.Equal(t, prefix, decoded.Prefix())
		require.Equal(t, raw, decoded.Array())
	}

	_, err := DecodeAddress("stk1notbech32")
	require.Error(t, err)
	require.Panics(t, func() { NewAddress(AccountPrefix, []byte{1, 2}) })
}

func TestDeriveAddressIsDeterministic(t *testing.T) {
	a := DeriveAddress([]byte("nftstaking"), []byte("vault"))
	b := DeriveAddress([]byte("nftstaking"), []byte("vault"))
	c := DeriveAddress([]byte("nftstaking"), []byte("reward"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestSignAndRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	digest := ethcrypto.Keccak256([]byte("lock"))

	sig, err := key.Sign(digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	signer, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Array(), signer)

	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address(), restored.PubKey().Address())
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "admin.json")

	require.NoError(t, SaveToKeystore(path, key, "secret", ScryptLight))
	loaded, err := LoadFromKeystore(path, "secret")
	require.NoError(t, err)
	require.Equal(t, key.Bytes(), loaded.Bytes())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)

	// overwriting an existing file replaces it
	other, err := GeneratePrivateKey()
	require.NoError(t, err)
	require.NoError(t, SaveToKeystore(path, other, "secret", ScryptLight))
	loaded, err = LoadFromKeystore(path, "secret")
	require.NoError(t, err)
	require.Equal(t, other.Bytes(), loaded.Bytes())

	require.Error(t, SaveToKeystore(path, nil, "secret", ScryptLight))
	_, err = LoadFromKeystore("", "secret")
	require.Error(t, err)
}
