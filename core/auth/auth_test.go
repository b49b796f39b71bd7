package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/crypto"
)

func TestAuthenticateRecoversSigner(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	digest := OperationDigest("lock", 7, []byte("config"), []byte("nft"))
	sig, err := SignDigest(key, digest)
	require.NoError(t, err)

	caller, err := Authenticate(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Array(), caller.Address())
}

func TestAuthenticateRejectsTamperedDigest(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	digest := OperationDigest("claim", 1)
	sig, err := SignDigest(key, digest)
	require.NoError(t, err)

	other := OperationDigest("claim", 2)
	caller, err := Authenticate(other, sig)
	if err == nil {
		require.NotEqual(t, key.PubKey().Address().Array(), caller.Address())
	}

	_, err = Authenticate(digest, sig[:10])
	require.True(t, errors.Is(err, ErrInvalidSignature))
}

// claimForTest claims name and releases it when the test ends so repeated
// runs in one process can claim it again.
func claimForTest(t *testing.T, name string) *Program {
	t.Helper()
	program, err := NewProgram(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		programsMu.Lock()
		delete(programs, name)
		programsMu.Unlock()
	})
	return program
}

func TestProgramAuthorityMatchesPublicDerivation(t *testing.T) {
	program := claimForTest(t, "vaults")

	authority := program.Authority([]byte("reward_vault_authority"))
	require.Equal(t, DeriveProgramAddress("vaults", []byte("reward_vault_authority")), authority.Address())
	require.Equal(t, "vaults", authority.Program())

	other := claimForTest(t, "other")
	require.NotEqual(t, authority.Address(), other.DeriveAddress([]byte("reward_vault_authority")))

	_, err := NewProgram("")
	require.ErrorIs(t, err, ErrEmptyProgram)
}

func TestProgramNameClaimedOnce(t *testing.T) {
	claimForTest(t, "custody")

	_, err := NewProgram("custody")
	require.ErrorIs(t, err, ErrProgramClaimed)

	var unclaimed *Program
	require.Equal(t, ProgramAuthority{}, unclaimed.Authority([]byte("vault")))
	require.Equal(t, ProgramAuthority{}, (&Program{}).Authority([]byte("vault")))
}

func TestOperationDigestSeparatesFields(t *testing.T) {
	a := OperationDigest("open", 1, []byte("ab"), []byte("c"))
	b := OperationDigest("open", 1, []byte("a"), []byte("bc"))
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
	require.NotEqual(t, a, OperationDigest("open", 2, []byte("ab"), []byte("c")))
}

func TestAuthenticateOperationBindsNonce(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	field := []byte("payload")

	sig, err := SignOperation(key, "lock", 3, field)
	require.NoError(t, err)
	caller, err := AuthenticateOperation("lock", 3, sig, field)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Array(), caller.Address())
	nonce, ok := caller.Nonce()
	require.True(t, ok)
	require.Equal(t, uint64(3), nonce)

	other, err := AuthenticateOperation("lock", 4, sig, field)
	if err == nil {
		require.NotEqual(t, caller.Address(), other.Address())
	}

	raw, err := Authenticate(OperationDigest("lock", 3, field), sig)
	require.NoError(t, err)
	_, ok = raw.Nonce()
	require.False(t, ok)
}
