package bank

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/core/auth"
	"nftstaking/core/events"
	nhbstate "nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/storage"
)

func newTestLedger(t *testing.T) (*Ledger, *nhbstate.Manager) {
	t.Helper()
	manager := nhbstate.NewManager(nhbstate.NewDatabaseKV(storage.NewMemDB()))
	require.NoError(t, manager.RegisterToken("RWD", "Reward", 6))
	return NewLedger(manager), manager
}

func newCaller(t *testing.T) auth.Caller {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	digest := auth.OperationDigest("test", 1)
	sig, err := auth.SignDigest(key, digest)
	require.NoError(t, err)
	caller, err := auth.Authenticate(digest, sig)
	require.NoError(t, err)
	return caller
}

func TestTransferMovesBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	var buf events.Buffer
	ledger.SetEmitter(&buf)
	alice := newCaller(t)
	bob := newCaller(t)

	require.NoError(t, ledger.Mint(alice.Address(), "rwd", 1_000))
	require.NoError(t, ledger.Transfer(alice.Address(), bob.Address(), alice, "RWD", 400, 6))

	got, err := ledger.BalanceOf(alice.Address(), "RWD")
	require.NoError(t, err)
	require.Equal(t, uint64(600), got)
	got, err = ledger.BalanceOf(bob.Address(), "RWD")
	require.NoError(t, err)
	require.Equal(t, uint64(400), got)
	require.Len(t, buf.Events(), 2)
}

func TestTransferRejectsForeignAuthority(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newCaller(t)
	mallory := newCaller(t)
	require.NoError(t, ledger.Mint(alice.Address(), "RWD", 10))

	err := ledger.Transfer(alice.Address(), mallory.Address(), mallory, "RWD", 10, 6)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransferChecksDecimalsAndBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newCaller(t)
	bob := newCaller(t)
	require.NoError(t, ledger.Mint(alice.Address(), "RWD", 10))

	require.ErrorIs(t, ledger.Transfer(alice.Address(), bob.Address(), alice, "RWD", 5, 0), ErrDecimalsMismatch)
	require.ErrorIs(t, ledger.Transfer(alice.Address(), bob.Address(), alice, "RWD", 11, 6), ErrInsufficientBalance)
	require.ErrorIs(t, ledger.Transfer(alice.Address(), bob.Address(), alice, "XYZ", 1, 6), ErrUnknownAsset)
}

var vaultProgram = func() *auth.Program {
	p, err := auth.NewProgram("bank-test-vaults")
	if err != nil {
		panic(err)
	}
	return p
}()

func TestProgramAuthorityMovesVaultFunds(t *testing.T) {
	ledger, _ := newTestLedger(t)
	authority := vaultProgram.Authority([]byte("vault"))
	alice := newCaller(t)

	require.NoError(t, ledger.Mint(authority.Address(), "RWD", 50))
	require.ErrorIs(t, ledger.Transfer(authority.Address(), alice.Address(), alice, "RWD", 50, 6), ErrUnauthorized)
	require.NoError(t, ledger.Transfer(authority.Address(), alice.Address(), authority, "RWD", 50, 6))

	got, err := ledger.BalanceOf(authority.Address(), "RWD")
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestZeroValueSignersAuthoriseNothing(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newCaller(t)
	var zero [20]byte
	require.NoError(t, ledger.Mint(zero, "RWD", 10))

	require.ErrorIs(t, ledger.Transfer(zero, alice.Address(), auth.Caller{}, "RWD", 10, 6), ErrUnauthorized)
	require.ErrorIs(t, ledger.Transfer(zero, alice.Address(), auth.ProgramAuthority{}, "RWD", 10, 6), ErrUnauthorized)
	require.ErrorIs(t, ledger.Transfer(zero, alice.Address(), (&auth.Program{}).Authority([]byte("vault")), "RWD", 10, 6), ErrUnauthorized)
}

func TestMintTracksSupply(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice := newCaller(t)
	bob := newCaller(t)

	require.NoError(t, ledger.Mint(alice.Address(), "RWD", 70))
	require.NoError(t, ledger.Mint(bob.Address(), "rwd", 30))
	require.NoError(t, ledger.Transfer(alice.Address(), bob.Address(), alice, "RWD", 20, 6))

	supply, err := ledger.Supply("RWD")
	require.NoError(t, err)
	require.Equal(t, uint64(100), supply)

	_, err = ledger.Supply("XYZ")
	require.ErrorIs(t, err, ErrUnknownAsset)
}
