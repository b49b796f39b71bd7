package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeNonceAdvances(t *testing.T) {
	mgr := newTestManager(t)
	addr := [20]byte{7}

	nonce, err := mgr.AccountNonce(addr)
	require.NoError(t, err)
	require.Zero(t, nonce)

	require.NoError(t, mgr.ConsumeNonce(addr, 0))
	require.ErrorIs(t, mgr.ConsumeNonce(addr, 0), ErrNonceMismatch)
	require.ErrorIs(t, mgr.ConsumeNonce(addr, 5), ErrNonceMismatch)
	require.NoError(t, mgr.ConsumeNonce(addr, 1))

	nonce, err = mgr.AccountNonce(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(2), nonce)

	other, err := mgr.AccountNonce([20]byte{8})
	require.NoError(t, err)
	require.Zero(t, other)
}

func TestEnsureStateVersion(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.EnsureStateVersion())
	version, ok, err := mgr.StateVersion()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateVersion, version)
	require.NoError(t, mgr.EnsureStateVersion())

	require.NoError(t, mgr.SetStateVersion(StateVersion+1))
	require.ErrorIs(t, mgr.EnsureStateVersion(), ErrStateVersionMismatch)
}

func TestGenesisMarker(t *testing.T) {
	mgr := newTestManager(t)
	_, ok, err := mgr.GenesisTime()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.MarkGenesis(1_704_067_200))
	ts, ok, err := mgr.GenesisTime()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1_704_067_200), ts)
}
