package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/core"
	"nftstaking/core/genesis"
	"nftstaking/crypto"
	"nftstaking/native/nftstaking"
	"nftstaking/rpc"
	"nftstaking/storage"
)

type cliHarness struct {
	srv        *httptest.Server
	now        atomic.Int64
	admin      *crypto.PrivateKey
	owner      *crypto.PrivateKey
	collection [20]byte
	nft        [20]byte
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	h := &cliHarness{
		collection: crypto.DeriveAddress([]byte("cli-collection")),
		nft:        crypto.DeriveAddress([]byte("cli-nft")),
	}
	h.now.Store(1_000)
	var err error
	h.admin, err = crypto.GeneratePrivateKey()
	require.NoError(t, err)
	h.owner, err = crypto.GeneratePrivateKey()
	require.NoError(t, err)

	node, err := core.NewNode(storage.NewMemDB(), core.WithNowFunc(func() int64 { return h.now.Load() }))
	require.NoError(t, err)
	require.NoError(t, node.ApplyGenesis(&genesis.GenesisSpec{
		GenesisTime: "2024-01-01T00:00:00Z",
		Assets:      []genesis.AssetSpec{{Symbol: "RWD", Name: "Reward", Decimals: 0}},
		Collections: []genesis.CollectionSpec{{
			ID:   crypto.FromArray(crypto.AssetPrefix, h.collection).String(),
			Name: "Cats",
			NFTs: []genesis.NFTSpec{{
				ID:    crypto.FromArray(crypto.AssetPrefix, h.nft).String(),
				Owner: h.owner.PubKey().Address().String(),
			}},
		}},
		Alloc: map[string]map[string]string{
			h.admin.PubKey().Address().String(): {"RWD": "1000000"},
		},
	}))
	h.srv = httptest.NewServer(rpc.NewServer(node, nil, rpc.ServerConfig{}, nil).Handler())
	t.Cleanup(h.srv.Close)
	return h
}

func TestPoolLifecycleThroughClient(t *testing.T) {
	h := newCLIHarness(t)
	ctx := context.Background()
	c := newHTTPClient(h.srv.URL+"/", "")

	cfg, err := openPool(ctx, c, h.admin, nftstaking.OpenParams{
		Collection:    h.collection,
		RewardAsset:   "rwd",
		RatePerSecond: 2,
		HorizonStart:  1_000,
		HorizonEnd:    1_500,
		MaxCapacity:   1,
	})
	require.NoError(t, err)
	config, err := parseAddress(cfg.ID, crypto.AccountPrefix)
	require.NoError(t, err)

	var pos rpc.PositionView
	require.NoError(t, positionAction(ctx, c, h.owner, "lock", config, h.nft, &pos))
	require.Equal(t, h.owner.PubKey().Address().String(), pos.Owner)

	h.now.Store(1_050)
	var claim rpc.ClaimView
	require.NoError(t, positionAction(ctx, c, h.owner, "claim", config, h.nft, &claim))
	require.Equal(t, uint64(100), claim.Reward)

	rate := uint64(4)
	res, err := reconfigurePool(ctx, c, h.admin, config, nftstaking.ReconfigureParams{RatePerSecond: &rate})
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Record.OrderID)

	// Only the owner may withdraw.
	err = positionAction(ctx, c, h.admin, "unlock", config, h.nft, nil)
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.NotEmpty(t, apiErr.RequestID)

	closed, err := closePool(ctx, c, h.admin, config)
	require.NoError(t, err)
	require.NotZero(t, closed.Refunded)

	var unlock rpc.UnlockView
	require.NoError(t, positionAction(ctx, c, h.owner, "unlock", config, h.nft, &unlock))
	require.True(t, unlock.Eligible)

	require.ErrorContains(t, positionAction(ctx, c, h.owner, "stake", config, h.nft, nil), "unknown position action")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestKeygenAndQueryCommands(t *testing.T) {
	h := newCLIHarness(t)
	t.Setenv(passEnv, "correct horse battery staple")
	keyPath := filepath.Join(t.TempDir(), "key.json")

	out, err := runCLI(t, "keygen", "--light", "--keystore", keyPath)
	require.NoError(t, err)
	addr := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(addr, "stk1"), addr)

	out, err = runCLI(t, "address", "--keystore", keyPath)
	require.NoError(t, err)
	require.Equal(t, addr, strings.TrimSpace(out))

	out, err = runCLI(t, "query", "account", addr, "--rpc", h.srv.URL)
	require.NoError(t, err)
	var account rpc.AccountView
	require.NoError(t, json.Unmarshal([]byte(out), &account))
	require.Equal(t, addr, account.Address)
	require.Zero(t, account.Nonce)

	out, err = runCLI(t, "q", "balance", h.admin.PubKey().Address().String(), "RWD", "--rpc", h.srv.URL)
	require.NoError(t, err)
	var balance rpc.BalanceView
	require.NoError(t, json.Unmarshal([]byte(out), &balance))
	require.Equal(t, uint64(1_000_000), balance.Balance)

	_, err = runCLI(t, "query", "config", "stk1notanaddress", "--rpc", h.srv.URL)
	require.Error(t, err)

	_, err = runCLI(t, "reconfigure", "--config", "stk1x", "--keystore", keyPath)
	require.Error(t, err)
}
