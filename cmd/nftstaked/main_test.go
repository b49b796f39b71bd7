package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/config"
	"nftstaking/core"
	"nftstaking/crypto"
	"nftstaking/storage"
)

func TestResolveGenesisPath(t *testing.T) {
	lookup := func(value string) envLookupFunc {
		return func(key string) (string, bool) {
			if key == genesisPathEnv && value != "" {
				return value, true
			}
			return "", false
		}
	}
	require.Equal(t, "cli.yaml", resolveGenesisPath(" cli.yaml ", "cfg.yaml", lookup("env.yaml")))
	require.Equal(t, "env.yaml", resolveGenesisPath("", "cfg.yaml", lookup("env.yaml")))
	require.Equal(t, "cfg.yaml", resolveGenesisPath("", "cfg.yaml", lookup("")))
	require.Equal(t, "", resolveGenesisPath("", "", nil))
}

func TestOpenDatabaseBackends(t *testing.T) {
	cfg := config.Default()
	cfg.DBBackend = config.BackendMemory
	db, err := openDatabase(cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.MemDB{}, db)
	db.Close()

	cfg.DBBackend = config.BackendLevelDB
	cfg.DataDir = t.TempDir()
	db, err = openDatabase(cfg)
	require.NoError(t, err)
	db.Close()

	cfg.DBBackend = "rocks"
	_, err = openDatabase(cfg)
	require.Error(t, err)
}

func TestApplyGenesisIsIdempotentAcrossRestarts(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	spec := "genesisTime: \"2024-01-01T00:00:00Z\"\n" +
		"assets:\n  - symbol: RWD\n    name: Reward\n    decimals: 2\n" +
		"alloc:\n  " + key.PubKey().Address().String() + ":\n    RWD: \"500\"\n"
	require.NoError(t, os.WriteFile(path, []byte(spec), 0o600))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	db := storage.NewMemDB()
	node, err := core.NewNode(db)
	require.NoError(t, err)
	require.NoError(t, applyGenesis(node, path, logger))

	restarted, err := core.NewNode(db)
	require.NoError(t, err)
	require.NoError(t, applyGenesis(restarted, path, logger))

	balance, err := restarted.Balance(key.PubKey().Address().Array(), "RWD")
	require.NoError(t, err)
	require.Equal(t, uint64(500), balance)

	require.NoError(t, applyGenesis(restarted, "", logger))
}
