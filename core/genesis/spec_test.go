package genesis

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/native/bank"
	"nftstaking/native/nftstaking"
	"nftstaking/storage"
)

func account(b byte) string { return crypto.FromArray(crypto.AccountPrefix, [20]byte{b}).String() }

func asset(b byte) string { return crypto.FromArray(crypto.AssetPrefix, [20]byte{0xAA, b}).String() }

func writeSpec(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func yamlSpec() string {
	return fmt.Sprintf(`genesisTime: "2024-01-01T00:00:00Z"
assets:
  - symbol: rwd
    name: Reward
    decimals: 6
collections:
  - id: %s
    name: Apes
    nfts:
      - id: %s
        owner: %s
      - id: %s
        owner: %s
alloc:
  %s:
    RWD: "1000000"
paused: [nftstaking]
`, asset(1), asset(2), account(1), asset(3), account(2), account(9))
}

func TestLoadGenesisSpecYAMLAndApply(t *testing.T) {
	spec, err := LoadGenesisSpec(writeSpec(t, "genesis.yaml", yamlSpec()))
	require.NoError(t, err)
	require.Equal(t, int64(1704067200), spec.GenesisTimestamp().Unix())
	require.Equal(t, []string{"nftstaking"}, spec.Paused)

	manager := state.NewManager(state.NewDatabaseKV(storage.NewMemDB()))
	ledger := bank.NewLedger(manager)
	require.NoError(t, Apply(spec, manager, ledger))

	token, err := manager.Token("RWD")
	require.NoError(t, err)
	require.Equal(t, uint8(6), token.Decimals)

	funded, _ := ParseBech32Account(account(9))
	balance, err := ledger.BalanceOf(funded, "rwd")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), balance)

	collection, _ := ParseBech32Asset(asset(1))
	nft, _ := ParseBech32Asset(asset(2))
	owner, _ := ParseBech32Account(account(1))
	member, ok, err := manager.CollectionOf(nft)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, collection, member)

	decimals, err := ledger.AssetDecimals(nftstaking.NFTAsset(nft))
	require.NoError(t, err)
	require.Zero(t, decimals)
	held, err := ledger.BalanceOf(owner, nftstaking.NFTAsset(nft))
	require.NoError(t, err)
	require.Equal(t, uint64(1), held)

	members, err := manager.CollectionMembers(collection)
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestLoadGenesisSpecJSON(t *testing.T) {
	body := fmt.Sprintf(`{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"RWD","name":"Reward","decimals":2}],"alloc":{%q:{"RWD":"5"}}}`, account(3))
	spec, err := LoadGenesisSpec(writeSpec(t, "genesis.json", body))
	require.NoError(t, err)
	require.Len(t, spec.Assets, 1)
}

func TestLoadGenesisSpecRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `{"genesisTime":"2024-01-01T00:00:00Z","bogus":1}`,
		"missing time":   `{"assets":[]}`,
		"bad decimals":   `{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"RWD","name":"R","decimals":19}]}`,
		"duplicate":      `{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"RWD","name":"R"},{"symbol":"rwd","name":"R"}]}`,
		"undefined":      fmt.Sprintf(`{"genesisTime":"2024-01-01T00:00:00Z","alloc":{%q:{"RWD":"5"}}}`, account(1)),
		"wrong hrp":      fmt.Sprintf(`{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"RWD","name":"R"}],"alloc":{%q:{"RWD":"5"}}}`, asset(1)),
		"bad amount":     fmt.Sprintf(`{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"RWD","name":"R"}],"alloc":{%q:{"RWD":"-5"}}}`, account(1)),
		"reserved":       `{"genesisTime":"2024-01-01T00:00:00Z","assets":[{"symbol":"nft1abc","name":"R"}]}`,
		"nft collision":  fmt.Sprintf(`{"genesisTime":"2024-01-01T00:00:00Z","collections":[{"id":%q,"name":"A","nfts":[{"id":%q,"owner":%q}]}]}`, asset(1), asset(1), account(1)),
		"unnamed module": `{"genesisTime":"2024-01-01T00:00:00Z","paused":[" "]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadGenesisSpec(writeSpec(t, "genesis.json", body))
			require.Error(t, err)
		})
	}
}

func TestLoadGenesisSpecYAMLUnknownField(t *testing.T) {
	_, err := LoadGenesisSpec(writeSpec(t, "genesis.yml", "genesisTime: \"2024-01-01T00:00:00Z\"\nextra: 1\n"))
	require.Error(t, err)
}

func TestComposeSampleGenesisLoads(t *testing.T) {
	spec, err := LoadGenesisSpec(filepath.Join("..", "..", "deploy", "compose", "genesis.yaml"))
	require.NoError(t, err)
	require.Len(t, spec.Collections, 1)
	require.Len(t, spec.Collections[0].NFTs, 2)
}
