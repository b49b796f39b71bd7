package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GenesisSpec seeds an empty ledger with assets, NFT collections and balances.
type GenesisSpec struct {
	GenesisTime string                       `json:"genesisTime" yaml:"genesisTime"`
	Assets      []AssetSpec                  `json:"assets" yaml:"assets"`
	Collections []CollectionSpec             `json:"collections" yaml:"collections"`
	Alloc       map[string]map[string]string `json:"alloc" yaml:"alloc"` // addr -> asset -> amount
	Paused      []string                     `json:"paused,omitempty" yaml:"paused,omitempty"`

	genesisTimestamp time.Time
}

type AssetSpec struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name" yaml:"name"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

type CollectionSpec struct {
	ID   string    `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
	NFTs []NFTSpec `json:"nfts" yaml:"nfts"`
}

type NFTSpec struct {
	ID    string `json:"id" yaml:"id"`
	Owner string `json:"owner" yaml:"owner"`
}

// LoadGenesisSpec reads a YAML (.yaml, .yml) or JSON genesis file. Unknown
// fields are rejected in both formats.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid genesisTime: %w", err)
	}
	return ts.UTC(), nil
}

func parseAmount(value string) (uint64, error) {
	amount, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}

func (a *AssetSpec) validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("symbol must be provided")
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Symbol)), "nft1") {
		return fmt.Errorf("symbol %q is reserved for NFTs", a.Symbol)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name must be provided")
	}
	if a.Decimals > 18 {
		return fmt.Errorf("decimals must be <= 18")
	}
	return nil
}

// Validate checks the spec and caches the parsed genesis time.
func (s *GenesisSpec) Validate() error {
	parsedTime, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = parsedTime

	symbols := make(map[string]struct{}, len(s.Assets))
	for i := range s.Assets {
		if err := s.Assets[i].validate(); err != nil {
			return fmt.Errorf("asset[%d]: %w", i, err)
		}
		key := strings.ToUpper(strings.TrimSpace(s.Assets[i].Symbol))
		if _, exists := symbols[key]; exists {
			return fmt.Errorf("asset[%d]: duplicate symbol %q", i, s.Assets[i].Symbol)
		}
		symbols[key] = struct{}{}
	}

	collections := make(map[[20]byte]struct{}, len(s.Collections))
	nfts := make(map[[20]byte]struct{})
	for i := range s.Collections {
		c := &s.Collections[i]
		id, err := ParseBech32Asset(c.ID)
		if err != nil {
			return fmt.Errorf("collection[%d]: %w", i, err)
		}
		if _, dup := collections[id]; dup {
			return fmt.Errorf("collection[%d]: duplicate id %q", i, c.ID)
		}
		collections[id] = struct{}{}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("collection[%d]: name must be provided", i)
		}
		for j, nft := range c.NFTs {
			nftID, err := ParseBech32Asset(nft.ID)
			if err != nil {
				return fmt.Errorf("collection[%d].nft[%d]: %w", i, j, err)
			}
			if _, dup := nfts[nftID]; dup {
				return fmt.Errorf("collection[%d].nft[%d]: duplicate id %q", i, j, nft.ID)
			}
			if _, clash := collections[nftID]; clash {
				return fmt.Errorf("collection[%d].nft[%d]: id reused as collection", i, j)
			}
			nfts[nftID] = struct{}{}
			if _, err := ParseBech32Account(nft.Owner); err != nil {
				return fmt.Errorf("collection[%d].nft[%d] owner: %w", i, j, err)
			}
		}
	}

	accounts := make([]string, 0, len(s.Alloc))
	for account := range s.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		if _, err := ParseBech32Account(account); err != nil {
			return fmt.Errorf("alloc[%q]: %w", account, err)
		}
		for symbol, amount := range s.Alloc[account] {
			if _, err := parseAmount(amount); err != nil {
				return fmt.Errorf("alloc[%q][%q]: %w", account, symbol, err)
			}
			if _, exists := symbols[strings.ToUpper(strings.TrimSpace(symbol))]; !exists {
				return fmt.Errorf("alloc[%q][%q]: undefined asset", account, symbol)
			}
		}
	}

	for i, module := range s.Paused {
		if strings.TrimSpace(module) == "" {
			return fmt.Errorf("paused[%d]: module name must be provided", i)
		}
	}
	return nil
}
