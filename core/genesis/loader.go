package genesis

import (
	"fmt"
	"sort"
	"strings"

	"nftstaking/core/state"
	"nftstaking/native/bank"
	"nftstaking/native/nftstaking"
)

// Apply writes the genesis contents through manager and ledger. Entries are
// applied in a deterministic order so every node derives the same state.
func Apply(spec *GenesisSpec, manager *state.Manager, ledger *bank.Ledger) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil || ledger == nil {
		return fmt.Errorf("state manager and ledger must not be nil")
	}

	// 1) Assets (sorted)
	assets := append([]AssetSpec(nil), spec.Assets...)
	sort.Slice(assets, func(i, j int) bool {
		return strings.ToUpper(assets[i].Symbol) < strings.ToUpper(assets[j].Symbol)
	})
	for _, asset := range assets {
		if err := manager.RegisterToken(asset.Symbol, asset.Name, asset.Decimals); err != nil {
			return fmt.Errorf("register asset %q: %w", asset.Symbol, err)
		}
	}

	// 2) Collections and their NFTs, in file order
	for _, c := range spec.Collections {
		id, err := ParseBech32Asset(c.ID)
		if err != nil {
			return err
		}
		if err := manager.RegisterCollection(id, c.Name); err != nil {
			return fmt.Errorf("register collection %q: %w", c.ID, err)
		}
		for i, nft := range c.NFTs {
			nftID, err := ParseBech32Asset(nft.ID)
			if err != nil {
				return err
			}
			owner, err := ParseBech32Account(nft.Owner)
			if err != nil {
				return err
			}
			asset := nftstaking.NFTAsset(nftID)
			if err := manager.RegisterToken(asset, fmt.Sprintf("%s #%d", c.Name, i+1), 0); err != nil {
				return fmt.Errorf("register nft %q: %w", nft.ID, err)
			}
			if err := manager.AddCollectionMember(id, nftID); err != nil {
				return err
			}
			if err := ledger.Mint(owner, asset, 1); err != nil {
				return fmt.Errorf("mint nft %q: %w", nft.ID, err)
			}
		}
	}

	// 3) Allocations (outer: addresses sorted; inner: symbols sorted)
	accounts := make([]string, 0, len(spec.Alloc))
	for account := range spec.Alloc {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		addr, err := ParseBech32Account(account)
		if err != nil {
			return err
		}
		symbols := make([]string, 0, len(spec.Alloc[account]))
		for symbol := range spec.Alloc[account] {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			amount, err := parseAmount(spec.Alloc[account][symbol])
			if err != nil {
				return err
			}
			if err := ledger.Mint(addr, symbol, amount); err != nil {
				return fmt.Errorf("alloc[%q][%q]: %w", account, symbol, err)
			}
		}
	}
	return nil
}
