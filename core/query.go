package core

import (
	"fmt"

	nhbstate "nftstaking/core/state"
	"nftstaking/native/bank"
	"nftstaking/native/nftstaking"
)

func (n *Node) view(fn func(s *txScope) error) error {
	return n.executor.View(func(kv nhbstate.KV) error {
		return fn(n.newScope(kv, nil))
	})
}

// Config returns the pool identified by id.
func (n *Node) Config(id [20]byte) (*nftstaking.Config, error) {
	var out *nftstaking.Config
	err := n.view(func(s *txScope) error {
		cfg, ok, err := s.manager.NFTStakingConfigGet(id)
		if err != nil {
			return err
		}
		if !ok {
			return nftstaking.ErrConfigNotFound
		}
		out = cfg
		return nil
	})
	return out, err
}

// Configs lists every pool ever opened, closed ones included.
func (n *Node) Configs() ([]*nftstaking.Config, error) {
	var out []*nftstaking.Config
	err := n.view(func(s *txScope) error {
		ids, err := s.manager.NFTStakingConfigList()
		if err != nil {
			return err
		}
		out = make([]*nftstaking.Config, 0, len(ids))
		for _, id := range ids {
			cfg, ok, err := s.manager.NFTStakingConfigGet(id)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, cfg)
			}
		}
		return nil
	})
	return out, err
}

// Position returns the open position of nft in config.
func (n *Node) Position(config, nft [20]byte) (*nftstaking.Position, error) {
	var out *nftstaking.Position
	err := n.view(func(s *txScope) error {
		pos, ok, err := s.manager.NFTStakingPositionGet(config, nft)
		if err != nil {
			return err
		}
		if !ok {
			return nftstaking.ErrPositionNotFound
		}
		out = pos
		return nil
	})
	return out, err
}

// Positions lists the open positions of config ordered by NFT id.
func (n *Node) Positions(config [20]byte) ([]*nftstaking.Position, error) {
	var out []*nftstaking.Position
	err := n.view(func(s *txScope) error {
		if _, ok, err := s.manager.NFTStakingConfigGet(config); err != nil {
			return err
		} else if !ok {
			return nftstaking.ErrConfigNotFound
		}
		positions, err := s.manager.NFTStakingPositionList(config)
		out = positions
		return err
	})
	return out, err
}

// PendingReward reports whether the position is eligible now and the reward
// a claim would pay.
func (n *Node) PendingReward(config, nft [20]byte) (bool, uint64, error) {
	var (
		eligible bool
		reward   uint64
	)
	err := n.view(func(s *txScope) error {
		var err error
		eligible, reward, err = s.engine.PendingReward(config, nft)
		return err
	})
	return eligible, reward, err
}

// AuditRecords returns the reconfiguration history of config, oldest first.
func (n *Node) AuditRecords(config [20]byte) ([]*nftstaking.AuditRecord, error) {
	var out []*nftstaking.AuditRecord
	err := n.view(func(s *txScope) error {
		cfg, ok, err := s.manager.NFTStakingConfigGet(config)
		if err != nil {
			return err
		}
		if !ok {
			return nftstaking.ErrConfigNotFound
		}
		records, err := s.manager.NFTStakingAuditRecords(config, cfg.ReconfigureCount)
		out = records
		return err
	})
	return out, err
}

// Audit checks the conservation invariants of config against its vault.
func (n *Node) Audit(config [20]byte) error {
	return n.view(func(s *txScope) error {
		return s.engine.Audit(config)
	})
}

// Balance returns the balance of addr in asset.
func (n *Node) Balance(addr [20]byte, asset string) (uint64, error) {
	var out uint64
	err := n.view(func(s *txScope) error {
		bal, err := bank.NewLedger(s.manager).BalanceOf(addr, asset)
		out = bal
		return err
	})
	return out, err
}

// Nonce returns the next operation nonce of addr.
func (n *Node) Nonce(addr [20]byte) (uint64, error) {
	var out uint64
	err := n.view(func(s *txScope) error {
		nonce, err := s.manager.AccountNonce(addr)
		out = nonce
		return err
	})
	return out, err
}

// Collection returns a registered NFT collection.
func (n *Node) Collection(id [20]byte) (*nhbstate.Collection, error) {
	var out *nhbstate.Collection
	err := n.view(func(s *txScope) error {
		c, ok, err := s.manager.Collection(id)
		if err != nil {
			return err
		}
		if !ok {
			return nftstaking.ErrCollectionNotFound
		}
		out = c
		return nil
	})
	return out, err
}

// AssetInfo is a registered asset with its issued supply.
type AssetInfo struct {
	nhbstate.TokenMetadata
	Supply uint64
}

// Asset returns the metadata and issued supply of a registered asset.
func (n *Node) Asset(symbol string) (*AssetInfo, error) {
	var out *AssetInfo
	err := n.view(func(s *txScope) error {
		meta, err := s.manager.Token(symbol)
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("%w: %s", bank.ErrUnknownAsset, symbol)
		}
		supply, err := s.ledger.Supply(meta.Symbol)
		if err != nil {
			return err
		}
		out = &AssetInfo{TokenMetadata: *meta, Supply: supply}
		return nil
	})
	return out, err
}
