package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"nftstaking/native/nftstaking"
)

func stakingConfigKey(id [20]byte) []byte {
	return hashedKey(stakingConfigPrefix, id[:])
}

func stakingPositionKey(config, nft [20]byte) []byte {
	return hashedKey(stakingPositionPrefix, config[:], nft[:])
}

func stakingIndexKey(config [20]byte) []byte {
	return hashedKey(stakingIndexPrefix, config[:])
}

func stakingAuditKey(config [20]byte, order uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], order)
	return hashedKey(stakingAuditPrefix, config[:], buf[:])
}

// RLP has no signed integers; timestamps are stored as their two's
// complement bit pattern.
type storedStakingConfig struct {
	ID                    [20]byte
	Admin                 [20]byte
	Collection            [20]byte
	RewardAsset           string
	RewardDecimals        uint8
	RewardVault           [20]byte
	NFTVault              [20]byte
	Active                bool
	RatePerSecond         uint64
	RateSetAt             uint64
	AccumulatorCheckpoint uint64
	HorizonStart          uint64
	HorizonEnd            uint64
	MinimumEligiblePeriod uint64
	MaxCapacity           uint64
	LockedCount           uint64
	TotalSnapshotSum      uint64
	ReconfigureCount      uint32
}

func newStoredStakingConfig(cfg *nftstaking.Config) *storedStakingConfig {
	return &storedStakingConfig{
		ID:                    cfg.ID,
		Admin:                 cfg.Admin,
		Collection:            cfg.Collection,
		RewardAsset:           cfg.RewardAsset,
		RewardDecimals:        cfg.RewardDecimals,
		RewardVault:           cfg.RewardVault,
		NFTVault:              cfg.NFTVault,
		Active:                cfg.Active,
		RatePerSecond:         cfg.RatePerSecond,
		RateSetAt:             uint64(cfg.RateSetAt),
		AccumulatorCheckpoint: cfg.AccumulatorCheckpoint,
		HorizonStart:          uint64(cfg.HorizonStart),
		HorizonEnd:            uint64(cfg.HorizonEnd),
		MinimumEligiblePeriod: uint64(cfg.MinimumEligiblePeriod),
		MaxCapacity:           cfg.MaxCapacity,
		LockedCount:           cfg.LockedCount,
		TotalSnapshotSum:      cfg.TotalSnapshotSum,
		ReconfigureCount:      cfg.ReconfigureCount,
	}
}

func (s *storedStakingConfig) toConfig() *nftstaking.Config {
	return &nftstaking.Config{
		ID:                    s.ID,
		Admin:                 s.Admin,
		Collection:            s.Collection,
		RewardAsset:           s.RewardAsset,
		RewardDecimals:        s.RewardDecimals,
		RewardVault:           s.RewardVault,
		NFTVault:              s.NFTVault,
		Active:                s.Active,
		RatePerSecond:         s.RatePerSecond,
		RateSetAt:             int64(s.RateSetAt),
		AccumulatorCheckpoint: s.AccumulatorCheckpoint,
		HorizonStart:          int64(s.HorizonStart),
		HorizonEnd:            int64(s.HorizonEnd),
		MinimumEligiblePeriod: int64(s.MinimumEligiblePeriod),
		MaxCapacity:           s.MaxCapacity,
		LockedCount:           s.LockedCount,
		TotalSnapshotSum:      s.TotalSnapshotSum,
		ReconfigureCount:      s.ReconfigureCount,
	}
}

type storedStakingPosition struct {
	Config        [20]byte
	Owner         [20]byte
	NFT           [20]byte
	LockedAt      uint64
	LastClaimAt   uint64
	EntrySnapshot uint64
}

type storedAuditRecord struct {
	Config       [20]byte
	OrderID      uint32
	Rate         uint64
	RateSetAt    uint64
	SupersededAt uint64
}

// NFTStakingConfigGet loads a staking configuration.
func (m *Manager) NFTStakingConfigGet(id [20]byte) (*nftstaking.Config, bool, error) {
	stored := new(storedStakingConfig)
	ok, err := m.getRLP(stakingConfigKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toConfig(), true, nil
}

// NFTStakingConfigPut stores a staking configuration, indexing it on first
// write.
func (m *Manager) NFTStakingConfigPut(cfg *nftstaking.Config) error {
	if cfg == nil {
		return fmt.Errorf("nftstaking: nil config")
	}
	key := stakingConfigKey(cfg.ID)
	existing, err := m.kv.Get(key)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		ids, err := m.NFTStakingConfigList()
		if err != nil {
			return err
		}
		ids = append(ids, cfg.ID)
		if err := m.putRLP(stakingConfigListKey, ids); err != nil {
			return err
		}
	}
	return m.putRLP(key, newStoredStakingConfig(cfg))
}

// NFTStakingConfigList returns the identifiers of every pool ever opened.
func (m *Manager) NFTStakingConfigList() ([][20]byte, error) {
	var ids [][20]byte
	if _, err := m.getRLP(stakingConfigListKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NFTStakingPositionGet loads the position of nft under config.
func (m *Manager) NFTStakingPositionGet(config, nft [20]byte) (*nftstaking.Position, bool, error) {
	stored := new(storedStakingPosition)
	ok, err := m.getRLP(stakingPositionKey(config, nft), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &nftstaking.Position{
		Config:        stored.Config,
		Owner:         stored.Owner,
		NFT:           stored.NFT,
		LockedAt:      int64(stored.LockedAt),
		LastClaimAt:   int64(stored.LastClaimAt),
		EntrySnapshot: stored.EntrySnapshot,
	}, true, nil
}

// NFTStakingPositionPut stores a position and adds it to the pool index.
func (m *Manager) NFTStakingPositionPut(pos *nftstaking.Position) error {
	if pos == nil {
		return fmt.Errorf("nftstaking: nil position")
	}
	index, err := m.loadPositionIndex(pos.Config)
	if err != nil {
		return err
	}
	i := sort.Search(len(index), func(i int) bool { return bytes.Compare(index[i][:], pos.NFT[:]) >= 0 })
	if i == len(index) || index[i] != pos.NFT {
		index = append(index, [20]byte{})
		copy(index[i+1:], index[i:])
		index[i] = pos.NFT
		if err := m.putRLP(stakingIndexKey(pos.Config), index); err != nil {
			return err
		}
	}
	return m.putRLP(stakingPositionKey(pos.Config, pos.NFT), &storedStakingPosition{
		Config:        pos.Config,
		Owner:         pos.Owner,
		NFT:           pos.NFT,
		LockedAt:      uint64(pos.LockedAt),
		LastClaimAt:   uint64(pos.LastClaimAt),
		EntrySnapshot: pos.EntrySnapshot,
	})
}

// NFTStakingPositionDelete removes a position and its index entry.
func (m *Manager) NFTStakingPositionDelete(config, nft [20]byte) error {
	index, err := m.loadPositionIndex(config)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i] == nft {
			index = append(index[:i], index[i+1:]...)
			if len(index) == 0 {
				if err := m.kv.Delete(stakingIndexKey(config)); err != nil {
					return err
				}
			} else if err := m.putRLP(stakingIndexKey(config), index); err != nil {
				return err
			}
			break
		}
	}
	return m.kv.Delete(stakingPositionKey(config, nft))
}

// NFTStakingPositionList returns every open position of config ordered by
// NFT identifier.
func (m *Manager) NFTStakingPositionList(config [20]byte) ([]*nftstaking.Position, error) {
	index, err := m.loadPositionIndex(config)
	if err != nil {
		return nil, err
	}
	out := make([]*nftstaking.Position, 0, len(index))
	for _, nft := range index {
		pos, ok, err := m.NFTStakingPositionGet(config, nft)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("nftstaking: index lists missing position %x", nft)
		}
		out = append(out, pos)
	}
	return out, nil
}

func (m *Manager) loadPositionIndex(config [20]byte) ([][20]byte, error) {
	var index [][20]byte
	if _, err := m.getRLP(stakingIndexKey(config), &index); err != nil {
		return nil, err
	}
	return index, nil
}

// NFTStakingAuditRecordPut appends a reconfiguration record. Records are
// immutable once written.
func (m *Manager) NFTStakingAuditRecordPut(rec *nftstaking.AuditRecord) error {
	if rec == nil {
		return fmt.Errorf("nftstaking: nil audit record")
	}
	key := stakingAuditKey(rec.Config, rec.OrderID)
	existing, err := m.kv.Get(key)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("nftstaking: audit record %d already written", rec.OrderID)
	}
	return m.putRLP(key, &storedAuditRecord{
		Config:       rec.Config,
		OrderID:      rec.OrderID,
		Rate:         rec.Rate,
		RateSetAt:    uint64(rec.RateSetAt),
		SupersededAt: uint64(rec.SupersededAt),
	})
}

// NFTStakingAuditRecordGet loads the record with the given order id.
func (m *Manager) NFTStakingAuditRecordGet(config [20]byte, order uint32) (*nftstaking.AuditRecord, bool, error) {
	stored := new(storedAuditRecord)
	ok, err := m.getRLP(stakingAuditKey(config, order), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &nftstaking.AuditRecord{
		Config:       stored.Config,
		OrderID:      stored.OrderID,
		Rate:         stored.Rate,
		RateSetAt:    int64(stored.RateSetAt),
		SupersededAt: int64(stored.SupersededAt),
	}, true, nil
}

// NFTStakingAuditRecords returns the first count records of config in order.
func (m *Manager) NFTStakingAuditRecords(config [20]byte, count uint32) ([]*nftstaking.AuditRecord, error) {
	out := make([]*nftstaking.AuditRecord, 0, count)
	for order := uint32(1); order <= count && order != 0; order++ {
		rec, ok, err := m.NFTStakingAuditRecordGet(config, order)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("nftstaking: audit record %d missing", order)
		}
		out = append(out, rec)
	}
	return out, nil
}
