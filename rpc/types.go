package rpc

import (
	"nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/indexer"
	"nftstaking/native/nftstaking"
)

// Signed carries the credential of a state-changing request.
type Signed struct {
	Signer    string `json:"signer"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

type OpenRequest struct {
	Signed
	Collection            string `json:"collection"`
	RewardAsset           string `json:"rewardAsset"`
	RatePerSecond         uint64 `json:"ratePerSecond"`
	HorizonStart          int64  `json:"horizonStart"`
	HorizonEnd            int64  `json:"horizonEnd"`
	MinimumEligiblePeriod int64  `json:"minimumEligiblePeriod"`
	MaxCapacity           uint64 `json:"maxCapacity"`
}

// PositionRequest is the body of lock, claim and unlock.
type PositionRequest struct {
	Signed
	NFT string `json:"nft"`
}

type ReconfigureRequest struct {
	Signed
	RatePerSecond *uint64 `json:"ratePerSecond,omitempty"`
	HorizonEnd    *int64  `json:"horizonEnd,omitempty"`
}

type CloseRequest struct {
	Signed
}

type ConfigView struct {
	ID                    string `json:"id"`
	Admin                 string `json:"admin"`
	Collection            string `json:"collection"`
	RewardAsset           string `json:"rewardAsset"`
	RewardDecimals        uint8  `json:"rewardDecimals"`
	RewardVault           string `json:"rewardVault"`
	NFTVault              string `json:"nftVault"`
	Active                bool   `json:"active"`
	RatePerSecond         uint64 `json:"ratePerSecond"`
	RateSetAt             int64  `json:"rateSetAt"`
	AccumulatorCheckpoint uint64 `json:"accumulatorCheckpoint"`
	HorizonStart          int64  `json:"horizonStart"`
	HorizonEnd            int64  `json:"horizonEnd"`
	MinimumEligiblePeriod int64  `json:"minimumEligiblePeriod"`
	MaxCapacity           uint64 `json:"maxCapacity"`
	LockedCount           uint64 `json:"lockedCount"`
	TotalSnapshotSum      uint64 `json:"totalSnapshotSum"`
	ReconfigureCount      uint32 `json:"reconfigureCount"`
}

type PositionView struct {
	Config        string `json:"config"`
	Owner         string `json:"owner"`
	NFT           string `json:"nft"`
	LockedAt      int64  `json:"lockedAt"`
	LastClaimAt   int64  `json:"lastClaimAt"`
	EntrySnapshot uint64 `json:"entrySnapshot"`
}

type AuditRecordView struct {
	OrderID      uint32 `json:"orderId"`
	Rate         uint64 `json:"rate"`
	RateSetAt    int64  `json:"rateSetAt"`
	SupersededAt int64  `json:"supersededAt"`
}

type PendingView struct {
	Eligible bool   `json:"eligible"`
	Reward   uint64 `json:"reward"`
}

type ClaimView struct {
	Reward uint64 `json:"reward"`
}

type UnlockView struct {
	Eligible bool   `json:"eligible"`
	Reward   uint64 `json:"reward"`
	Scaled   uint64 `json:"scaled"`
}

type ReconfigureView struct {
	Record AuditRecordView `json:"record"`
	TopUp  uint64          `json:"topUp"`
}

type CloseView struct {
	Refunded uint64 `json:"refunded"`
}

type AccountView struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

type BalanceView struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Balance uint64 `json:"balance"`
}

type AssetView struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Supply   uint64 `json:"supply"`
}

type CollectionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type HistoryEntry struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Digest     string            `json:"digest"`
	IndexedAt  int64             `json:"indexedAt"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func accountString(addr [20]byte) string {
	return crypto.FromArray(crypto.AccountPrefix, addr).String()
}

func assetString(addr [20]byte) string {
	return crypto.FromArray(crypto.AssetPrefix, addr).String()
}

func configView(cfg *nftstaking.Config) ConfigView {
	return ConfigView{
		ID:                    accountString(cfg.ID),
		Admin:                 accountString(cfg.Admin),
		Collection:            assetString(cfg.Collection),
		RewardAsset:           cfg.RewardAsset,
		RewardDecimals:        cfg.RewardDecimals,
		RewardVault:           accountString(cfg.RewardVault),
		NFTVault:              accountString(cfg.NFTVault),
		Active:                cfg.Active,
		RatePerSecond:         cfg.RatePerSecond,
		RateSetAt:             cfg.RateSetAt,
		AccumulatorCheckpoint: cfg.AccumulatorCheckpoint,
		HorizonStart:          cfg.HorizonStart,
		HorizonEnd:            cfg.HorizonEnd,
		MinimumEligiblePeriod: cfg.MinimumEligiblePeriod,
		MaxCapacity:           cfg.MaxCapacity,
		LockedCount:           cfg.LockedCount,
		TotalSnapshotSum:      cfg.TotalSnapshotSum,
		ReconfigureCount:      cfg.ReconfigureCount,
	}
}

func positionView(pos *nftstaking.Position) PositionView {
	return PositionView{
		Config:        accountString(pos.Config),
		Owner:         accountString(pos.Owner),
		NFT:           assetString(pos.NFT),
		LockedAt:      pos.LockedAt,
		LastClaimAt:   pos.LastClaimAt,
		EntrySnapshot: pos.EntrySnapshot,
	}
}

func auditView(rec *nftstaking.AuditRecord) AuditRecordView {
	return AuditRecordView{
		OrderID:      rec.OrderID,
		Rate:         rec.Rate,
		RateSetAt:    rec.RateSetAt,
		SupersededAt: rec.SupersededAt,
	}
}

func collectionView(c *state.Collection) CollectionView {
	return CollectionView{ID: assetString(c.ID), Name: c.Name}
}

func historyEntry(rec indexer.EventRecord) (HistoryEntry, error) {
	attrs, err := rec.Decode()
	if err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{
		Sequence:   rec.Sequence,
		Type:       rec.Type,
		Attributes: attrs,
		Digest:     rec.Digest,
		IndexedAt:  rec.CreatedAt.Unix(),
	}, nil
}
