package nftstaking

import "strings"

// ModuleName identifies the staking program. Every derived address of the
// module is computed under this name.
const ModuleName = "nftstaking"

// Seeds used to derive the module's keyless addresses.
const (
	configSeed               = "staking_cfg"
	rewardVaultAuthoritySeed = "reward_vault_authority"
	nftVaultAuthoritySeed    = "nft_vault_authority"
)

// Config is the per pool record. Together with the open positions it owns the
// conservation invariant: TotalSnapshotSum equals the sum of the entry
// snapshots of every position locked under the configuration.
type Config struct {
	ID             [20]byte
	Admin          [20]byte
	Collection     [20]byte
	RewardAsset    string
	RewardDecimals uint8
	// RewardVault holds the funded reward tokens. Only the engine can sign
	// for it.
	RewardVault [20]byte
	// NFTVault custodies locked NFTs.
	NFTVault [20]byte

	Active                bool
	RatePerSecond         uint64
	RateSetAt             int64
	AccumulatorCheckpoint uint64
	HorizonStart          int64
	HorizonEnd            int64
	MinimumEligiblePeriod int64
	MaxCapacity           uint64
	LockedCount           uint64
	TotalSnapshotSum      uint64
	ReconfigureCount      uint32
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Position records a single locked NFT.
type Position struct {
	Config        [20]byte
	Owner         [20]byte
	NFT           [20]byte
	LockedAt      int64
	LastClaimAt   int64
	EntrySnapshot uint64
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// AuditRecord is the append-only trace of a reconfiguration. It keeps the
// superseded rate, the instant that rate took effect and the instant it was
// replaced. Accrual never reads it back.
type AuditRecord struct {
	Config       [20]byte
	OrderID      uint32
	Rate         uint64
	RateSetAt    int64
	SupersededAt int64
}

// Clone returns a deep copy of the record.
func (r *AuditRecord) Clone() *AuditRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// OpenParams describes a new staking pool.
type OpenParams struct {
	Collection            [20]byte
	RewardAsset           string
	RatePerSecond         uint64
	HorizonStart          int64
	HorizonEnd            int64
	MinimumEligiblePeriod int64
	MaxCapacity           uint64
}

// ReconfigureParams carries the optional changes of a reconfiguration. A nil
// field keeps the current value.
type ReconfigureParams struct {
	RatePerSecond *uint64
	HorizonEnd    *int64
}

// ReconfigureResult reports the outcome of a reconfiguration.
type ReconfigureResult struct {
	Record *AuditRecord
	// TopUp is the scaled amount moved from the admin into the reward vault.
	TopUp uint64
}

// UnlockResult reports the outcome of an unlock.
type UnlockResult struct {
	Eligible bool
	Reward   uint64
	Scaled   uint64
}

// NormalizeAsset canonicalises a reward asset symbol the way the token
// registry stores it.
func NormalizeAsset(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
