package nftstaking

import (
	"errors"
	"fmt"
	"math"
	"time"

	"nftstaking/core/auth"
	"nftstaking/core/events"
	"nftstaking/crypto"
	nativecommon "nftstaking/native/common"
)

type engineState interface {
	NFTStakingConfigGet(id [20]byte) (*Config, bool, error)
	NFTStakingConfigPut(cfg *Config) error
	NFTStakingPositionGet(config, nft [20]byte) (*Position, bool, error)
	NFTStakingPositionPut(pos *Position) error
	NFTStakingPositionDelete(config, nft [20]byte) error
	NFTStakingPositionList(config [20]byte) ([]*Position, error)
	NFTStakingAuditRecordPut(rec *AuditRecord) error
	CollectionExists(id [20]byte) (bool, error)
	CollectionOf(nft [20]byte) ([20]byte, bool, error)
}

// TokenLedger moves fungible rewards and NFTs between accounts. Transfers out
// of a vault must be authorised by the vault's program authority.
type TokenLedger interface {
	Transfer(from, to [20]byte, authority auth.Signer, asset string, amount uint64, decimals uint8) error
	BalanceOf(addr [20]byte, asset string) (uint64, error)
	AssetDecimals(asset string) (uint8, error)
}

// Engine applies the staking lifecycle on top of the configured state and
// token ledger.
type Engine struct {
	state   engineState
	bank    TokenLedger
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
	program *auth.Program
}

// program is the only capability able to sign for pool vaults. It is
// claimed at init so no other package can claim ModuleName.
var program = mustClaimProgram()

func mustClaimProgram() *auth.Program {
	p, err := auth.NewProgram(ModuleName)
	if err != nil {
		panic(err)
	}
	return p
}

// NewEngine constructs a staking engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		program: program,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetBank configures the token ledger used for transfers.
func (e *Engine) SetBank(bank TokenLedger) { e.bank = bank }

// SetPauses wires the module pause switch.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.bank == nil {
		return ErrNilBank
	}
	return nil
}

// ConfigID derives the identifier of the pool administered by admin over
// collection.
func ConfigID(collection, admin [20]byte) [20]byte {
	return auth.DeriveProgramAddress(ModuleName, []byte(configSeed), collection[:], admin[:])
}

// RewardVaultAddress derives the reward vault of a pool.
func RewardVaultAddress(config [20]byte) [20]byte {
	return auth.DeriveProgramAddress(ModuleName, []byte(rewardVaultAuthoritySeed), config[:])
}

// NFTVaultAddress derives the NFT custody vault of a pool.
func NFTVaultAddress(config [20]byte) [20]byte {
	return auth.DeriveProgramAddress(ModuleName, []byte(nftVaultAuthoritySeed), config[:])
}

// NFTAsset names the ledger asset representing a single NFT.
func NFTAsset(nft [20]byte) string {
	return crypto.FromArray(crypto.AssetPrefix, nft).String()
}

func (e *Engine) rewardAuthority(config [20]byte) auth.ProgramAuthority {
	return e.program.Authority([]byte(rewardVaultAuthoritySeed), config[:])
}

func (e *Engine) nftAuthority(config [20]byte) auth.ProgramAuthority {
	return e.program.Authority([]byte(nftVaultAuthoritySeed), config[:])
}

func (e *Engine) loadConfig(id [20]byte) (*Config, error) {
	cfg, ok, err := e.state.NFTStakingConfigGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

func (e *Engine) loadOwnedPosition(caller auth.Caller, config, nft [20]byte) (*Config, *Position, error) {
	cfg, err := e.loadConfig(config)
	if err != nil {
		return nil, nil, err
	}
	pos, ok, err := e.state.NFTStakingPositionGet(config, nft)
	if err != nil {
		return nil, nil, err
	}
	if !ok || pos == nil {
		return nil, nil, ErrPositionNotFound
	}
	if pos.Owner != caller.Address() {
		return nil, nil, ErrNotPositionOwner
	}
	return cfg, pos, nil
}

// Open creates and funds a new staking pool administered by admin.
func (e *Engine) Open(admin auth.Caller, params OpenParams) (*Config, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	now := e.now()
	asset := NormalizeAsset(params.RewardAsset)
	if asset == "" {
		return nil, ErrInvalidRewardAsset
	}
	if params.HorizonStart < 0 || params.HorizonEnd <= params.HorizonStart || params.HorizonEnd <= now {
		return nil, ErrInvalidHorizon
	}
	if params.MinimumEligiblePeriod < 0 {
		return nil, ErrInvalidMinPeriod
	}
	eligibleFrom, err := addSeconds(params.HorizonStart, params.MinimumEligiblePeriod)
	if err != nil {
		return nil, err
	}
	if eligibleFrom > params.HorizonEnd {
		return nil, ErrInvalidMinPeriod
	}
	if params.MaxCapacity == 0 {
		return nil, ErrInvalidCapacity
	}
	if params.RatePerSecond == 0 {
		return nil, ErrInvalidRate
	}
	exists, err := e.state.CollectionExists(params.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCollectionNotFound
	}
	decimals, err := e.bank.AssetDecimals(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRewardAsset, err)
	}

	id := ConfigID(params.Collection, admin.Address())
	if _, ok, err := e.state.NFTStakingConfigGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrConfigExists
	}

	emission, err := TotalEmission(params.RatePerSecond, params.HorizonStart, params.HorizonEnd, params.MaxCapacity)
	if err != nil {
		return nil, err
	}
	funding, err := Scale(emission, decimals)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ID:                    id,
		Admin:                 admin.Address(),
		Collection:            params.Collection,
		RewardAsset:           asset,
		RewardDecimals:        decimals,
		RewardVault:           RewardVaultAddress(id),
		NFTVault:              NFTVaultAddress(id),
		Active:                true,
		RatePerSecond:         params.RatePerSecond,
		RateSetAt:             now,
		HorizonStart:          params.HorizonStart,
		HorizonEnd:            params.HorizonEnd,
		MinimumEligiblePeriod: params.MinimumEligiblePeriod,
		MaxCapacity:           params.MaxCapacity,
	}
	if err := e.bank.Transfer(cfg.Admin, cfg.RewardVault, admin, asset, funding, decimals); err != nil {
		return nil, err
	}
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(events.StakingOpened{
		Config:       cfg.ID,
		Admin:        cfg.Admin,
		Collection:   cfg.Collection,
		RewardAsset:  cfg.RewardAsset,
		Rate:         cfg.RatePerSecond,
		HorizonStart: cfg.HorizonStart,
		HorizonEnd:   cfg.HorizonEnd,
		MinPeriod:    cfg.MinimumEligiblePeriod,
		Capacity:     cfg.MaxCapacity,
		Funded:       funding,
	})
	return cfg.Clone(), nil
}

// Lock moves nft from the staker into the pool vault and opens a position
// snapshotted at the current accumulator value.
func (e *Engine) Lock(staker auth.Caller, config, nft [20]byte) (*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig(config)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if !cfg.Active {
		return nil, ErrStakingNotActive
	}
	if now >= cfg.HorizonEnd {
		return nil, ErrHorizonExpired
	}
	if now < cfg.HorizonStart {
		return nil, ErrHorizonNotStarted
	}
	locked, err := u64(cfg.LockedCount).add(1).result()
	if err != nil {
		return nil, err
	}
	if locked > cfg.MaxCapacity {
		return nil, ErrCapacityExceeded
	}
	collection, member, err := e.state.CollectionOf(nft)
	if err != nil {
		return nil, err
	}
	if !member || collection != cfg.Collection {
		return nil, ErrCollectionMismatch
	}
	if _, ok, err := e.state.NFTStakingPositionGet(config, nft); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPositionExists
	}
	asset := NFTAsset(nft)
	decimals, err := e.bank.AssetDecimals(asset)
	if err != nil {
		return nil, err
	}
	held, err := e.bank.BalanceOf(staker.Address(), asset)
	if err != nil {
		return nil, err
	}
	if decimals != 0 || held != 1 {
		return nil, ErrInvalidNFT
	}

	value, err := AccumulatorValueAt(cfg.AccumulatorCheckpoint, now, cfg.RatePerSecond, cfg.RateSetAt)
	if err != nil {
		return nil, err
	}
	sum, err := u64(cfg.TotalSnapshotSum).add(value).result()
	if err != nil {
		return nil, err
	}

	if err := e.bank.Transfer(staker.Address(), cfg.NFTVault, staker, asset, 1, 0); err != nil {
		return nil, err
	}
	pos := &Position{
		Config:        config,
		Owner:         staker.Address(),
		NFT:           nft,
		LockedAt:      now,
		LastClaimAt:   now,
		EntrySnapshot: value,
	}
	cfg.LockedCount = locked
	cfg.TotalSnapshotSum = sum
	if err := e.state.NFTStakingPositionPut(pos); err != nil {
		return nil, err
	}
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(events.StakingLocked{
		Config:   config,
		Owner:    pos.Owner,
		NFT:      nft,
		LockedAt: now,
		Snapshot: value,
	})
	return pos.Clone(), nil
}

// payout validates that the vault covers delta and returns the scaled amount.
func (e *Engine) payout(cfg *Config, delta uint64) (uint64, error) {
	scaled, err := Scale(delta, cfg.RewardDecimals)
	if err != nil {
		return 0, err
	}
	vault, err := e.bank.BalanceOf(cfg.RewardVault, cfg.RewardAsset)
	if err != nil {
		return 0, err
	}
	if vault < scaled {
		return 0, fmt.Errorf("%w: need %d, vault holds %d", ErrInsufficientFunds, scaled, vault)
	}
	return scaled, nil
}

func (e *Engine) transferReward(cfg *Config, to [20]byte, scaled uint64) error {
	if scaled == 0 {
		return nil
	}
	return e.bank.Transfer(cfg.RewardVault, to, e.rewardAuthority(cfg.ID), cfg.RewardAsset, scaled, cfg.RewardDecimals)
}

// Claim pays the reward accrued by a position and re-snapshots it. It returns
// the unscaled reward.
func (e *Engine) Claim(owner auth.Caller, config, nft [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	cfg, pos, err := e.loadOwnedPosition(owner, config, nft)
	if err != nil {
		return 0, err
	}
	eligible, end, err := EligibilityAndEffectiveEnd(e.now(), cfg.HorizonEnd, cfg.MinimumEligiblePeriod, pos)
	if err != nil {
		return 0, err
	}
	if !eligible {
		return 0, ErrIneligiblePeriod
	}
	delta, value, err := DeltaOwed(cfg.AccumulatorCheckpoint, end, pos.EntrySnapshot, cfg.RatePerSecond, cfg.RateSetAt)
	if err != nil {
		return 0, err
	}
	scaled, err := e.payout(cfg, delta)
	if err != nil {
		return 0, err
	}
	sum, err := u64(cfg.TotalSnapshotSum).add(delta).result()
	if err != nil {
		return 0, err
	}

	if err := e.transferReward(cfg, pos.Owner, scaled); err != nil {
		return 0, err
	}
	pos.EntrySnapshot = value
	pos.LastClaimAt = end
	cfg.TotalSnapshotSum = sum
	if err := e.state.NFTStakingPositionPut(pos); err != nil {
		return 0, err
	}
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return 0, err
	}
	e.emit(events.StakingClaimed{
		Config:   config,
		Owner:    pos.Owner,
		NFT:      nft,
		Reward:   delta,
		Scaled:   scaled,
		ClaimAt:  end,
		Snapshot: value,
	})
	return delta, nil
}

// Unlock returns the NFT to its owner, paying the accrued reward when the
// position is eligible. It is permitted after the pool has been closed.
func (e *Engine) Unlock(owner auth.Caller, config, nft [20]byte) (*UnlockResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, pos, err := e.loadOwnedPosition(owner, config, nft)
	if err != nil {
		return nil, err
	}
	now := e.now()
	eligible, end, err := EligibilityAndEffectiveEnd(now, cfg.HorizonEnd, cfg.MinimumEligiblePeriod, pos)
	if err != nil {
		return nil, err
	}
	result := &UnlockResult{Eligible: eligible}
	if eligible {
		delta, _, err := DeltaOwed(cfg.AccumulatorCheckpoint, end, pos.EntrySnapshot, cfg.RatePerSecond, cfg.RateSetAt)
		if err != nil {
			return nil, err
		}
		scaled, err := e.payout(cfg, delta)
		if err != nil {
			return nil, err
		}
		result.Reward = delta
		result.Scaled = scaled
	}
	locked, err := u64(cfg.LockedCount).sub(1).result()
	if err != nil {
		return nil, err
	}
	sum, err := u64(cfg.TotalSnapshotSum).sub(pos.EntrySnapshot).result()
	if err != nil {
		return nil, err
	}

	if err := e.transferReward(cfg, pos.Owner, result.Scaled); err != nil {
		return nil, err
	}
	if err := e.bank.Transfer(cfg.NFTVault, pos.Owner, e.nftAuthority(config), NFTAsset(nft), 1, 0); err != nil {
		return nil, err
	}
	cfg.LockedCount = locked
	cfg.TotalSnapshotSum = sum
	if err := e.state.NFTStakingPositionDelete(config, nft); err != nil {
		return nil, err
	}
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(events.StakingUnlocked{
		Config:     config,
		Owner:      pos.Owner,
		NFT:        nft,
		Eligible:   eligible,
		Reward:     result.Reward,
		Scaled:     result.Scaled,
		UnlockedAt: now,
	})
	return result, nil
}

// Reconfigure changes the reward rate and/or extends the horizon of an active
// pool. Accrual up to now is folded into the checkpoint and the vault is
// topped up from the admin whenever the new schedule needs more funding.
func (e *Engine) Reconfigure(admin auth.Caller, config [20]byte, params ReconfigureParams) (*ReconfigureResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	cfg, err := e.loadConfig(config)
	if err != nil {
		return nil, err
	}
	if cfg.Admin != admin.Address() {
		return nil, ErrUnauthorized
	}
	if !cfg.Active {
		return nil, ErrStakingNotActive
	}
	now := e.now()
	if now >= cfg.HorizonEnd {
		return nil, ErrHorizonExpired
	}
	rate := cfg.RatePerSecond
	if params.RatePerSecond != nil {
		if *params.RatePerSecond == 0 {
			return nil, ErrInvalidRate
		}
		rate = *params.RatePerSecond
	}
	horizonEnd := cfg.HorizonEnd
	if params.HorizonEnd != nil {
		if *params.HorizonEnd <= now || *params.HorizonEnd <= cfg.HorizonEnd {
			return nil, ErrInvalidHorizon
		}
		horizonEnd = *params.HorizonEnd
	}
	if cfg.ReconfigureCount == math.MaxUint32 {
		return nil, ErrAuditOrderExhausted
	}

	checkpoint, err := AccumulatorValueAt(cfg.AccumulatorCheckpoint, now, cfg.RatePerSecond, cfg.RateSetAt)
	if err != nil {
		return nil, err
	}
	required, err := RequiredFundingToExtend(rate, now, horizonEnd, checkpoint, cfg)
	if err != nil {
		return nil, err
	}
	requiredScaled, err := Scale(required, cfg.RewardDecimals)
	if err != nil {
		return nil, err
	}
	vault, err := e.bank.BalanceOf(cfg.RewardVault, cfg.RewardAsset)
	if err != nil {
		return nil, err
	}
	var topUp uint64
	if requiredScaled > vault {
		topUp = requiredScaled - vault
		if err := e.bank.Transfer(cfg.Admin, cfg.RewardVault, admin, cfg.RewardAsset, topUp, cfg.RewardDecimals); err != nil {
			return nil, err
		}
	}

	record := &AuditRecord{
		Config:       config,
		OrderID:      cfg.ReconfigureCount + 1,
		Rate:         cfg.RatePerSecond,
		RateSetAt:    cfg.RateSetAt,
		SupersededAt: now,
	}
	if err := e.state.NFTStakingAuditRecordPut(record); err != nil {
		return nil, err
	}
	previousRate := cfg.RatePerSecond
	cfg.RatePerSecond = rate
	cfg.RateSetAt = now
	cfg.AccumulatorCheckpoint = checkpoint
	cfg.HorizonEnd = horizonEnd
	cfg.ReconfigureCount = record.OrderID
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return nil, err
	}
	e.emit(events.StakingReconfigured{
		Config:       config,
		OrderID:      record.OrderID,
		PreviousRate: previousRate,
		Rate:         rate,
		HorizonEnd:   horizonEnd,
		Checkpoint:   checkpoint,
		TopUp:        topUp,
	})
	return &ReconfigureResult{Record: record.Clone(), TopUp: topUp}, nil
}

// Close terminates the pool, pinning the horizon to now when it has not yet
// passed, and refunds everything the vault holds beyond what open positions
// are still owed. It returns the scaled refund.
func (e *Engine) Close(admin auth.Caller, config [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	cfg, err := e.loadConfig(config)
	if err != nil {
		return 0, err
	}
	if cfg.Admin != admin.Address() {
		return 0, ErrUnauthorized
	}
	if !cfg.Active {
		return 0, ErrStakingNotActive
	}
	closing := e.now()
	if cfg.HorizonEnd < closing {
		closing = cfg.HorizonEnd
	}
	vault, err := e.bank.BalanceOf(cfg.RewardVault, cfg.RewardAsset)
	if err != nil {
		return 0, err
	}
	refund, err := RefundableOnClose(closing, vault, cfg.RewardDecimals, cfg)
	if err != nil {
		return 0, err
	}
	if refund > 0 {
		if err := e.bank.Transfer(cfg.RewardVault, cfg.Admin, e.rewardAuthority(config), cfg.RewardAsset, refund, cfg.RewardDecimals); err != nil {
			return 0, err
		}
	}
	cfg.Active = false
	cfg.HorizonEnd = closing
	cfg.MinimumEligiblePeriod = 0
	if err := e.state.NFTStakingConfigPut(cfg); err != nil {
		return 0, err
	}
	e.emit(events.StakingClosed{Config: config, HorizonEnd: closing, Refunded: refund})
	return refund, nil
}

// PendingReward reports whether a position is eligible right now and the
// unscaled reward a claim would pay.
func (e *Engine) PendingReward(config, nft [20]byte) (bool, uint64, error) {
	if e == nil || e.state == nil {
		return false, 0, ErrNilState
	}
	cfg, err := e.loadConfig(config)
	if err != nil {
		return false, 0, err
	}
	pos, ok, err := e.state.NFTStakingPositionGet(config, nft)
	if err != nil {
		return false, 0, err
	}
	if !ok {
		return false, 0, ErrPositionNotFound
	}
	eligible, end, err := EligibilityAndEffectiveEnd(e.now(), cfg.HorizonEnd, cfg.MinimumEligiblePeriod, pos)
	if err != nil {
		return false, 0, err
	}
	delta, _, err := DeltaOwed(cfg.AccumulatorCheckpoint, end, pos.EntrySnapshot, cfg.RatePerSecond, cfg.RateSetAt)
	if err != nil {
		return false, 0, err
	}
	return eligible, delta, nil
}

// Audit checks the conservation invariant of a pool against its stored
// positions and that the vault covers the outstanding obligation.
func (e *Engine) Audit(config [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.loadConfig(config)
	if err != nil {
		return err
	}
	positions, err := e.state.NFTStakingPositionList(config)
	if err != nil {
		return err
	}
	at := e.now()
	if cfg.HorizonEnd < at {
		at = cfg.HorizonEnd
	}
	if err := CheckConservation(cfg, positions, at); err != nil {
		return err
	}
	vault, err := e.bank.BalanceOf(cfg.RewardVault, cfg.RewardAsset)
	if err != nil {
		return err
	}
	if _, err := RefundableOnClose(at, vault, cfg.RewardDecimals, cfg); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}
		return err
	}
	return nil
}
