package events

import (
	"strconv"

	"nftstaking/core/types"
)

const (
	TypeStakingOpened       = "nftstaking.opened"
	TypeStakingLocked       = "nftstaking.locked"
	TypeStakingClaimed      = "nftstaking.claimed"
	TypeStakingUnlocked     = "nftstaking.unlocked"
	TypeStakingReconfigured = "nftstaking.reconfigured"
	TypeStakingClosed       = "nftstaking.closed"
)

// StakingOpened is emitted once a pool has been created and funded.
type StakingOpened struct {
	Config       [20]byte
	Admin        [20]byte
	Collection   [20]byte
	RewardAsset  string
	Rate         uint64
	HorizonStart int64
	HorizonEnd   int64
	MinPeriod    int64
	Capacity     uint64
	Funded       uint64
}

func (StakingOpened) EventType() string { return TypeStakingOpened }

func (e StakingOpened) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingOpened,
		Attributes: map[string]string{
			"config":       accountString(e.Config),
			"admin":        accountString(e.Admin),
			"collection":   assetString(e.Collection),
			"rewardAsset":  e.RewardAsset,
			"rate":         uintToString(e.Rate),
			"horizonStart": intToString(e.HorizonStart),
			"horizonEnd":   intToString(e.HorizonEnd),
			"minPeriod":    intToString(e.MinPeriod),
			"capacity":     uintToString(e.Capacity),
			"funded":       uintToString(e.Funded),
		},
	}
}

// StakingLocked is emitted when an NFT enters the vault.
type StakingLocked struct {
	Config   [20]byte
	Owner    [20]byte
	NFT      [20]byte
	LockedAt int64
	Snapshot uint64
}

func (StakingLocked) EventType() string { return TypeStakingLocked }

func (e StakingLocked) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingLocked,
		Attributes: map[string]string{
			"config":   accountString(e.Config),
			"owner":    accountString(e.Owner),
			"nft":      assetString(e.NFT),
			"lockedAt": intToString(e.LockedAt),
			"snapshot": uintToString(e.Snapshot),
		},
	}
}

// StakingClaimed is emitted when accrued reward is withdrawn without unlocking.
type StakingClaimed struct {
	Config   [20]byte
	Owner    [20]byte
	NFT      [20]byte
	Reward   uint64
	Scaled   uint64
	ClaimAt  int64
	Snapshot uint64
}

func (StakingClaimed) EventType() string { return TypeStakingClaimed }

func (e StakingClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingClaimed,
		Attributes: map[string]string{
			"config":   accountString(e.Config),
			"owner":    accountString(e.Owner),
			"nft":      assetString(e.NFT),
			"reward":   uintToString(e.Reward),
			"scaled":   uintToString(e.Scaled),
			"claimAt":  intToString(e.ClaimAt),
			"snapshot": uintToString(e.Snapshot),
		},
	}
}

// StakingUnlocked is emitted when an NFT leaves the vault.
type StakingUnlocked struct {
	Config     [20]byte
	Owner      [20]byte
	NFT        [20]byte
	Eligible   bool
	Reward     uint64
	Scaled     uint64
	UnlockedAt int64
}

func (StakingUnlocked) EventType() string { return TypeStakingUnlocked }

func (e StakingUnlocked) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingUnlocked,
		Attributes: map[string]string{
			"config":     accountString(e.Config),
			"owner":      accountString(e.Owner),
			"nft":        assetString(e.NFT),
			"eligible":   strconv.FormatBool(e.Eligible),
			"reward":     uintToString(e.Reward),
			"scaled":     uintToString(e.Scaled),
			"unlockedAt": intToString(e.UnlockedAt),
		},
	}
}

// StakingReconfigured is emitted after a rate or horizon change.
type StakingReconfigured struct {
	Config       [20]byte
	OrderID      uint32
	PreviousRate uint64
	Rate         uint64
	HorizonEnd   int64
	Checkpoint   uint64
	TopUp        uint64
}

func (StakingReconfigured) EventType() string { return TypeStakingReconfigured }

func (e StakingReconfigured) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingReconfigured,
		Attributes: map[string]string{
			"config":       accountString(e.Config),
			"orderId":      strconv.FormatUint(uint64(e.OrderID), 10),
			"previousRate": uintToString(e.PreviousRate),
			"rate":         uintToString(e.Rate),
			"horizonEnd":   intToString(e.HorizonEnd),
			"checkpoint":   uintToString(e.Checkpoint),
			"topUp":        uintToString(e.TopUp),
		},
	}
}

// StakingClosed is emitted when the administrator terminates a pool.
type StakingClosed struct {
	Config     [20]byte
	HorizonEnd int64
	Refunded   uint64
}

func (StakingClosed) EventType() string { return TypeStakingClosed }

func (e StakingClosed) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingClosed,
		Attributes: map[string]string{
			"config":     accountString(e.Config),
			"horizonEnd": intToString(e.HorizonEnd),
			"refunded":   uintToString(e.Refunded),
		},
	}
}
