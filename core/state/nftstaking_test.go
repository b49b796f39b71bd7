package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftstaking/native/nftstaking"
)

func TestStakingConfigRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	cfg := &nftstaking.Config{
		ID:                    [20]byte{0x01},
		Admin:                 [20]byte{0x02},
		Collection:            [20]byte{0x03},
		RewardAsset:           "RWD",
		RewardDecimals:        6,
		Active:                true,
		RatePerSecond:         10,
		RateSetAt:             -5,
		HorizonStart:          0,
		HorizonEnd:            1000,
		MinimumEligiblePeriod: 60,
		MaxCapacity:           5,
		LockedCount:           2,
		TotalSnapshotSum:      30,
		ReconfigureCount:      1,
	}
	require.NoError(t, mgr.NFTStakingConfigPut(cfg))
	require.NoError(t, mgr.NFTStakingConfigPut(cfg))

	got, ok, err := mgr.NFTStakingConfigGet(cfg.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg, got)

	ids, err := mgr.NFTStakingConfigList()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{cfg.ID}, ids)

	_, ok, err = mgr.NFTStakingConfigGet([20]byte{0x09})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStakingPositionIndex(t *testing.T) {
	mgr := newTestManager(t)
	config := [20]byte{0x01}
	for _, b := range []byte{0x30, 0x10, 0x20} {
		require.NoError(t, mgr.NFTStakingPositionPut(&nftstaking.Position{
			Config:        config,
			Owner:         [20]byte{0xee},
			NFT:           [20]byte{b},
			LockedAt:      100,
			LastClaimAt:   100,
			EntrySnapshot: uint64(b),
		}))
	}

	list, err := mgr.NFTStakingPositionList(config)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, [20]byte{0x10}, list[0].NFT)
	require.Equal(t, [20]byte{0x30}, list[2].NFT)

	list[1].EntrySnapshot = 99
	require.NoError(t, mgr.NFTStakingPositionPut(list[1]))
	list, err = mgr.NFTStakingPositionList(config)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, uint64(99), list[1].EntrySnapshot)

	require.NoError(t, mgr.NFTStakingPositionDelete(config, [20]byte{0x20}))
	_, ok, err := mgr.NFTStakingPositionGet(config, [20]byte{0x20})
	require.NoError(t, err)
	require.False(t, ok)
	list, err = mgr.NFTStakingPositionList(config)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, mgr.NFTStakingPositionDelete(config, [20]byte{0x10}))
	require.NoError(t, mgr.NFTStakingPositionDelete(config, [20]byte{0x30}))
	list, err = mgr.NFTStakingPositionList(config)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStakingAuditRecordsAppendOnly(t *testing.T) {
	mgr := newTestManager(t)
	config := [20]byte{0x01}
	first := &nftstaking.AuditRecord{Config: config, OrderID: 1, Rate: 10, RateSetAt: 0, SupersededAt: 100}
	second := &nftstaking.AuditRecord{Config: config, OrderID: 2, Rate: 20, RateSetAt: 100, SupersededAt: 250}
	require.NoError(t, mgr.NFTStakingAuditRecordPut(first))
	require.NoError(t, mgr.NFTStakingAuditRecordPut(second))
	require.Error(t, mgr.NFTStakingAuditRecordPut(first))

	records, err := mgr.NFTStakingAuditRecords(config, 2)
	require.NoError(t, err)
	require.Equal(t, []*nftstaking.AuditRecord{first, second}, records)

	_, err = mgr.NFTStakingAuditRecords(config, 3)
	require.Error(t, err)
}
