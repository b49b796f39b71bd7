package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nftstaking/core/events"
)

func setupIndexerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

type plainEvent struct{}

func (plainEvent) EventType() string { return "plain" }

func TestIndexerStoresAndFilters(t *testing.T) {
	db := setupIndexerDB(t)
	ix, err := New(db, nil)
	require.NoError(t, err)

	config := [20]byte{1}
	ix.Start(context.Background())
	ix.Emit(events.StakingLocked{Config: config, Owner: [20]byte{2}, NFT: [20]byte{3}, LockedAt: 10})
	ix.Emit(events.StakingClaimed{Config: config, Owner: [20]byte{2}, NFT: [20]byte{3}, Reward: 5})
	ix.Emit(events.StakingLocked{Config: [20]byte{9}, Owner: [20]byte{4}, NFT: [20]byte{5}})
	ix.Emit(plainEvent{})
	ix.Close()

	ctx := context.Background()
	all, err := ix.History(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, uint64(1), all[0].Sequence)
	require.Equal(t, events.TypeStakingLocked, all[0].Type)

	byConfig, err := ix.History(ctx, Query{Config: all[0].Config})
	require.NoError(t, err)
	require.Len(t, byConfig, 2)
	attrs, err := byConfig[1].Decode()
	require.NoError(t, err)
	require.Equal(t, "5", attrs["reward"])

	claims, err := ix.History(ctx, Query{Type: events.TypeStakingClaimed})
	require.NoError(t, err)
	require.Len(t, claims, 1)

	page, err := ix.History(ctx, Query{After: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, uint64(2), page[0].Sequence)

	// Emits after close are dropped.
	ix.Emit(events.StakingClosed{Config: config})
	ix.Close()
}

func TestCloseReleasesBlockedEmit(t *testing.T) {
	ix, err := New(setupIndexerDB(t), nil)
	require.NoError(t, err)
	for i := 0; i < defaultQueue; i++ {
		ix.Emit(plainEvent{})
	}

	emitted := make(chan struct{})
	go func() {
		ix.Emit(plainEvent{})
		close(emitted)
	}()
	select {
	case <-emitted:
		t.Fatal("emit on a full queue returned before close")
	case <-time.After(20 * time.Millisecond):
	}

	closed := make(chan struct{})
	go func() {
		ix.Close()
		close(closed)
	}()
	require.Eventually(t, func() bool {
		select {
		case <-closed:
		default:
			return false
		}
		select {
		case <-emitted:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestIndexerResumesSequence(t *testing.T) {
	db := setupIndexerDB(t)
	first, err := New(db, nil)
	require.NoError(t, err)
	require.NoError(t, first.Store(events.StakingClosed{Config: [20]byte{1}}))
	require.NoError(t, first.Store(events.Transfer{Asset: "RWD", To: [20]byte{2}, Amount: 3}))

	second, err := New(db, nil)
	require.NoError(t, err)
	require.NoError(t, second.Store(events.StakingClosed{Config: [20]byte{1}}))

	records, err := second.History(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, uint64(3), records[2].Sequence)
	require.NotEmpty(t, records[1].Account)
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(" ")
	require.Error(t, err)
}

func TestRecordDigestDetectsTampering(t *testing.T) {
	db := setupIndexerDB(t)
	ix, err := New(db, nil)
	require.NoError(t, err)
	require.NoError(t, ix.Store(events.StakingClaimed{Config: [20]byte{1}, Reward: 9}))

	records, err := ix.History(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Digest, 64)
	require.True(t, records[0].Verify())

	tampered := records[0]
	tampered.Attributes = strings.Replace(tampered.Attributes, `"9"`, `"90"`, 1)
	require.False(t, tampered.Verify())
}

func TestExportParquet(t *testing.T) {
	db := setupIndexerDB(t)
	ix, err := New(db, nil)
	require.NoError(t, err)
	config := [20]byte{7}
	for i := 0; i < 5; i++ {
		require.NoError(t, ix.Store(events.StakingLocked{Config: config, NFT: [20]byte{byte(i)}}))
	}
	require.NoError(t, ix.Store(events.StakingLocked{Config: [20]byte{8}}))

	records, err := ix.History(context.Background(), Query{})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "history.parquet")
	rows, err := ix.ExportParquet(context.Background(), path, Query{Config: records[0].Config})
	require.NoError(t, err)
	require.Equal(t, 5, rows)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}
