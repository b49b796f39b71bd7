package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nftstaking/core/state"
	"nftstaking/storage"
)

func TestExecutorCommitsWriteSet(t *testing.T) {
	db := storage.NewMemDB()
	exec := NewExecutor(db)

	require.NoError(t, exec.Execute(func(kv state.KV) error {
		require.NoError(t, kv.Put([]byte("a"), []byte("1")))
		require.NoError(t, kv.Put([]byte("b"), []byte("2")))
		return kv.Delete([]byte("b"))
	}))

	value, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)
	_, err = db.Get([]byte("b"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, version, err := exec.ReadVersioned([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), version)
}

func TestExecutorDiscardsOnError(t *testing.T) {
	db := storage.NewMemDB()
	exec := NewExecutor(db)
	boom := errors.New("boom")

	err := exec.Execute(func(kv state.KV) error {
		require.NoError(t, kv.Put([]byte("a"), []byte("1")))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, db.Len())
}

func TestExecutorDetectsConflict(t *testing.T) {
	db := storage.NewMemDB()
	exec := NewExecutor(db)
	require.NoError(t, db.Put([]byte("counter"), []byte{1}))

	err := exec.Execute(func(outer state.KV) error {
		value, err := outer.Get([]byte("counter"))
		require.NoError(t, err)
		require.Equal(t, []byte{1}, value)

		// A competing transaction commits first.
		require.NoError(t, exec.Execute(func(inner state.KV) error {
			if _, err := inner.Get([]byte("counter")); err != nil {
				return err
			}
			return inner.Put([]byte("counter"), []byte{2})
		}))
		return outer.Put([]byte("counter"), []byte{3})
	})
	require.ErrorIs(t, err, ErrStateConflict)

	value, err := db.Get([]byte("counter"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, value)
}

func TestExecutorAbsentKeyConflict(t *testing.T) {
	exec := NewExecutor(storage.NewMemDB())

	err := exec.Execute(func(outer state.KV) error {
		value, err := outer.Get([]byte("slot"))
		require.NoError(t, err)
		require.Nil(t, value)
		require.NoError(t, exec.Execute(func(inner state.KV) error {
			return inner.Put([]byte("slot"), []byte("taken"))
		}))
		return outer.Put([]byte("slot"), []byte("mine"))
	})
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestExecutorViewDropsWrites(t *testing.T) {
	db := storage.NewMemDB()
	exec := NewExecutor(db)
	require.NoError(t, exec.View(func(kv state.KV) error {
		return kv.Put([]byte("a"), []byte("1"))
	}))
	require.Zero(t, db.Len())
}

func TestExecutorRunsAfterCallbacksInCommitOrder(t *testing.T) {
	db := storage.NewMemDB()
	exec := NewExecutor(db)

	var (
		mu      sync.Mutex
		order   []string
		wg      sync.WaitGroup
		started = make(chan struct{})
		release = make(chan struct{})
	)
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		require.NoError(t, exec.ExecuteThen(func(kv state.KV) error {
			return kv.Put([]byte("first"), []byte("1"))
		}, func() {
			close(started)
			<-release
			record("first")
		}))
	}()
	<-started
	go func() {
		defer wg.Done()
		require.NoError(t, exec.ExecuteThen(func(kv state.KV) error {
			return kv.Put([]byte("second"), []byte("2"))
		}, func() { record("second") }))
	}()

	// the second commit lands while the first is still publishing
	require.Eventually(t, func() bool {
		ok, err := db.Has([]byte("second"))
		return err == nil && ok
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	require.Empty(t, order)
	mu.Unlock()

	close(release)
	wg.Wait()
	require.Equal(t, []string{"first", "second"}, order)

	// conflicts and failures take no turn
	require.Error(t, exec.ExecuteThen(func(kv state.KV) error { return errors.New("boom") }, func() { record("never") }))
	require.NoError(t, exec.ExecuteThen(func(kv state.KV) error { return nil }, func() { record("third") }))
	require.Equal(t, []string{"first", "second", "third"}, order)
}
