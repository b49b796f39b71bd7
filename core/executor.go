package core

import (
	"errors"
	"fmt"
	"sync"

	"nftstaking/core/state"
	"nftstaking/storage"
)

// ErrStateConflict reports that a key read by the transaction was committed by
// another transaction first. Nothing was written; the caller may retry.
var ErrStateConflict = errors.New("core: state conflict")

// Executor runs transactions with optimistic concurrency over a storage
// database. Each transaction sees a buffered overlay; commit validates the
// versions of every key read and applies the write set as one batch.
type Executor struct {
	db storage.Database

	mu       sync.RWMutex
	versions map[string]uint64
	seq      uint64
	tickets  uint64

	// commit-ordered callbacks
	turnMu    sync.Mutex
	turn      *sync.Cond
	published uint64
}

// NewExecutor wraps db. Key versions are tracked in memory and start at zero
// for every key on process start.
func NewExecutor(db storage.Database) *Executor {
	x := &Executor{db: db, versions: make(map[string]uint64)}
	x.turn = sync.NewCond(&x.turnMu)
	return x
}

// ReadVersioned implements state.VersionedReader.
func (x *Executor) ReadVersioned(key []byte) ([]byte, uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	version := x.versions[string(key)]
	value, err := x.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, version, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return value, version, nil
}

// Execute runs fn against a fresh overlay and commits its writes when fn
// succeeds and no read key changed in the meantime. An error from fn discards
// the transaction.
func (x *Executor) Execute(fn func(kv state.KV) error) error {
	return x.ExecuteThen(fn, nil)
}

// ExecuteThen is Execute followed by after once the commit succeeded. after
// callbacks run one at a time in commit order, so whatever they publish is
// observed in the order the transactions were applied.
func (x *Executor) ExecuteThen(fn func(kv state.KV) error, after func()) error {
	overlay := state.NewOverlay(x)
	if err := fn(overlay); err != nil {
		return err
	}
	ticket, err := x.commit(overlay)
	if err != nil {
		return err
	}
	x.inTurn(ticket, after)
	return nil
}

func (x *Executor) inTurn(ticket uint64, fn func()) {
	x.turnMu.Lock()
	for x.published+1 != ticket {
		x.turn.Wait()
	}
	x.turnMu.Unlock()
	defer func() {
		x.turnMu.Lock()
		x.published = ticket
		x.turn.Broadcast()
		x.turnMu.Unlock()
	}()
	if fn != nil {
		fn()
	}
}

// commit applies the write set and returns the commit ticket.
func (x *Executor) commit(overlay *state.Overlay) (uint64, error) {
	writes := overlay.WriteSet()

	x.mu.Lock()
	defer x.mu.Unlock()
	for key, seen := range overlay.ReadSet() {
		if x.versions[key] != seen {
			return 0, ErrStateConflict
		}
	}
	if len(writes) == 0 {
		x.tickets++
		return x.tickets, nil
	}
	batch := x.db.NewBatch()
	for _, w := range writes {
		if w.Delete {
			batch.Delete(w.Key)
			continue
		}
		batch.Put(w.Key, w.Value)
	}
	if err := batch.Write(); err != nil {
		return 0, fmt.Errorf("core: commit batch: %w", err)
	}
	x.seq++
	for _, w := range writes {
		x.versions[string(w.Key)] = x.seq
	}
	x.tickets++
	return x.tickets, nil
}

// View runs fn against a read-only overlay. Writes made by fn are dropped.
func (x *Executor) View(fn func(kv state.KV) error) error {
	return fn(state.NewOverlay(x))
}
