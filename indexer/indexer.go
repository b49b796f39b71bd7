// Package indexer persists published ledger events and answers history
// queries over them.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nftstaking/core/events"
)

const (
	defaultQueue = 1024
	defaultLimit = 100
	maxLimit     = 1000
)

// Open connects to dsn. postgres:// and postgresql:// URLs use the Postgres
// driver; anything else is treated as a SQLite path or URI.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("indexer: dsn required")
	}
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return db, nil
}

// Indexer receives events from the node fanout and writes them from a single
// background worker so publishing never waits on the database.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	// never closed; stop signals shutdown instead
	queue chan events.Event

	seq atomic.Uint64

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(db *gorm.DB, log *slog.Logger) (*Indexer, error) {
	if db == nil {
		return nil, fmt.Errorf("indexer: db required")
	}
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var last EventRecord
	if err := db.Order("sequence desc").Limit(1).Find(&last).Error; err != nil {
		return nil, fmt.Errorf("indexer: load sequence: %w", err)
	}
	ix := &Indexer{
		db:     db,
		logger: log.With("component", "indexer"),
		queue:  make(chan events.Event, defaultQueue),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	ix.seq.Store(last.Sequence)
	return ix, nil
}

// Emit implements events.Emitter. It blocks only while the queue is full and
// the indexer is still running.
func (ix *Indexer) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	select {
	case <-ix.stop:
		return
	default:
	}
	select {
	case ix.queue <- evt:
	case <-ix.stop:
	case <-ix.done:
	}
}

// Start launches the worker. It drains the queue until ctx is cancelled or
// Close is called.
func (ix *Indexer) Start(ctx context.Context) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	select {
	case <-ix.stop:
		return
	default:
	}
	if ix.started {
		return
	}
	ix.started = true
	go ix.run(ctx)
}

func (ix *Indexer) run(ctx context.Context) {
	defer close(ix.done)
	for {
		select {
		case evt := <-ix.queue:
			ix.store(evt)
		case <-ix.stop:
			ix.drain()
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain writes whatever was queued before Close.
func (ix *Indexer) drain() {
	for {
		select {
		case evt := <-ix.queue:
			ix.store(evt)
		default:
			return
		}
	}
}

func (ix *Indexer) store(evt events.Event) {
	if err := ix.Store(evt); err != nil {
		ix.logger.Warn("index event failed", "reason", evt.EventType(), "error", err)
	}
}

// Close stops accepting events and waits until the worker has written
// everything already queued. Events queued before Start are dropped.
func (ix *Indexer) Close() {
	ix.mu.Lock()
	ix.stopOnce.Do(func() { close(ix.stop) })
	started := ix.started
	ix.mu.Unlock()
	if started {
		<-ix.done
	}
}

// Store persists one event synchronously.
func (ix *Indexer) Store(evt events.Event) error {
	payload, ok := evt.(events.Payload)
	if !ok {
		return nil
	}
	flat := payload.Event()
	if flat == nil {
		return nil
	}
	attrs, err := json.Marshal(flat.Attributes)
	if err != nil {
		return err
	}
	seq := ix.seq.Add(1)
	record := EventRecord{
		ID:         uuid.New(),
		Sequence:   seq,
		Type:       flat.Type,
		Config:     flat.Attributes["config"],
		NFT:        flat.Attributes["nft"],
		Account:    firstNonEmpty(flat.Attributes["owner"], flat.Attributes["admin"], flat.Attributes["to"]),
		Attributes: string(attrs),
		Digest:     eventDigest(flat.Type, string(attrs)),
		CreatedAt:  time.Now().UTC(),
	}
	return ix.db.Create(&record).Error
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Query filters history lookups. Empty fields match everything.
type Query struct {
	Config  string
	NFT     string
	Account string
	Type    string
	After   uint64
	Limit   int
}

// History returns matching events in publication order.
func (ix *Indexer) History(ctx context.Context, q Query) ([]EventRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	tx := ix.db.WithContext(ctx).Model(&EventRecord{}).Where("sequence > ?", q.After)
	if q.Config != "" {
		tx = tx.Where("config = ?", q.Config)
	}
	if q.NFT != "" {
		tx = tx.Where("nft = ?", q.NFT)
	}
	if q.Account != "" {
		tx = tx.Where("account = ?", q.Account)
	}
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	var out []EventRecord
	if err := tx.Order("sequence asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Decode returns the attribute map of a stored record.
func (r EventRecord) Decode() (map[string]string, error) {
	out := make(map[string]string)
	if r.Attributes == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &out); err != nil {
		return nil, err
	}
	return out, nil
}
