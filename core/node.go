package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nftstaking/core/auth"
	"nftstaking/core/events"
	"nftstaking/core/genesis"
	nhbstate "nftstaking/core/state"
	"nftstaking/crypto"
	"nftstaking/native/bank"
	nativecommon "nftstaking/native/common"
	"nftstaking/native/nftstaking"
	"nftstaking/observability"
	"nftstaking/observability/logging"
	"nftstaking/observability/metrics"
	telemetry "nftstaking/observability/otel"
	"nftstaking/storage"
)

// ErrGenesisApplied is returned when genesis is applied to a store that
// already carries one.
var ErrGenesisApplied = errors.New("core: genesis already applied")

// Node is the central controller, wiring state, the staking engine and the
// token ledger behind transactional entry points.
type Node struct {
	db       storage.Database
	executor *Executor
	fanout   *events.Fanout
	pauses   *nativecommon.Pauses
	nowFn    func() int64
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics.StakingMetrics
}

// NodeOption customises a Node.
type NodeOption func(*Node)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) NodeOption {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithNowFunc overrides the clock used by every operation.
func WithNowFunc(now func() int64) NodeOption {
	return func(n *Node) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// WithPauses shares a pause switch with the node.
func WithPauses(p *nativecommon.Pauses) NodeOption {
	return func(n *Node) {
		if p != nil {
			n.pauses = p
		}
	}
}

func NewNode(db storage.Database, opts ...NodeOption) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	n := &Node{
		db:       db,
		executor: NewExecutor(db),
		fanout:   events.NewFanout(),
		pauses:   nativecommon.NewPauses(),
		nowFn:    func() int64 { return time.Now().Unix() },
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		tracer:   telemetry.Tracer(),
		metrics:  metrics.Staking(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if err := n.executor.Execute(func(kv nhbstate.KV) error {
		return nhbstate.NewManager(kv).EnsureStateVersion()
	}); err != nil {
		return nil, err
	}
	n.fanout.Subscribe(eventMetricsEmitter{})
	return n, nil
}

type eventMetricsEmitter struct{}

func (eventMetricsEmitter) Emit(evt events.Event) {
	if transfer, ok := evt.(events.Transfer); ok {
		observability.Events().RecordTransfer(transfer.Asset)
		return
	}
	observability.Events().RecordEvent(evt.EventType())
}

// Subscribe registers sub for every event published after a commit and
// returns the function removing it again.
func (n *Node) Subscribe(sub events.Emitter) func() {
	return n.fanout.Subscribe(sub)
}

// Pauses exposes the module pause switch.
func (n *Node) Pauses() *nativecommon.Pauses { return n.pauses }

// Now returns the node clock in unix seconds.
func (n *Node) Now() int64 { return n.nowFn() }

// ApplyGenesis seeds an empty store. It fails with ErrGenesisApplied when the
// store already holds a genesis.
func (n *Node) ApplyGenesis(spec *genesis.GenesisSpec) error {
	if spec == nil {
		return fmt.Errorf("core: genesis spec required")
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("core: invalid genesis: %w", err)
	}
	var buf events.Buffer
	err := n.executor.ExecuteThen(func(kv nhbstate.KV) error {
		manager := nhbstate.NewManager(kv)
		if _, ok, err := manager.GenesisTime(); err != nil {
			return err
		} else if ok {
			return ErrGenesisApplied
		}
		ledger := bank.NewLedger(manager)
		ledger.SetEmitter(&buf)
		if err := genesis.Apply(spec, manager, ledger); err != nil {
			return err
		}
		return manager.MarkGenesis(spec.GenesisTimestamp().Unix())
	}, func() { buf.Flush(n.fanout) })
	if err != nil {
		return err
	}
	for _, module := range spec.Paused {
		n.pauses.Set(module, true)
	}
	n.logger.Info("genesis applied",
		"assets", len(spec.Assets),
		"collections", len(spec.Collections),
		"accounts", len(spec.Alloc))
	return nil
}

type txScope struct {
	manager *nhbstate.Manager
	ledger  *bank.Ledger
	engine  *nftstaking.Engine
}

func (n *Node) newScope(kv nhbstate.KV, emitter events.Emitter) *txScope {
	manager := nhbstate.NewManager(kv)
	ledger := bank.NewLedger(manager)
	ledger.SetEmitter(emitter)
	engine := nftstaking.NewEngine()
	engine.SetState(manager)
	engine.SetBank(ledger)
	engine.SetPauses(n.pauses)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(n.nowFn)
	return &txScope{manager: manager, ledger: ledger, engine: engine}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStateConflict):
		return "conflict"
	case nftstaking.IsPolicyError(err):
		return "rejected"
	default:
		return "error"
	}
}

// run executes one operation as a transaction. Events are published only after
// the commit succeeded, in commit order.
func (n *Node) run(ctx context.Context, op string, caller auth.Caller, config [20]byte, fn func(s *txScope) error) error {
	ctx, span := n.tracer.Start(ctx, "nftstaking."+op, trace.WithAttributes(
		attribute.String("nftstaking.op", op),
		attribute.String("nftstaking.config", crypto.FromArray(crypto.AccountPrefix, config).String()),
	))
	defer span.End()
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	var (
		buf       events.Buffer
		published int
	)
	err := n.executor.ExecuteThen(func(kv nhbstate.KV) error {
		s := n.newScope(kv, &buf)
		if nonce, ok := caller.Nonce(); ok {
			if err := s.manager.ConsumeNonce(caller.Address(), nonce); err != nil {
				return err
			}
		}
		return fn(s)
	}, func() {
		published = len(buf.Events())
		buf.Flush(n.fanout)
	})
	outcome := outcomeOf(err)
	n.metrics.ObserveOperation(op, outcome, time.Since(start))
	logAttrs := []any{
		"op", op,
		"config", crypto.FromArray(crypto.AccountPrefix, config).String(),
		logging.MaskField("caller", caller.String()),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.WarnContext(ctx, "staking operation failed", append(logAttrs, "outcome", outcome, "error", err)...)
		return err
	}
	n.publishPool(config)
	n.logger.InfoContext(ctx, "staking operation committed", append(logAttrs, "events", published)...)
	return nil
}

func (n *Node) publishPool(config [20]byte) {
	_ = n.executor.View(func(kv nhbstate.KV) error {
		manager := nhbstate.NewManager(kv)
		cfg, ok, err := manager.NFTStakingConfigGet(config)
		if err != nil || !ok {
			return err
		}
		vault, err := bank.NewLedger(manager).BalanceOf(cfg.RewardVault, cfg.RewardAsset)
		if err != nil {
			return err
		}
		n.metrics.SetPool(config, cfg.LockedCount, vault)
		return nil
	})
}

// Open creates and funds a pool for params.Collection administered by admin.
func (n *Node) Open(ctx context.Context, admin auth.Caller, params nftstaking.OpenParams) (*nftstaking.Config, error) {
	var out *nftstaking.Config
	id := nftstaking.ConfigID(params.Collection, admin.Address())
	err := n.run(ctx, "open", admin, id, func(s *txScope) error {
		cfg, err := s.engine.Open(admin, params)
		out = cfg
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lock stakes nft into config.
func (n *Node) Lock(ctx context.Context, staker auth.Caller, config, nft [20]byte) (*nftstaking.Position, error) {
	var out *nftstaking.Position
	err := n.run(ctx, "lock", staker, config, func(s *txScope) error {
		pos, err := s.engine.Lock(staker, config, nft)
		out = pos
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Claim pays the rewards accrued by the position since its last snapshot.
func (n *Node) Claim(ctx context.Context, owner auth.Caller, config, nft [20]byte) (uint64, error) {
	var paid uint64
	err := n.run(ctx, "claim", owner, config, func(s *txScope) error {
		amount, err := s.engine.Claim(owner, config, nft)
		paid = amount
		return err
	})
	if err != nil {
		return 0, err
	}
	n.metrics.AddRewards(config, paid)
	return paid, nil
}

// Unlock returns nft to its owner, paying rewards when the position is
// eligible.
func (n *Node) Unlock(ctx context.Context, owner auth.Caller, config, nft [20]byte) (*nftstaking.UnlockResult, error) {
	var out *nftstaking.UnlockResult
	err := n.run(ctx, "unlock", owner, config, func(s *txScope) error {
		res, err := s.engine.Unlock(owner, config, nft)
		out = res
		return err
	})
	if err != nil {
		return nil, err
	}
	n.metrics.AddRewards(config, out.Reward)
	return out, nil
}

// Reconfigure changes the rate and/or extends the horizon of an active pool.
func (n *Node) Reconfigure(ctx context.Context, admin auth.Caller, config [20]byte, params nftstaking.ReconfigureParams) (*nftstaking.ReconfigureResult, error) {
	var out *nftstaking.ReconfigureResult
	err := n.run(ctx, "reconfigure", admin, config, func(s *txScope) error {
		res, err := s.engine.Reconfigure(admin, config, params)
		out = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close terminates a pool and refunds the unobligated vault balance.
func (n *Node) Close(ctx context.Context, admin auth.Caller, config [20]byte) (uint64, error) {
	var refund uint64
	err := n.run(ctx, "close", admin, config, func(s *txScope) error {
		amount, err := s.engine.Close(admin, config)
		refund = amount
		return err
	})
	if err != nil {
		return 0, err
	}
	return refund, nil
}
