package bank

import (
	"errors"
	"fmt"
	"math/big"

	"nftstaking/core/auth"
	"nftstaking/core/events"
	nhbstate "nftstaking/core/state"
)

var (
	ErrUnauthorized        = errors.New("bank: authority does not control source account")
	ErrUnknownAsset        = errors.New("bank: asset not registered")
	ErrDecimalsMismatch    = errors.New("bank: decimals do not match asset")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrBalanceOverflow     = errors.New("bank: balance overflow")
)

type ledgerState interface {
	Token(symbol string) (*nhbstate.TokenMetadata, error)
	Balance(addr []byte, symbol string) (*big.Int, error)
	SetBalance(addr []byte, symbol string, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	AdjustTokenSupply(symbol string, delta *big.Int) (*big.Int, error)
}

// Ledger applies checked asset movements on top of the state manager.
// Balances never exceed 64 bits.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
}

// NewLedger constructs a ledger over state.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the emitter receiving transfer events.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) token(asset string) (*nhbstate.TokenMetadata, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("bank: state manager required")
	}
	meta, err := l.state.Token(asset)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return meta, nil
}

// AssetDecimals returns the registered decimals of asset.
func (l *Ledger) AssetDecimals(asset string) (uint8, error) {
	meta, err := l.token(asset)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}

// BalanceOf returns the balance of addr in asset.
func (l *Ledger) BalanceOf(addr [20]byte, asset string) (uint64, error) {
	meta, err := l.token(asset)
	if err != nil {
		return 0, err
	}
	return l.balance(addr, meta.Symbol)
}

func (l *Ledger) balance(addr [20]byte, symbol string) (uint64, error) {
	bal, err := l.state.Balance(addr[:], symbol)
	if err != nil {
		return 0, err
	}
	if !bal.IsUint64() {
		return 0, fmt.Errorf("%w: %x holds %s %s", ErrBalanceOverflow, addr, bal, symbol)
	}
	return bal.Uint64(), nil
}

func (l *Ledger) credit(addr [20]byte, symbol string, amount uint64) error {
	current, err := l.balance(addr, symbol)
	if err != nil {
		return err
	}
	if current > ^uint64(0)-amount {
		return fmt.Errorf("%w: %x", ErrBalanceOverflow, addr)
	}
	return l.state.SetBalance(addr[:], symbol, new(big.Int).SetUint64(current+amount))
}

// Transfer moves amount of asset from one account to another. The authority
// must control from and decimals must match the registered asset.
func (l *Ledger) Transfer(from, to [20]byte, authority auth.Signer, asset string, amount uint64, decimals uint8) error {
	// zero-value signers can be built by anyone and never authorise anything
	if authority == nil || authority.Address() != from || from == ([20]byte{}) {
		return ErrUnauthorized
	}
	meta, err := l.token(asset)
	if err != nil {
		return err
	}
	if meta.Decimals != decimals {
		return fmt.Errorf("%w: %s has %d, got %d", ErrDecimalsMismatch, meta.Symbol, meta.Decimals, decimals)
	}
	if amount == 0 {
		return nil
	}
	available, err := l.balance(from, meta.Symbol)
	if err != nil {
		return err
	}
	if available < amount {
		return fmt.Errorf("%w: need %d %s, have %d", ErrInsufficientBalance, amount, meta.Symbol, available)
	}
	if from == to {
		return nil
	}
	if err := l.state.SetBalance(from[:], meta.Symbol, new(big.Int).SetUint64(available-amount)); err != nil {
		return err
	}
	if err := l.credit(to, meta.Symbol, amount); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{Asset: meta.Symbol, From: from, To: to, Amount: amount})
	return nil
}

// Mint credits newly issued units of asset to addr. It is reserved for
// genesis and operator tooling.
func (l *Ledger) Mint(to [20]byte, asset string, amount uint64) error {
	meta, err := l.token(asset)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	supply, err := l.state.AdjustTokenSupply(meta.Symbol, new(big.Int).SetUint64(amount))
	if err != nil {
		return err
	}
	if !supply.IsUint64() {
		return fmt.Errorf("%w: %s supply", ErrBalanceOverflow, meta.Symbol)
	}
	if err := l.credit(to, meta.Symbol, amount); err != nil {
		return err
	}
	l.emitter.Emit(events.Transfer{Asset: meta.Symbol, To: to, Amount: amount})
	return nil
}

// Supply returns the issued supply of asset.
func (l *Ledger) Supply(asset string) (uint64, error) {
	meta, err := l.token(asset)
	if err != nil {
		return 0, err
	}
	supply, err := l.state.TokenSupply(meta.Symbol)
	if err != nil {
		return 0, err
	}
	if !supply.IsUint64() {
		return 0, fmt.Errorf("%w: %s supply", ErrBalanceOverflow, meta.Symbol)
	}
	return supply.Uint64(), nil
}
