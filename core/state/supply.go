package state

import (
	"fmt"
	"math/big"
)

var tokenSupplyPrefix = []byte("token/supply/")

func tokenSupplyKey(symbol string) []byte {
	return hashedKey(tokenSupplyPrefix, []byte(NormalizeSymbol(symbol)))
}

// TokenSupply returns the issued supply of symbol. Missing entries are zero.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return nil, fmt.Errorf("token symbol required")
	}
	total := new(big.Int)
	if _, err := m.getRLP(tokenSupplyKey(normalized), total); err != nil {
		return nil, err
	}
	return total, nil
}

// AdjustTokenSupply adds delta, which may be negative, to the issued supply
// and returns the new total.
func (m *Manager) AdjustTokenSupply(symbol string, delta *big.Int) (*big.Int, error) {
	normalized := NormalizeSymbol(symbol)
	current, err := m.TokenSupply(normalized)
	if err != nil {
		return nil, err
	}
	if delta == nil {
		return current, nil
	}
	updated := new(big.Int).Add(current, delta)
	if updated.Sign() < 0 {
		return nil, fmt.Errorf("token %s supply underflow", normalized)
	}
	if err := m.putRLP(tokenSupplyKey(normalized), updated); err != nil {
		return nil, err
	}
	return updated, nil
}
