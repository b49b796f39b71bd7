package state

import (
	"errors"
	"fmt"
)

var accountMetadataPrefix = []byte("account-meta:")

// ErrNonceMismatch is returned when a signed operation carries a nonce other
// than the account's next expected one.
var ErrNonceMismatch = errors.New("state: nonce mismatch")

type accountMetadata struct {
	Nonce uint64
}

func accountMetadataKey(addr [20]byte) []byte {
	return hashedKey(accountMetadataPrefix, addr[:])
}

func (m *Manager) loadAccountMetadata(addr [20]byte) (*accountMetadata, error) {
	meta := new(accountMetadata)
	if _, err := m.getRLP(accountMetadataKey(addr), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// AccountNonce returns the next nonce addr must sign with.
func (m *Manager) AccountNonce(addr [20]byte) (uint64, error) {
	meta, err := m.loadAccountMetadata(addr)
	if err != nil {
		return 0, err
	}
	return meta.Nonce, nil
}

// ConsumeNonce checks nonce against the account's next expected nonce and
// advances it.
func (m *Manager) ConsumeNonce(addr [20]byte, nonce uint64) error {
	meta, err := m.loadAccountMetadata(addr)
	if err != nil {
		return err
	}
	if meta.Nonce != nonce {
		return fmt.Errorf("%w: expected %d, got %d", ErrNonceMismatch, meta.Nonce, nonce)
	}
	if meta.Nonce == ^uint64(0) {
		return fmt.Errorf("%w: nonce exhausted", ErrNonceMismatch)
	}
	meta.Nonce++
	return m.putRLP(accountMetadataKey(addr), meta)
}
