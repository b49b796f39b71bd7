package state

import (
	"errors"
	"fmt"
	"math"
)

// StateVersion identifies the expected on-disk schema layout. Increment it
// whenever the stored records change shape.
const StateVersion uint32 = 1

var (
	stateVersionKey  = []byte("state/version")
	genesisMarkerKey = []byte("state/genesis")
	// ErrStateVersionMismatch indicates the stored schema version does not
	// match the version supported by the current binary.
	ErrStateVersionMismatch = errors.New("state: schema version mismatch")
)

// SetStateVersion records the provided schema version in state.
func (m *Manager) SetStateVersion(version uint32) error {
	return m.putRLP(stateVersionKey, uint64(version))
}

// StateVersion returns the stored schema version and a boolean indicating
// whether the value was present.
func (m *Manager) StateVersion() (uint32, bool, error) {
	var stored uint64
	ok, err := m.getRLP(stateVersionKey, &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureStateVersion stamps an empty store with StateVersion and rejects a
// store written by a different schema.
func (m *Manager) EnsureStateVersion() error {
	version, ok, err := m.StateVersion()
	if err != nil {
		return err
	}
	if !ok {
		return m.SetStateVersion(StateVersion)
	}
	if version != StateVersion {
		return fmt.Errorf("%w: on-disk=%d expected=%d", ErrStateVersionMismatch, version, StateVersion)
	}
	return nil
}

// GenesisTime returns the genesis timestamp once genesis has been applied.
func (m *Manager) GenesisTime() (int64, bool, error) {
	var stored uint64
	ok, err := m.getRLP(genesisMarkerKey, &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	return int64(stored), true, nil
}

// MarkGenesis records that genesis at ts has been applied.
func (m *Manager) MarkGenesis(ts int64) error {
	return m.putRLP(genesisMarkerKey, uint64(ts))
}
