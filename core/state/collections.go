package state

import (
	"fmt"
	"strings"
)

// Collection groups NFTs eligible for the same staking pools.
type Collection struct {
	ID   [20]byte
	Name string
}

func collectionKey(id [20]byte) []byte {
	return hashedKey(collectionPrefix, id[:])
}

func collectionMembersKey(id [20]byte) []byte {
	return hashedKey(collectionMemberPrefix, id[:])
}

func collectionOfKey(nft [20]byte) []byte {
	return hashedKey(collectionNFTPrefix, nft[:])
}

// RegisterCollection records a new collection.
func (m *Manager) RegisterCollection(id [20]byte, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	if ok, err := m.CollectionExists(id); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("collection %x already registered", id)
	}
	return m.putRLP(collectionKey(id), &Collection{ID: id, Name: trimmed})
}

// Collection returns the stored collection, if any.
func (m *Manager) Collection(id [20]byte) (*Collection, bool, error) {
	c := new(Collection)
	ok, err := m.getRLP(collectionKey(id), c)
	if err != nil || !ok {
		return nil, false, err
	}
	return c, true, nil
}

// CollectionExists reports whether id names a registered collection.
func (m *Manager) CollectionExists(id [20]byte) (bool, error) {
	_, ok, err := m.Collection(id)
	return ok, err
}

// AddCollectionMember assigns nft to collection. An NFT belongs to at most one
// collection and membership never changes.
func (m *Manager) AddCollectionMember(collection, nft [20]byte) error {
	if ok, err := m.CollectionExists(collection); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("collection %x not registered", collection)
	}
	if current, ok, err := m.CollectionOf(nft); err != nil {
		return err
	} else if ok {
		if current == collection {
			return nil
		}
		return fmt.Errorf("nft %x already belongs to collection %x", nft, current)
	}
	members, err := m.CollectionMembers(collection)
	if err != nil {
		return err
	}
	members = append(members, nft)
	if err := m.putRLP(collectionMembersKey(collection), members); err != nil {
		return err
	}
	return m.putRLP(collectionOfKey(nft), collection)
}

// CollectionOf returns the collection nft belongs to.
func (m *Manager) CollectionOf(nft [20]byte) ([20]byte, bool, error) {
	var collection [20]byte
	ok, err := m.getRLP(collectionOfKey(nft), &collection)
	return collection, ok, err
}

// CollectionMembers lists the NFTs of a collection in registration order.
func (m *Manager) CollectionMembers(collection [20]byte) ([][20]byte, error) {
	var members [][20]byte
	if _, err := m.getRLP(collectionMembersKey(collection), &members); err != nil {
		return nil, err
	}
	return members, nil
}
