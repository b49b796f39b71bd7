package indexer

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lukechampine.com/blake3"
)

// EventRecord is one published ledger event.
type EventRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex"`
	Type       string    `gorm:"size:64;index"`
	Config     string    `gorm:"size:96;index"`
	NFT        string    `gorm:"size:96;index"`
	Account    string    `gorm:"size:96;index"`
	Attributes string    `gorm:"type:text"`
	// Digest is the hex blake3 hash of Type and Attributes.
	Digest    string `gorm:"size:64"`
	CreatedAt time.Time
}

func eventDigest(eventType, attributes string) string {
	buf := make([]byte, 0, len(eventType)+1+len(attributes))
	buf = append(buf, eventType...)
	buf = append(buf, 0)
	buf = append(buf, attributes...)
	sum := blake3.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the stored digest still matches the record.
func (r EventRecord) Verify() bool {
	return r.Digest == eventDigest(r.Type, r.Attributes)
}

// AutoMigrate creates or updates the indexer tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{})
}
