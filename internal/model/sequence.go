package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSequence claims one issued document number. Rows are never deleted,
// even when the owning document is soft-deleted, so a retired number can
// never be reissued. The composite unique index is the concurrency guard:
// two creators computing the same next sequence collide here and one retries.
type DocumentSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Prefix    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_claim,priority:1" json:"prefix"`
	Period    string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_sequence_claim,priority:2" json:"period"`
	Sequence  int64     `gorm:"not null;uniqueIndex:idx_sequence_claim,priority:3" json:"sequence"`
	Number    string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"number"`
	CreatedAt time.Time `json:"created_at"`
}
