package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions for the document workflow and ledgers.
const (
	ActionCreateDocument    = "CREATE_DOCUMENT"
	ActionTransition        = "TRANSITION_DOCUMENT"
	ActionConvert           = "CONVERT_DOCUMENT"
	ActionDeleteDocument    = "DELETE_DOCUMENT"
	ActionAddPayment        = "ADD_PAYMENT"
	ActionRemovePayment     = "REMOVE_PAYMENT"
	ActionAdjustStock       = "ADJUST_STOCK"
	ActionRecomputeStock    = "RECOMPUTE_STOCK"
	ActionRecomputeBalance  = "RECOMPUTE_BALANCE"
	ActionIntegrityMismatch = "INTEGRITY_MISMATCH"
)

// AuditLog tracks who did what and when for every mutating operation. Written
// inside the same transaction as the mutation it describes.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(30);index" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
