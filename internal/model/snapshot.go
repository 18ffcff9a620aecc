package model

import "time"

// LedgerSnapshot stores the serialised ledger under a stable key.
// Revision increases on every save so watchers can spot foreign writes.
type LedgerSnapshot struct {
	Key       string    `gorm:"type:varchar(100);primaryKey" json:"key"`
	Data      string    `gorm:"type:text;not null" json:"-"` // stored verbatim so byte comparison works
	Revision  int64     `gorm:"not null;default:0" json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LedgerSnapshot) TableName() string {
	return "ledger_snapshots"
}
