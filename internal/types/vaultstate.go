package types

import "time"

// VaultState is a single-row table carrying the vault-wide pause switch.
// Persisting it keeps a pause in force across restarts.
type VaultState struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Paused      bool      `gorm:"not null;default:false;column:paused" json:"paused"`
	PauseReason string    `gorm:"column:pause_reason" json:"pause_reason"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (VaultState) TableName() string {
	return "vault_state"
}
