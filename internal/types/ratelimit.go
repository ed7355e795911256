package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateLimitState tracks one (depositor, pack) pair's rolling-window deposit
// volume. The window resets lazily on the next deposit attempt after it
// expires; rows are never swept.
type RateLimitState struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID      string          `gorm:"not null;uniqueIndex:idx_rate_limit_pack_depositor;column:pack_id" json:"pack_id"`
	Depositor   string          `gorm:"not null;uniqueIndex:idx_rate_limit_pack_depositor;column:depositor" json:"depositor"`
	Volume      decimal.Decimal `gorm:"type:numeric;not null;column:volume" json:"volume"`
	WindowStart time.Time       `gorm:"not null;column:window_start" json:"window_start"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (RateLimitState) TableName() string {
	return "rate_limit_state"
}
