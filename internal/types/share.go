package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SharePosition is one depositor's claim on one pack. The pack's
// total_shares counter always equals the sum of its positions; every mint
// and burn updates both inside the same transaction.
type SharePosition struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID    string          `gorm:"not null;uniqueIndex:idx_position_pack_depositor;column:pack_id" json:"pack_id"`
	Depositor string          `gorm:"not null;uniqueIndex:idx_position_pack_depositor;column:depositor" json:"depositor"`
	Shares    decimal.Decimal `gorm:"type:numeric;not null;column:shares" json:"shares"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (SharePosition) TableName() string {
	return "share_position"
}
