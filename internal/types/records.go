package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Records are the ledger's emitted audit trail. They are written inside the
// mutating transaction and mirrored to the event bus after commit for
// external indexing.

type PackCreatedRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackID    string    `gorm:"not null;index;column:pack_id" json:"pack_id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PackCreatedRecord) TableName() string {
	return "pack_created_record"
}

type DepositRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID       string          `gorm:"not null;index;column:pack_id" json:"pack_id"`
	Depositor    string          `gorm:"not null;index;column:depositor" json:"depositor"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null;column:amount" json:"amount"`
	SharesMinted decimal.Decimal `gorm:"type:numeric;not null;column:shares_minted" json:"shares_minted"`
	ReferenceID  string          `gorm:"column:reference_id" json:"reference_id"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (DepositRecord) TableName() string {
	return "deposit_record"
}

type WithdrawalRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PackID          string          `gorm:"not null;index;column:pack_id" json:"pack_id"`
	Depositor       string          `gorm:"not null;index;column:depositor" json:"depositor"`
	SharesBurned    decimal.Decimal `gorm:"type:numeric;not null;column:shares_burned" json:"shares_burned"`
	SettlementValue decimal.Decimal `gorm:"type:numeric;not null;column:settlement_value" json:"settlement_value"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (WithdrawalRecord) TableName() string {
	return "withdrawal_record"
}

type RebalanceRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackID      string    `gorm:"not null;index;column:pack_id" json:"pack_id"`
	Allocations string    `gorm:"not null;column:allocations" json:"allocations"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (RebalanceRecord) TableName() string {
	return "rebalance_record"
}

type PauseRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action    string    `gorm:"not null;column:action" json:"action"`
	Reason    string    `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PauseRecord) TableName() string {
	return "pause_record"
}

type EmergencyWithdrawalRecord struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Asset     string          `gorm:"not null;column:asset" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null;column:amount" json:"amount"`
	Recipient string          `gorm:"not null;column:recipient" json:"recipient"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (EmergencyWithdrawalRecord) TableName() string {
	return "emergency_withdrawal_record"
}
