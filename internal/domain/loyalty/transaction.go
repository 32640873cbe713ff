package loyalty

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartstore/backend/internal/domain/shared"
)

// TransactionType classifies a loyalty ledger entry
type TransactionType string

const (
	TransactionEarn    TransactionType = "EARN"
	TransactionRedeem  TransactionType = "REDEEM"
	TransactionAdjust  TransactionType = "ADJUST"
	TransactionReverse TransactionType = "REVERSE"
)

// Transaction is an immutable loyalty ledger entry. Points is signed.
type Transaction struct {
	shared.TenantEntity
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_loyalty_tx_customer"`
	OrderID      *uuid.UUID      `gorm:"type:uuid;index:idx_loyalty_tx_order"`
	Type         TransactionType `gorm:"size:20;not null"`
	Points       int64           `gorm:"not null"`
	BalanceAfter int64           `gorm:"not null"`
	Description  string          `gorm:"size:500"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "loyalty_transactions"
}

// NewTransaction records a ledger entry
func NewTransaction(tenantID, customerID uuid.UUID, orderID *uuid.UUID, txType TransactionType, points, balanceAfter int64, description string) *Transaction {
	return &Transaction{
		TenantEntity: shared.NewTenantEntity(tenantID),
		CustomerID:   customerID,
		OrderID:      orderID,
		Type:         txType,
		Points:       points,
		BalanceAfter: balanceAfter,
		Description:  description,
	}
}

// PointsForAmount converts an order amount to earned points, rounding down
func PointsForAmount(amount, earnRate decimal.Decimal) int64 {
	if amount.IsNegative() || earnRate.IsNegative() {
		return 0
	}
	return amount.Mul(earnRate).Floor().IntPart()
}

// ValueOfPoints converts points to a currency discount
func ValueOfPoints(points int64, redeemRate decimal.Decimal) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(points).Mul(redeemRate).Round(2)
}
