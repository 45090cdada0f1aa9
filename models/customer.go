package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType menentukan program loyalitas pelanggan.
type CustomerType string

const (
	CustomerStandard CustomerType = "standard"
	CustomerCashback CustomerType = "cashback"
	CustomerDiscount CustomerType = "discount"
)

func (ct CustomerType) Valid() bool {
	switch ct {
	case CustomerStandard, CustomerCashback, CustomerDiscount:
		return true
	}
	return false
}

// Customer membawa dua counter berjalan: Debt (hutang belum dibayar) dan
// Balance (akumulasi cashback). Keduanya hanya dimutasi lewat operasi
// settlement, tidak pernah di-set langsung.
type Customer struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(100);not null" json:"name"`
	Phone     string          `gorm:"type:varchar(20)" json:"phone"`
	Debt      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"debt"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	Type      CustomerType    `gorm:"type:varchar(20);not null;default:'standard'" json:"type"`
	Value     int             `gorm:"not null;default:0" json:"value"` // persen cashback/discount
	Birthday  *time.Time      `json:"birthday,omitempty"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

// Tipe entry pada debt_history.
const (
	DebtEntryDebt    = "debt"
	DebtEntryPayment = "payment"
)

// DebtHistory append-only: satu baris per kenaikan hutang atau pembayaran.
type DebtHistory struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"index;not null" json:"customer_id"`
	Customer   Customer        `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Type       string          `gorm:"type:varchar(20);not null" json:"type"`
	Date       time.Time       `gorm:"not null" json:"date"`
	Comment    string          `gorm:"type:text" json:"comment"`
}

// CustomerDebt adalah obligation ber-due-date untuk reminder SMS.
// Terpisah dari counter Debt agregat; PayDebt menyelesaikan obligation
// paling tua dulu.
type CustomerDebt struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"index;not null" json:"customer_id"`
	Customer    Customer        `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	DueDate     *time.Time      `gorm:"index" json:"due_date,omitempty"`
	LastSMSDate *time.Time      `json:"last_sms_date,omitempty"`
	IsPaid      bool            `gorm:"not null;default:false;index" json:"is_paid"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}
