package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod adalah closed set; string bebas dari client ditolak lewat Valid().
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDebt     PaymentMethod = "debt"
)

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

func (pm PaymentMethod) Valid() bool {
	switch pm {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentDebt:
		return true
	}
	return false
}

// Sale adalah record settlement yang immutable: dibuat sekali per checkout,
// tidak pernah diubah atau dihapus (audit trail). ItemsJSON menyimpan
// snapshot item yang terjual.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CheckNumber   int             `gorm:"not null;index" json:"check_number"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	CustomerID    *uint           `gorm:"index" json:"customer_id,omitempty"`
	WaiterName    string          `gorm:"type:varchar(100)" json:"waiter_name"`
	GuestCount    int             `gorm:"not null;default:0" json:"guest_count"`
	ItemsJSON     string          `gorm:"type:text" json:"items_json"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

// ServiceCharge direkonstruksi dari breakdown yang tersimpan.
func (s *Sale) ServiceCharge() decimal.Decimal {
	return s.TotalAmount.Sub(s.Subtotal.Sub(s.Discount))
}
