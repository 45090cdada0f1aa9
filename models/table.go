package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table statuses mengikuti lifecycle sesi makan
const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
	TableStatusPayment  = "payment"
)

type Hall struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Table adalah sesi makan: status, check number dan total berjalan hidup
// selama sesi, lalu di-reset atomik saat checkout/close.
type Table struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	HallID             uint            `gorm:"index;not null" json:"hall_id"`
	Hall               Hall            `gorm:"foreignKey:HallID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name               string          `gorm:"type:varchar(50);not null" json:"name"`
	Status             string          `gorm:"type:varchar(20);not null;default:'free';index" json:"status"`
	StartTime          *time.Time      `json:"start_time,omitempty"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_amount"`
	CurrentCheckNumber int             `gorm:"not null;default:0" json:"current_check_number"`
	// WaiterID nil berarti belum ada waiter yang claim meja ini.
	WaiterID   *uint     `json:"waiter_id,omitempty"`
	WaiterName string    `gorm:"type:varchar(100)" json:"waiter_name"`
	Guests     int       `gorm:"not null;default:0" json:"guests"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// HasOpenSession melapor apakah meja sedang membawa check number aktif.
func (t *Table) HasOpenSession() bool {
	return t.CurrentCheckNumber > 0
}

// ResetSession mengembalikan meja ke kondisi free: semua field sesi
// kosong dalam satu assignment.
func (t *Table) ResetSession() {
	t.Status = TableStatusFree
	t.StartTime = nil
	t.TotalAmount = decimal.Zero
	t.CurrentCheckNumber = 0
	t.WaiterID = nil
	t.WaiterName = ""
	t.Guests = 0
}

// SessionFieldsForReset dipakai gorm Updates supaya kolom zero-value ikut
// tertulis saat reset.
func (t *Table) SessionFieldsForReset() map[string]interface{} {
	return map[string]interface{}{
		"status":               TableStatusFree,
		"start_time":           nil,
		"total_amount":         decimal.Zero,
		"current_check_number": 0,
		"waiter_id":            nil,
		"waiter_name":          "",
		"guests":               0,
	}
}
