package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Product adalah katalog menu. Destination menyimpan id station (kitchen/bar)
// sebagai string; kosong berarti resolver memakai default station.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"index;not null" json:"category_id"`
	Category    Category        `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Destination string          `gorm:"type:varchar(50)" json:"destination"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// Kitchen adalah fulfillment station beserta printer-nya.
type Kitchen struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	PrinterIP   string    `gorm:"type:varchar(50)" json:"printer_ip"`
	PrinterPort int       `gorm:"not null;default:9100" json:"printer_port"`
	PrinterType string    `gorm:"type:varchar(20);not null;default:'driver'" json:"printer_type"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
