package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem adalah line item pada sesi meja yang masih terbuka.
// ProductName dan Price sengaja denormalized: rename/hapus produk atau
// perubahan harga belakangan tidak mengubah item yang sudah masuk.
// Semua item meja dihapus sekaligus saat checkout atau close.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TableID     uint            `gorm:"index;not null" json:"table_id"`
	Table       Table           `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Destination string          `gorm:"type:varchar(50);not null;default:'kitchen'" json:"destination"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

// LineTotal = harga satuan x jumlah.
func (oi *OrderItem) LineTotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
