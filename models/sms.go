package models

import "time"

// Tipe template / log SMS.
const (
	SMSTypeManual       = "manual"
	SMSTypeNews         = "news"
	SMSTypeBirthday     = "birthday"
	SMSTypeDebtReminder = "debt_reminder"
)

type SMSTemplate struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Type     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"type"`
	Title    string `gorm:"type:varchar(100)" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
}

// SMSLog mencatat setiap percobaan kirim, sukses maupun gagal.
type SMSLog struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Phone   string    `gorm:"type:varchar(20)" json:"phone"`
	Message string    `gorm:"type:text" json:"message"`
	Status  string    `gorm:"type:varchar(20)" json:"status"` // sent | failed
	Date    time.Time `gorm:"not null" json:"date"`
	Type    string    `gorm:"type:varchar(50)" json:"type"`
}
