package models

// Setting adalah key/value konfigurasi runtime yang hidup di database,
// termasuk counter global next_check_number dan konfigurasi service charge.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// Key sozlama yang dipakai core pipeline.
const (
	SettingNextCheckNumber   = "next_check_number"
	SettingServiceChargeType = "serviceChargeType" // "percent" | "per_guest"
	SettingServiceChargeVal  = "serviceChargeValue"

	SettingEskizEmail    = "eskiz_email"
	SettingEskizPassword = "eskiz_password"
	SettingEskizNickname = "eskiz_nickname"
)

const (
	ServiceChargePercent  = "percent"
	ServiceChargePerGuest = "per_guest"
)
