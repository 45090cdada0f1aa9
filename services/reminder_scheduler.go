package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// ReminderScheduler menjalankan tugas harian jam 09:00: ucapan ulang tahun
// dan reminder hutang jatuh tempo. Ticker per menit; guard lastRunDay
// mencegah eksekusi dobel di hari yang sama.
type ReminderScheduler struct {
	DB         *gorm.DB
	SMS        *SMSService
	Interval   time.Duration
	RunHour    int
	StopChan   chan struct{}
	lastRunDay string
}

func NewReminderScheduler(db *gorm.DB, sms *SMSService) *ReminderScheduler {
	return &ReminderScheduler{
		DB:       db,
		SMS:      sms,
		Interval: time.Minute,
		RunHour:  9,
		StopChan: make(chan struct{}),
	}
}

func (rs *ReminderScheduler) Start() {
	go func() {
		ticker := time.NewTicker(rs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rs.tick(time.Now())
			case <-rs.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Println("Reminder scheduler started")
}

func (rs *ReminderScheduler) Stop() {
	close(rs.StopChan)
}

func (rs *ReminderScheduler) tick(now time.Time) {
	day := now.Format("2006-01-02")
	if now.Hour() != rs.RunHour || rs.lastRunDay == day {
		return
	}
	rs.lastRunDay = day

	utils.InfoLogger.Println("Running daily SMS tasks")
	rs.runBirthdayCheck(now)
	rs.runDebtReminderCheck(now)
}

func (rs *ReminderScheduler) activeTemplate(templateType string) *models.SMSTemplate {
	var template models.SMSTemplate
	err := rs.DB.Where("type = ? AND is_active = ?", templateType, true).First(&template).Error
	if err != nil {
		return nil
	}
	return &template
}

// runBirthdayCheck mengirim ucapan ke customer yang berulang tahun hari ini
// (bandingkan bulan-hari saja, tahun lahir berbeda-beda).
func (rs *ReminderScheduler) runBirthdayCheck(now time.Time) {
	template := rs.activeTemplate(models.SMSTypeBirthday)
	if template == nil {
		return
	}

	var customers []models.Customer
	if err := rs.DB.Where("birthday IS NOT NULL AND phone != ''").Find(&customers).Error; err != nil {
		utils.ErrorLogger.Printf("Birthday check query failed: %v", err)
		return
	}

	for _, customer := range customers {
		if customer.Birthday == nil {
			continue
		}
		if customer.Birthday.Month() != now.Month() || customer.Birthday.Day() != now.Day() {
			continue
		}
		msg := strings.ReplaceAll(template.Content, "{name}", customer.Name)
		if err := rs.SMS.Send(customer.Phone, msg, models.SMSTypeBirthday); err != nil {
			utils.ErrorLogger.Printf("Birthday SMS to %s failed: %v", customer.Name, err)
			continue
		}
		utils.InfoLogger.Printf("Birthday SMS sent: %s", customer.Name)
	}
}

// runDebtReminderCheck mengirim reminder untuk obligation yang jatuh tempo,
// belum lunas, dan belum di-remind dalam 3 hari terakhir.
func (rs *ReminderScheduler) runDebtReminderCheck(now time.Time) {
	template := rs.activeTemplate(models.SMSTypeDebtReminder)
	if template == nil {
		return
	}

	cutoff := now.AddDate(0, 0, -3)
	var debts []models.CustomerDebt
	err := rs.DB.
		Where("is_paid = ? AND due_date IS NOT NULL AND due_date <= ?", false, now).
		Where("last_sms_date IS NULL OR last_sms_date <= ?", cutoff).
		Find(&debts).Error
	if err != nil {
		utils.ErrorLogger.Printf("Debt reminder query failed: %v", err)
		return
	}

	for _, debt := range debts {
		var customer models.Customer
		if err := rs.DB.First(&customer, debt.CustomerID).Error; err != nil || customer.Phone == "" {
			continue
		}

		msg := strings.ReplaceAll(template.Content, "{name}", customer.Name)
		msg = strings.ReplaceAll(msg, "{amount}", utils.FormatCurrency(debt.Amount))

		if err := rs.SMS.Send(customer.Phone, msg, models.SMSTypeDebtReminder); err != nil {
			utils.ErrorLogger.Printf("Debt reminder to %s failed: %v", customer.Name, err)
			continue
		}

		if err := rs.DB.Model(&models.CustomerDebt{}).Where("id = ?", debt.ID).
			Update("last_sms_date", now).Error; err != nil {
			utils.ErrorLogger.Printf("Error marking reminder sent for debt %d: %v", debt.ID, err)
		}
		utils.InfoLogger.Printf("Debt reminder sent: %s", customer.Name)
	}
}
