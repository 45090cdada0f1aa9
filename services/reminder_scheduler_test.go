package services

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/models"
)

func okSMSServer(sends *atomic.Int32) http.Handler {
	handler := http.NewServeMux()
	handler.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"tok-1"}}`))
	})
	handler.HandleFunc("/message/sms/send", func(w http.ResponseWriter, r *http.Request) {
		sends.Add(1)
		w.Write([]byte(`{"status":"waiting"}`))
	})
	return handler
}

func at(hour int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
}

func TestSchedulerRunsOnceADayAtConfiguredHour(t *testing.T) {
	db := setupTestDB(t)

	var sends atomic.Int32
	sms := newTestSMSService(t, db, okSMSServer(&sends))

	require.NoError(t, db.Create(&models.SMSTemplate{
		Type: models.SMSTypeBirthday, Content: "Happy birthday, {name}!", IsActive: true,
	}).Error)

	birthday := time.Date(1990, time.Now().Month(), time.Now().Day(), 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Customer{
		Name: "Karim", Phone: "998901234567", Birthday: &birthday,
	}).Error)

	rs := NewReminderScheduler(db, sms)

	// Di luar jam run tidak terjadi apa-apa.
	rs.tick(at(8))
	assert.EqualValues(t, 0, sends.Load())

	rs.tick(at(9))
	assert.EqualValues(t, 1, sends.Load())

	// Tick kedua di hari yang sama di-guard.
	rs.tick(at(9))
	assert.EqualValues(t, 1, sends.Load())
}

func TestDebtReminderSkipsRecentlyRemindedAndPaid(t *testing.T) {
	db := setupTestDB(t)

	var sends atomic.Int32
	sms := newTestSMSService(t, db, okSMSServer(&sends))

	require.NoError(t, db.Create(&models.SMSTemplate{
		Type: models.SMSTypeDebtReminder, Content: "{name}, you owe {amount}", IsActive: true,
	}).Error)

	customer := models.Customer{Name: "Karim", Phone: "998901234567", Debt: price(9000)}
	require.NoError(t, db.Create(&customer).Error)

	now := time.Now()
	overdue := now.AddDate(0, 0, -1)
	recentReminder := now.AddDate(0, 0, -1)
	oldReminder := now.AddDate(0, 0, -5)

	// Jatuh tempo, belum pernah di-remind -> kirim.
	due := models.CustomerDebt{CustomerID: customer.ID, Amount: price(3000), DueDate: &overdue}
	require.NoError(t, db.Create(&due).Error)
	// Baru di-remind kemarin -> skip.
	reminded := models.CustomerDebt{CustomerID: customer.ID, Amount: price(3000), DueDate: &overdue, LastSMSDate: &recentReminder}
	require.NoError(t, db.Create(&reminded).Error)
	// Sudah lunas -> skip.
	paid := models.CustomerDebt{CustomerID: customer.ID, Amount: price(3000), DueDate: &overdue, LastSMSDate: &oldReminder, IsPaid: true}
	require.NoError(t, db.Create(&paid).Error)

	rs := NewReminderScheduler(db, sms)
	rs.runDebtReminderCheck(now)

	assert.EqualValues(t, 1, sends.Load())

	var reloaded models.CustomerDebt
	require.NoError(t, db.First(&reloaded, due.ID).Error)
	assert.NotNil(t, reloaded.LastSMSDate)
}
