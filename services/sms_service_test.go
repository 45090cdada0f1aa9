package services

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
)

func newTestSMSService(t *testing.T, db *gorm.DB, handler http.Handler) *SMSService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	prevLogin, prevSend := eskizLoginURL, eskizSendURL
	eskizLoginURL = server.URL + "/auth/login"
	eskizSendURL = server.URL + "/message/sms/send"
	t.Cleanup(func() {
		eskizLoginURL, eskizSendURL = prevLogin, prevSend
	})

	require.NoError(t, db.Create(&models.Setting{Key: models.SettingEskizEmail, Value: "pos@example.uz"}).Error)
	require.NoError(t, db.Create(&models.Setting{Key: models.SettingEskizPassword, Value: "secret"}).Error)

	return &SMSService{
		DB:         db,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestFormatPhone(t *testing.T) {
	got, err := FormatPhone("+998 (90) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, "998901234567", got)

	// Nomor lokal 9 digit mendapat prefix negara.
	got, err = FormatPhone("901234567")
	require.NoError(t, err)
	assert.Equal(t, "998901234567", got)

	_, err = FormatPhone("12345")
	assert.Error(t, err)
}

func TestSendCachesTokenAcrossCalls(t *testing.T) {
	db := setupTestDB(t)

	var logins, sends atomic.Int32
	handler := http.NewServeMux()
	handler.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"data":{"token":"tok-1"}}`))
	})
	handler.HandleFunc("/message/sms/send", func(w http.ResponseWriter, r *http.Request) {
		sends.Add(1)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"waiting"}`))
	})

	sms := newTestSMSService(t, db, handler)

	require.NoError(t, sms.Send("998901234567", "hello", models.SMSTypeManual))
	require.NoError(t, sms.Send("998901234567", "again", models.SMSTypeManual))

	assert.EqualValues(t, 1, logins.Load())
	assert.EqualValues(t, 2, sends.Load())

	// Tiap percobaan tercatat di log dengan status sent.
	var logCount int64
	db.Model(&models.SMSLog{}).Where("status = ?", "sent").Count(&logCount)
	assert.EqualValues(t, 2, logCount)
}

func TestSendRetriesOnceAfterExpiredToken(t *testing.T) {
	db := setupTestDB(t)

	var logins, sends atomic.Int32
	handler := http.NewServeMux()
	handler.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Write([]byte(`{"data":{"token":"tok-fresh"}}`))
	})
	handler.HandleFunc("/message/sms/send", func(w http.ResponseWriter, r *http.Request) {
		// Kirim pertama ditolak 401, retry setelah re-login diterima.
		if sends.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"waiting"}`))
	})

	sms := newTestSMSService(t, db, handler)
	require.NoError(t, sms.Send("998901234567", "hello", models.SMSTypeManual))

	assert.EqualValues(t, 2, logins.Load())
	assert.EqualValues(t, 2, sends.Load())
}

func TestSendFailureIsLogged(t *testing.T) {
	db := setupTestDB(t)

	handler := http.NewServeMux()
	handler.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"token":"tok-1"}}`))
	})
	handler.HandleFunc("/message/sms/send", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	sms := newTestSMSService(t, db, handler)
	err := sms.Send("998901234567", "hello", models.SMSTypeManual)
	assert.Error(t, err)

	var logEntry models.SMSLog
	require.NoError(t, db.First(&logEntry).Error)
	assert.Equal(t, "failed", logEntry.Status)
}
