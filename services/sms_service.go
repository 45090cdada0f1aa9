package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Endpoint Eskiz; var supaya test bisa mengarahkan ke server lokal.
var (
	eskizLoginURL = "https://notify.eskiz.uz/api/auth/login"
	eskizSendURL  = "https://notify.eskiz.uz/api/message/sms/send"
)

var phoneDigits = regexp.MustCompile(`\D`)

// SMSService adalah client Eskiz.uz dengan cache bearer token. Token yang
// kadaluarsa (401) memicu satu kali re-login lalu retry; lebih dari itu
// dianggap gagal. Kredensial dibaca dari settings di database.
type SMSService struct {
	DB         *gorm.DB
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

var (
	smsService *SMSService
	smsOnce    sync.Once
)

// GetSMSService mengembalikan singleton; db hanya dipakai di inisialisasi
// pertama.
func GetSMSService(db *gorm.DB) *SMSService {
	smsOnce.Do(func() {
		smsService = &SMSService{
			DB:         db,
			httpClient: &http.Client{Timeout: 15 * time.Second},
		}
	})
	return smsService
}

// ResetToken membuang token cache; dipanggil saat kredensial diganti.
func (ss *SMSService) ResetToken() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.token = ""
}

func (ss *SMSService) credentials() (email, password, nickname string) {
	nickname = "4546"
	var settings []models.Setting
	if err := ss.DB.Where("`key` IN ?", []string{
		models.SettingEskizEmail, models.SettingEskizPassword, models.SettingEskizNickname,
	}).Find(&settings).Error; err != nil {
		utils.ErrorLogger.Printf("SMS credentials lookup failed: %v", err)
		return
	}
	for _, s := range settings {
		switch s.Key {
		case models.SettingEskizEmail:
			email = s.Value
		case models.SettingEskizPassword:
			password = s.Value
		case models.SettingEskizNickname:
			if s.Value != "" {
				nickname = s.Value
			}
		}
	}
	return
}

// FormatPhone menormalkan nomor ke format 998XXXXXXXXX (12 digit).
func FormatPhone(phone string) (string, error) {
	clean := phoneDigits.ReplaceAllString(phone, "")
	if len(clean) == 9 {
		clean = "998" + clean
	}
	if len(clean) != 12 {
		return "", fmt.Errorf("invalid phone number %q: expected 12 digits like 998901234567", phone)
	}
	return clean, nil
}

func (ss *SMSService) postForm(url, token string, fields map[string]string) (*http.Response, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ss.httpClient.Do(req)
}

// login ke Eskiz dan simpan token di cache.
func (ss *SMSService) login() error {
	email, password, _ := ss.credentials()
	if email == "" || password == "" {
		return errors.New("sms credentials not configured")
	}

	resp, err := ss.postForm(eskizLoginURL, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("eskiz login: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Data.Token == "" {
		return fmt.Errorf("eskiz login: no token in response (status %d)", resp.StatusCode)
	}

	ss.mu.Lock()
	ss.token = parsed.Data.Token
	ss.mu.Unlock()

	utils.InfoLogger.Println("SMS service: logged in to Eskiz")
	return nil
}

func (ss *SMSService) logAttempt(phone, message, status, smsType string) {
	entry := models.SMSLog{
		Phone:   phone,
		Message: message,
		Status:  status,
		Date:    time.Now(),
		Type:    smsType,
	}
	if err := ss.DB.Create(&entry).Error; err != nil {
		utils.ErrorLogger.Printf("SMS log write failed: %v", err)
	}
}

// Send mengirim satu SMS. Retry maksimal satu kali, hanya untuk 401
// (token kadaluarsa), sesuai kontrak single-retry-after-reauthorization.
func (ss *SMSService) Send(phone, message, smsType string) error {
	return ss.send(phone, message, smsType, 0)
}

func (ss *SMSService) send(phone, message, smsType string, retryCount int) error {
	cleanPhone, err := FormatPhone(phone)
	if err != nil {
		return err
	}
	_, _, nickname := ss.credentials()

	ss.mu.Lock()
	token := ss.token
	ss.mu.Unlock()

	if token == "" {
		if err := ss.login(); err != nil {
			ss.logAttempt(cleanPhone, message, "failed", smsType)
			return err
		}
		ss.mu.Lock()
		token = ss.token
		ss.mu.Unlock()
	}

	resp, err := ss.postForm(eskizSendURL, token, map[string]string{
		"mobile_phone": cleanPhone,
		"message":      message,
		"from":         nickname,
	})
	if err != nil {
		ss.logAttempt(cleanPhone, message, "failed", smsType)
		return fmt.Errorf("eskiz send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && retryCount < 1 {
		utils.InfoLogger.Println("SMS service: token expired, re-authorizing")
		ss.ResetToken()
		return ss.send(phone, message, smsType, retryCount+1)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		ss.logAttempt(cleanPhone, message, "failed", smsType)
		return fmt.Errorf("eskiz send: status %d: %s", resp.StatusCode, string(raw))
	}

	ss.logAttempt(cleanPhone, message, "sent", smsType)
	utils.InfoLogger.Printf("SMS sent to %s (%s)", cleanPhone, smsType)
	return nil
}

// Broadcast mengirim pesan ke semua customer yang punya nomor telepon,
// dengan jeda antar kirim supaya tidak melewati rate limit provider.
// Return jumlah terkirim dan gagal.
func (ss *SMSService) Broadcast(message string) (sent, failed int, err error) {
	var customers []models.Customer
	if err := ss.DB.Where("phone IS NOT NULL AND phone != ''").Find(&customers).Error; err != nil {
		return 0, 0, err
	}

	for _, customer := range customers {
		time.Sleep(500 * time.Millisecond)
		if sendErr := ss.Send(customer.Phone, message, models.SMSTypeNews); sendErr != nil {
			failed++
			utils.ErrorLogger.Printf("Broadcast to %s (%s) failed: %v", customer.Name, customer.Phone, sendErr)
			continue
		}
		sent++
	}

	utils.InfoLogger.Printf("Broadcast done: %d sent, %d failed", sent, failed)
	return sent, failed, nil
}
