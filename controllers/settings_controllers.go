package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type SettingsController struct {
	DB  *gorm.DB
	SMS *services.SMSService
}

func NewSettingsController(db *gorm.DB, sms *services.SMSService) *SettingsController {
	return &SettingsController{DB: db, SMS: sms}
}

// GetSettings -> seluruh settings sebagai map key->value.
// Password SMS tidak ikut dikirim ke client.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	var settings []models.Setting
	if err := sc.DB.Find(&settings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		if s.Key == models.SettingEskizPassword {
			continue
		}
		result[s.Key] = s.Value
	}
	utils.RespondJSON(c, http.StatusOK, "Settings", result)
}

// SaveSettings -> upsert key/value dalam satu transaksi. Kalau kredensial
// SMS ikut berubah, token cache di-reset supaya login ulang.
func (sc *SettingsController) SaveSettings(c *gin.Context) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	smsChanged := false
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		for key, value := range body {
			if key == "" {
				continue
			}
			if strings.HasPrefix(key, "eskiz_") {
				smsChanged = true
			}
			setting := models.Setting{Key: key, Value: value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if smsChanged && sc.SMS != nil {
		sc.SMS.ResetToken()
	}

	realtime.Notify(realtime.EventSettings, nil)
	utils.InfoLogger.Println("Settings saved")
	utils.RespondJSON(c, http.StatusOK, "Settings saved", nil)
}

// ---- KITCHENS (stations) ----

func (sc *SettingsController) GetKitchens(c *gin.Context) {
	var kitchens []models.Kitchen
	if err := sc.DB.Find(&kitchens).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of kitchens", kitchens)
}

// SaveKitchen -> insert baru atau update (id != 0).
func (sc *SettingsController) SaveKitchen(c *gin.Context) {
	var req struct {
		ID          uint   `json:"id"`
		Name        string `json:"name" binding:"required"`
		PrinterIP   string `json:"printer_ip"`
		PrinterPort int    `json:"printer_port"`
		PrinterType string `json:"printer_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.PrinterPort == 0 {
		req.PrinterPort = 9100
	}
	if req.PrinterType == "" {
		req.PrinterType = "driver"
	}

	if req.ID != 0 {
		var kitchen models.Kitchen
		if err := sc.DB.First(&kitchen, req.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		err := sc.DB.Model(&kitchen).Updates(map[string]interface{}{
			"name":         req.Name,
			"printer_ip":   req.PrinterIP,
			"printer_port": req.PrinterPort,
			"printer_type": req.PrinterType,
		}).Error
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		realtime.Notify(realtime.EventKitchens, nil)
		utils.InfoLogger.Printf("Kitchen updated: %s", req.Name)
		utils.RespondJSON(c, http.StatusOK, "Kitchen updated", kitchen)
		return
	}

	kitchen := models.Kitchen{
		Name:        req.Name,
		PrinterIP:   req.PrinterIP,
		PrinterPort: req.PrinterPort,
		PrinterType: req.PrinterType,
	}
	if err := sc.DB.Create(&kitchen).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventKitchens, nil)
	utils.InfoLogger.Printf("New kitchen: %s", kitchen.Name)
	utils.RespondJSON(c, http.StatusCreated, "Kitchen created", kitchen)
}

// DeleteKitchen -> hapus station; destination produk yang menunjuk station
// ini dikosongkan supaya resolver jatuh ke default.
func (sc *SettingsController) DeleteKitchen(c *gin.Context) {
	var kitchen models.Kitchen
	if err := sc.DB.First(&kitchen, c.Param("kitchen_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("destination = ?", c.Param("kitchen_id")).
			Update("destination", "").Error; err != nil {
			return err
		}
		return tx.Delete(&kitchen).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventKitchens, nil)
	realtime.Notify(realtime.EventProducts, nil)
	utils.InfoLogger.Printf("Kitchen deleted: id %d", kitchen.ID)
	utils.RespondJSON(c, http.StatusOK, "Kitchen deleted", gin.H{"id": kitchen.ID})
}
