package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type SMSController struct {
	DB  *gorm.DB
	SMS *services.SMSService
}

func NewSMSController(db *gorm.DB, sms *services.SMSService) *SMSController {
	return &SMSController{DB: db, SMS: sms}
}

func (sc *SMSController) GetTemplates(c *gin.Context) {
	var templates []models.SMSTemplate
	if err := sc.DB.Find(&templates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "SMS templates", templates)
}

func (sc *SMSController) UpdateTemplate(c *gin.Context) {
	var req struct {
		Type     string `json:"type" binding:"required"`
		Content  string `json:"content" binding:"required"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var template models.SMSTemplate
	if err := sc.DB.Where("type = ?", req.Type).First(&template).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	updates := map[string]interface{}{"content": req.Content}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := sc.DB.Model(&template).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("SMS template updated: %s", req.Type)
	utils.RespondJSON(c, http.StatusOK, "Template updated", template)
}

// GetHistory -> 100 log pengiriman terakhir.
func (sc *SMSController) GetHistory(c *gin.Context) {
	var logs []models.SMSLog
	if err := sc.DB.Order("id desc").Limit(100).Find(&logs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "SMS history", logs)
}

// SendOne -> kirim satu SMS manual.
func (sc *SMSController) SendOne(c *gin.Context) {
	var req struct {
		Phone   string `json:"phone" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := sc.SMS.Send(req.Phone, req.Message, models.SMSTypeManual); err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "SMS sent", nil)
}

// Broadcast -> kirim ke semua customer ber-nomor; jalan di background
// karena bisa makan waktu lama (rate limit provider).
func (sc *SMSController) Broadcast(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	go func(message string) {
		if _, _, err := sc.SMS.Broadcast(message); err != nil {
			utils.ErrorLogger.Printf("Broadcast failed: %v", err)
		}
	}(req.Message)

	utils.RespondJSON(c, http.StatusAccepted, "Broadcast started", nil)
}
