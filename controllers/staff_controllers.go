package controllers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

type StaffController struct {
	DB *gorm.DB
}

func NewStaffController(db *gorm.DB) *StaffController {
	return &StaffController{DB: db}
}

// Login -> staff masuk dengan PIN, return JWT.
// PIN disimpan sebagai bcrypt hash, jadi harus dicek per user.
func (sc *StaffController) Login(c *gin.Context) {
	var req struct {
		PIN string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !pinPattern.MatchString(req.PIN) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("PIN must be 4-6 digits"))
		return
	}

	var users []models.User
	if err := sc.DB.Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var found *models.User
	for i := range users {
		if bcrypt.CompareHashAndPassword([]byte(users[i].PinHash), []byte(req.PIN)) == nil {
			found = &users[i]
			break
		}
	}
	if found == nil {
		utils.InfoLogger.Println("Login attempt with wrong PIN")
		utils.RespondError(c, http.StatusUnauthorized, errors.New("wrong PIN"))
		return
	}

	token, err := utils.GenerateToken(found.ID, found.Name, found.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login: %s (%s)", found.Name, found.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"id":    found.ID,
		"name":  found.Name,
		"role":  found.Role,
		"token": token,
	})
}

func (sc *StaffController) GetUsers(c *gin.Context) {
	var users []models.User
	if err := sc.DB.Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All staff", users)
}

// SaveUser -> tambah staff baru atau update yang ada (id != 0).
// PIN baru dicek duplikat terhadap semua user sebelum disimpan.
func (sc *StaffController) SaveUser(c *gin.Context) {
	var req struct {
		ID   uint   `json:"id"`
		Name string `json:"name" binding:"required"`
		PIN  string `json:"pin"`
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch req.Role {
	case models.RoleAdmin, models.RoleCashier, models.RoleWaiter:
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("unknown role"))
		return
	}

	if req.PIN != "" {
		if !pinPattern.MatchString(req.PIN) {
			utils.RespondError(c, http.StatusBadRequest, errors.New("PIN must be 4-6 digits"))
			return
		}

		// PIN harus unik antar staff
		var users []models.User
		if err := sc.DB.Find(&users).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		for _, u := range users {
			if u.ID == req.ID {
				continue
			}
			if bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(req.PIN)) == nil {
				utils.RespondError(c, http.StatusConflict, errors.New("this PIN is already in use"))
				return
			}
		}
	}

	if req.ID != 0 {
		var user models.User
		if err := sc.DB.First(&user, req.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}

		updates := map[string]interface{}{"name": req.Name, "role": req.Role}
		if req.PIN != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
			if err != nil {
				utils.RespondError(c, http.StatusInternalServerError, err)
				return
			}
			updates["pin_hash"] = string(hashed)
		}
		if err := sc.DB.Model(&user).Updates(updates).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}

		realtime.Notify(realtime.EventUsers, nil)
		utils.InfoLogger.Printf("Staff updated: %s (%s)", req.Name, req.Role)
		utils.RespondJSON(c, http.StatusOK, "Staff updated", gin.H{"id": user.ID})
		return
	}

	if req.PIN == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("PIN is required for new staff"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{Name: req.Name, PinHash: string(hashed), Role: req.Role}
	if err := sc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventUsers, nil)
	utils.InfoLogger.Printf("New staff: %s (%s)", user.Name, user.Role)
	utils.RespondJSON(c, http.StatusCreated, "Staff created", gin.H{"id": user.ID})
}

// DeleteUser -> hapus staff; admin terakhir tidak boleh dihapus.
func (sc *StaffController) DeleteUser(c *gin.Context) {
	var user models.User
	if err := sc.DB.First(&user, c.Param("user_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if user.Role == models.RoleAdmin {
		var adminCount int64
		sc.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount)
		if adminCount <= 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("cannot delete the last admin"))
			return
		}
	}

	if err := sc.DB.Delete(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventUsers, nil)
	utils.InfoLogger.Printf("Staff deleted: %s (id=%d)", user.Name, user.ID)
	utils.RespondJSON(c, http.StatusOK, "Staff deleted", gin.H{"id": user.ID})
}
