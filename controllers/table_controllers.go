package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type TableController struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
}

func NewTableController(db *gorm.DB, checkout *services.CheckoutService) *TableController {
	return &TableController{DB: db, Checkout: checkout}
}

// ---- HALLS ----

func (tc *TableController) GetHalls(c *gin.Context) {
	var halls []models.Hall
	if err := tc.DB.Find(&halls).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of halls", halls)
}

func (tc *TableController) CreateHall(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hall := models.Hall{Name: req.Name}
	if err := tc.DB.Create(&hall).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventHalls, nil)
	utils.InfoLogger.Printf("New hall created: %s", hall.Name)
	utils.RespondJSON(c, http.StatusCreated, "Hall created", hall)
}

// DeleteHall menghapus zal beserta semua mejanya.
func (tc *TableController) DeleteHall(c *gin.Context) {
	hallID := c.Param("hall_id")

	var hall models.Hall
	if err := tc.DB.First(&hall, hallID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hall_id = ?", hall.ID).Delete(&models.Table{}).Error; err != nil {
			return err
		}
		return tx.Delete(&hall).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventHalls, nil)
	realtime.Notify(realtime.EventTables, nil)
	utils.RespondJSON(c, http.StatusOK, "Hall deleted", gin.H{"id": hall.ID})
}

// ---- TABLES ----

func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	query := tc.DB
	if hallID := c.Query("hall_id"); hallID != "" {
		query = query.Where("hall_id = ?", hallID)
	}
	if err := query.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		HallID uint   `json:"hall_id" binding:"required"`
		Name   string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var hall models.Hall
	if err := tc.DB.First(&hall, req.HallID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("hall not found"))
		return
	}

	table := models.Table{
		HallID: req.HallID,
		Name:   req.Name,
		Status: models.TableStatusFree,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventTables, nil)
	utils.InfoLogger.Printf("New table created: %s (hall=%d)", table.Name, table.HallID)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventTables, nil)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

// UpdateGuests -> set jumlah tamu; ini juga membuka sesi kalau meja masih free.
func (tc *TableController) UpdateGuests(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Count < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("guest count must not be negative"))
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	updates := map[string]interface{}{
		"guests": req.Count,
		"status": models.TableStatusOccupied,
	}
	if table.StartTime == nil {
		updates["start_time"] = time.Now()
	}
	if err := tc.DB.Model(&table).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventTables, nil)
	utils.RespondJSON(c, http.StatusOK, "Guest count updated", gin.H{"table_id": table.ID, "guests": req.Count})
}

func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	tableID := c.Param("table_id")
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	switch body.Status {
	case models.TableStatusFree, models.TableStatusOccupied, models.TableStatusPayment:
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table status"))
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := tc.DB.Model(&table).Update("status", body.Status).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventTables, nil)
	utils.InfoLogger.Printf("Table %d status changed to %s", table.ID, body.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// CloseTable -> batalkan sesi tanpa settlement (tidak ada sale record).
func (tc *TableController) CloseTable(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	if err := tc.Checkout.CloseTable(uint(tableID)); err != nil {
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d closed without settlement", tableID)
	utils.RespondJSON(c, http.StatusOK, "Table closed", gin.H{"table_id": tableID})
}
