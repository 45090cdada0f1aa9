package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
)

func setupTableRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	checkout := services.NewCheckoutService(db, nil)
	tableCtrl := controllers.NewTableController(db, checkout)

	router.GET("/tables", tableCtrl.GetAllTables)
	router.POST("/halls", tableCtrl.CreateHall)
	router.DELETE("/halls/:hall_id", tableCtrl.DeleteHall)
	router.POST("/tables", tableCtrl.CreateTable)
	router.PATCH("/tables/:table_id/guests", tableCtrl.UpdateGuests)
	router.PATCH("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	router.POST("/tables/:table_id/close", tableCtrl.CloseTable)
	return router
}

func patchJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest("PATCH", path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetAllTablesFiltersByHall(t *testing.T) {
	db := setupTestDB(t)
	hallA := models.Hall{Name: "Main"}
	hallB := models.Hall{Name: "Terrace"}
	require.NoError(t, db.Create(&hallA).Error)
	require.NoError(t, db.Create(&hallB).Error)
	require.NoError(t, db.Create(&models.Table{HallID: hallA.ID, Name: "A1", Status: models.TableStatusFree}).Error)
	require.NoError(t, db.Create(&models.Table{HallID: hallB.ID, Name: "B1", Status: models.TableStatusFree}).Error)

	router := setupTableRouter(db)
	req, _ := http.NewRequest("GET", "/tables?hall_id="+strconv.Itoa(int(hallA.ID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "List of tables", response["message"])
	assert.Len(t, response["data"].([]interface{}), 1)
}

func TestUpdateGuestsOpensSession(t *testing.T) {
	db := setupTestDB(t)
	table := seedHallTable(t, db)
	router := setupTableRouter(db)

	w := patchJSON(t, router, "/tables/"+strconv.Itoa(int(table.ID))+"/guests", gin.H{"count": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, 4, reloaded.Guests)
	assert.Equal(t, models.TableStatusOccupied, reloaded.Status)
	assert.NotNil(t, reloaded.StartTime)
}

func TestUpdateTableStatusValidatesEnum(t *testing.T) {
	db := setupTestDB(t)
	table := seedHallTable(t, db)
	router := setupTableRouter(db)

	w := patchJSON(t, router, "/tables/"+strconv.Itoa(int(table.ID))+"/status", gin.H{"status": "exploded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = patchJSON(t, router, "/tables/"+strconv.Itoa(int(table.ID))+"/status", gin.H{"status": models.TableStatusPayment})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCloseTableEndpointResetsSession(t *testing.T) {
	db := setupTestDB(t)
	table := seedHallTable(t, db)
	waiter := seedStaff(t, db, "Alice", "1234", models.RoleWaiter)

	orders := services.NewOrderService(db, nil)
	_, _, err := orders.AddItems(table.ID, []services.IncomingItem{
		{Name: "Plov", Price: mustDecimal("3500"), Qty: 1},
	}, &waiter.ID)
	require.NoError(t, err)

	router := setupTableRouter(db)
	w := postJSON(t, router, "/tables/"+strconv.Itoa(int(table.ID))+"/close", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusFree, reloaded.Status)

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)
}

func TestDeleteHallCascadesTables(t *testing.T) {
	db := setupTestDB(t)
	table := seedHallTable(t, db)
	router := setupTableRouter(db)

	req, _ := http.NewRequest("DELETE", "/halls/"+strconv.Itoa(int(table.HallID)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tableCount int64
	db.Model(&models.Table{}).Count(&tableCount)
	assert.Zero(t, tableCount)
}
