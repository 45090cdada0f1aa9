package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Orders   *services.OrderService
	Checkout *services.CheckoutService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService, checkout *services.CheckoutService) *OrderController {
	return &OrderController{DB: db, Orders: orders, Checkout: checkout}
}

// GetTableItems -> list item sesi terbuka satu meja
func (oc *OrderController) GetTableItems(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	items, err := oc.Orders.GetTableItems(uint(tableID))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table items", items)
}

// AddItems -> waiter/kasir menambahkan batch item (satu transaksi, semua
// atau tidak sama sekali). Trigger print dapur async.
func (oc *OrderController) AddItems(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	var body struct {
		Items    []services.IncomingItem `json:"items" binding:"required"`
		WaiterID *uint                   `json:"waiter_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// waiter_id fallback ke user yang login
	waiterID := body.WaiterID
	if waiterID == nil {
		if userIDVal, exists := c.Get("user_id"); exists {
			if userID, ok := userIDVal.(uint); ok {
				waiterID = &userID
			}
		}
	}

	accepted, checkNumber, err := oc.Orders.AddItems(uint(tableID), body.Items, waiterID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrInvalidItem):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.ErrorLogger.Printf("AddItems failed for table %d: %v", tableID, err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("data conflict, order not saved"))
		}
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Items added", gin.H{
		"check_number": checkNumber,
		"items":        accepted,
	})
}

// PrintCheck -> cetak tagihan dan flip meja ke status payment
func (oc *OrderController) PrintCheck(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	checkNumber, err := oc.Checkout.PrintCheck(uint(tableID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, services.ErrNoOpenItems):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Bill printed", gin.H{"check_number": checkNumber})
}

// DoCheckout -> settlement final: sale record, ledger customer, reset meja.
func (oc *OrderController) DoCheckout(c *gin.Context) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.TableID = uint(tableID)

	checkNumber, err := oc.Checkout.Checkout(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound), errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, models.ErrUnknownPaymentMethod), errors.Is(err, services.ErrInvalidAmount):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.ErrorLogger.Printf("Checkout failed for table %d: %v", req.TableID, err)
			utils.RespondError(c, http.StatusInternalServerError, errors.New("data conflict, checkout not saved"))
		}
		return
	}

	utils.InfoLogger.Printf("Checkout done: table %d, check #%d, method %s",
		req.TableID, checkNumber, req.PaymentMethod)
	utils.RespondJSON(c, http.StatusOK, "Checkout complete", gin.H{"check_number": checkNumber})
}

// GetSales -> daftar sales, optional ?start=...&end=... (RFC3339)
func (oc *OrderController) GetSales(c *gin.Context) {
	var start, end *time.Time
	if s := c.Query("start"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			start = &parsed
		}
	}
	if e := c.Query("end"); e != "" {
		if parsed, err := time.Parse(time.RFC3339, e); err == nil {
			end = &parsed
		}
	}

	sales, err := oc.Checkout.GetSales(start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales", sales)
}
