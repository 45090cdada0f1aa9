package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type CustomerController struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
}

func NewCustomerController(db *gorm.DB, checkout *services.CheckoutService) *CustomerController {
	return &CustomerController{DB: db, Checkout: checkout}
}

func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	var customers []models.Customer
	if err := cc.DB.Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone"`
		Type     string `json:"type"`
		Value    int    `json:"value"`
		Birthday string `json:"birthday"` // "2006-01-02"
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customerType := models.CustomerType(req.Type)
	if req.Type == "" {
		customerType = models.CustomerStandard
	}
	if !customerType.Valid() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("unknown customer type"))
		return
	}

	customer := models.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Type:    customerType,
		Value:   req.Value,
		Notes:   req.Notes,
		Debt:    decimal.Zero,
		Balance: decimal.Zero,
	}
	if req.Birthday != "" {
		if birthday, err := time.Parse("2006-01-02", req.Birthday); err == nil {
			customer.Birthday = &birthday
		}
	}

	if err := cc.DB.Create(&customer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventCustomers, nil)
	utils.RespondJSON(c, http.StatusCreated, "Customer created", customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := cc.DB.First(&customer, c.Param("customer_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		Type     *string `json:"type"`
		Value    *int    `json:"value"`
		Birthday *string `json:"birthday"`
		Notes    *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Type != nil {
		customerType := models.CustomerType(*req.Type)
		if !customerType.Valid() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("unknown customer type"))
			return
		}
		updates["type"] = customerType
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Birthday != nil {
		if *req.Birthday == "" {
			updates["birthday"] = nil
		} else if birthday, err := time.Parse("2006-01-02", *req.Birthday); err == nil {
			updates["birthday"] = birthday
		}
	}

	if err := cc.DB.Model(&customer).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventCustomers, customer.ID)
	utils.RespondJSON(c, http.StatusOK, "Customer updated", customer)
}

func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	var customer models.Customer
	if err := cc.DB.First(&customer, c.Param("customer_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := cc.DB.Delete(&customer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	realtime.Notify(realtime.EventCustomers, nil)
	utils.RespondJSON(c, http.StatusOK, "Customer deleted", gin.H{"id": customer.ID})
}

// GetDebtors -> customer dengan hutang > 0, plus due date obligation
// terdekat yang belum lunas.
func (cc *CustomerController) GetDebtors(c *gin.Context) {
	type debtorRow struct {
		models.Customer
		NextDueDate *time.Time `json:"next_due_date,omitempty"`
	}

	var customers []models.Customer
	if err := cc.DB.Where("debt > 0").Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	debtors := make([]debtorRow, 0, len(customers))
	for _, customer := range customers {
		row := debtorRow{Customer: customer}

		var obligation models.CustomerDebt
		err := cc.DB.Where("customer_id = ? AND is_paid = ? AND due_date IS NOT NULL", customer.ID, false).
			Order("due_date asc").First(&obligation).Error
		if err == nil {
			row.NextDueDate = obligation.DueDate
		}
		debtors = append(debtors, row)
	}

	utils.RespondJSON(c, http.StatusOK, "Debtors", debtors)
}

func (cc *CustomerController) GetDebtHistory(c *gin.Context) {
	customerID := c.Param("customer_id")
	var history []models.DebtHistory
	if err := cc.DB.Where("customer_id = ?", customerID).Order("id desc").Find(&history).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Debt history", history)
}

// PayDebt -> pembayaran hutang; melebihi saldo hutang ditolak.
func (cc *CustomerController) PayDebt(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid customer id"))
		return
	}

	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		Comment string          `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	newDebt, err := cc.Checkout.PayDebt(uint(customerID), req.Amount, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrDebtExceeded):
			utils.RespondError(c, http.StatusBadRequest, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.InfoLogger.Printf("Debt payment: customer %d, amount %s", customerID, req.Amount)
	utils.RespondJSON(c, http.StatusOK, "Debt paid", gin.H{"debt": newDebt})
}
