package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrDebtExceeded     = errors.New("payment exceeds current debt")
	ErrNoOpenItems      = errors.New("table has no open items")
)

// CheckoutRequest membawa breakdown finansial final dari kasir.
type CheckoutRequest struct {
	TableID       uint                 `json:"table_id"`
	Total         decimal.Decimal      `json:"total"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	CustomerID    *uint                `json:"customer_id,omitempty"`
	Items         []AcceptedItem       `json:"items"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
}

// CheckoutService adalah settlement engine: satu transaksi untuk sale record,
// mutasi ledger customer (hutang/cashback), hapus line items dan reset meja.
type CheckoutService struct {
	DB         *gorm.DB
	Dispatcher *PrintDispatcher
}

func NewCheckoutService(db *gorm.DB, dispatcher *PrintDispatcher) *CheckoutService {
	return &CheckoutService{DB: db, Dispatcher: dispatcher}
}

// Checkout memfinalkan sesi meja. Urutan di dalam transaksi:
// snapshot sesi -> insert Sale immutable -> branch hutang -> branch cashback
// -> hapus order items -> reset meja ke kondisi free. Struk dicetak
// async setelah commit; gagal print tidak membatalkan checkout.
func (s *CheckoutService) Checkout(req CheckoutRequest) (int, error) {
	if !req.PaymentMethod.Valid() {
		return 0, models.ErrUnknownPaymentMethod
	}
	if req.Total.IsNegative() || req.Subtotal.IsNegative() || req.Discount.IsNegative() {
		return 0, ErrInvalidAmount
	}

	var (
		checkNumber int
		waiterName  string
		guestCount  int
		tableName   string
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := lockForUpdate(tx).First(&table, req.TableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTableNotFound
			}
			return err
		}

		// Snapshot sesi sebelum ada mutasi apapun (untuk audit record).
		checkNumber = table.CurrentCheckNumber
		waiterName = table.WaiterName
		guestCount = table.Guests
		tableName = table.Name

		itemsJSON, err := json.Marshal(req.Items)
		if err != nil {
			return err
		}

		sale := models.Sale{
			CheckNumber:   checkNumber,
			Date:          time.Now(),
			TotalAmount:   req.Total,
			Subtotal:      req.Subtotal,
			Discount:      req.Discount,
			PaymentMethod: req.PaymentMethod,
			CustomerID:    req.CustomerID,
			WaiterName:    waiterName,
			GuestCount:    guestCount,
			ItemsJSON:     string(itemsJSON),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if req.CustomerID != nil {
			// Locking read: hutang dan saldo di-update dari nilai yang dibaca.
			var customer models.Customer
			if err := lockForUpdate(tx).First(&customer, *req.CustomerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCustomerNotFound
				}
				return err
			}

			if req.PaymentMethod == models.PaymentDebt {
				if err := tx.Model(&customer).
					Update("debt", customer.Debt.Add(req.Total)).Error; err != nil {
					return err
				}

				history := models.DebtHistory{
					CustomerID: customer.ID,
					Amount:     req.Total,
					Type:       models.DebtEntryDebt,
					Date:       sale.Date,
					Comment:    fmt.Sprintf("Sale #%d (%s)", checkNumber, waiterName),
				}
				if err := tx.Create(&history).Error; err != nil {
					return err
				}

				obligation := models.CustomerDebt{
					CustomerID: customer.ID,
					Amount:     req.Total,
					DueDate:    req.DueDate,
					IsPaid:     false,
					CreatedAt:  sale.Date,
				}
				if err := tx.Create(&obligation).Error; err != nil {
					return err
				}
			}

			if customer.Type == models.CustomerCashback && customer.Value > 0 {
				cashback := req.Total.
					Mul(decimal.NewFromInt(int64(customer.Value))).
					Div(decimal.NewFromInt(100))
				if err := tx.Model(&customer).
					Update("balance", customer.Balance.Add(cashback)).Error; err != nil {
					return err
				}
			}
		}

		// Line items sesi bersifat transient; snapshot-nya sudah di Sale.
		if err := tx.Where("table_id = ?", table.ID).
			Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Table{}).Where("id = ?", table.ID).
			Updates(table.SessionFieldsForReset()).Error
	})
	if err != nil {
		return 0, err
	}

	realtime.Notify(realtime.EventTables, nil)
	realtime.Notify(realtime.EventTableItems, req.TableID)
	realtime.Notify(realtime.EventSales, nil)
	if req.CustomerID != nil {
		realtime.Notify(realtime.EventCustomers, nil)
	}

	if s.Dispatcher != nil {
		service := req.Total.Sub(req.Subtotal.Sub(req.Discount))
		s.Dispatcher.EnqueueReceipt(ReceiptTicket{
			CheckNumber:   checkNumber,
			TableName:     tableName,
			WaiterName:    waiterName,
			Items:         req.Items,
			Subtotal:      req.Subtotal,
			Discount:      req.Discount,
			Service:       service,
			Total:         req.Total,
			PaymentMethod: req.PaymentMethod,
		})
	}

	return checkNumber, nil
}

// PayDebt mengurangi counter hutang agregat dan menyelesaikan obligation
// paling tua dulu. Pembayaran melebihi hutang ditolak sebelum ada mutasi.
func (s *CheckoutService) PayDebt(customerID uint, amount decimal.Decimal, comment string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	var newDebt decimal.Decimal
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := lockForUpdate(tx).First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		if amount.GreaterThan(customer.Debt) {
			return ErrDebtExceeded
		}

		newDebt = customer.Debt.Sub(amount)
		if err := tx.Model(&customer).Update("debt", newDebt).Error; err != nil {
			return err
		}

		history := models.DebtHistory{
			CustomerID: customer.ID,
			Amount:     amount,
			Type:       models.DebtEntryPayment,
			Date:       time.Now(),
			Comment:    comment,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		// Obligation tertua (by due date, lalu created_at) ditandai lunas
		// selama pembayaran masih menutup seluruh nominalnya.
		var obligations []models.CustomerDebt
		if err := tx.Where("customer_id = ? AND is_paid = ?", customerID, false).
			Order("due_date asc").Order("created_at asc").
			Find(&obligations).Error; err != nil {
			return err
		}

		remaining := amount
		for _, ob := range obligations {
			if remaining.LessThan(ob.Amount) {
				break
			}
			if err := tx.Model(&models.CustomerDebt{}).Where("id = ?", ob.ID).
				Update("is_paid", true).Error; err != nil {
				return err
			}
			remaining = remaining.Sub(ob.Amount)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	realtime.Notify(realtime.EventCustomers, nil)
	realtime.Notify(realtime.EventDebtors, nil)
	return newDebt, nil
}

// ServiceChargeConfig membaca mode service charge dari settings.
func ServiceChargeConfig(db *gorm.DB) (string, decimal.Decimal) {
	chargeType := models.ServiceChargePercent
	chargeValue := decimal.Zero

	var settings []models.Setting
	if err := db.Where("`key` IN ?", []string{
		models.SettingServiceChargeType, models.SettingServiceChargeVal,
	}).Find(&settings).Error; err != nil {
		utils.ErrorLogger.Printf("Service charge config lookup failed: %v", err)
		return chargeType, chargeValue
	}

	for _, s := range settings {
		switch s.Key {
		case models.SettingServiceChargeType:
			if s.Value == models.ServiceChargePerGuest {
				chargeType = models.ServiceChargePerGuest
			}
		case models.SettingServiceChargeVal:
			if v, err := decimal.NewFromString(s.Value); err == nil {
				chargeValue = v
			}
		}
	}
	return chargeType, chargeValue
}

// ComputeServiceCharge menghitung komponen service sesuai mode:
// percent -> subtotal x rate / 100, per_guest -> jumlah tamu x flat rate.
func ComputeServiceCharge(chargeType string, chargeValue, subtotal decimal.Decimal, guests int) decimal.Decimal {
	if chargeType == models.ServiceChargePerGuest {
		return chargeValue.Mul(decimal.NewFromInt(int64(guests)))
	}
	return subtotal.Mul(chargeValue).Div(decimal.NewFromInt(100))
}

// PrintCheck menghitung tagihan dari line items yang masih terbuka, cetak
// bill untuk tamu dan flip meja ke status menunggu pembayaran.
func (s *CheckoutService) PrintCheck(tableID uint) (int, error) {
	var (
		table models.Table
		items []models.OrderItem
	)

	if err := s.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTableNotFound
		}
		return 0, err
	}
	if err := s.DB.Where("table_id = ?", tableID).Find(&items).Error; err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, ErrNoOpenItems
	}

	checkNumber := table.CurrentCheckNumber
	if checkNumber == 0 {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			checkNumber, err = allocateCheckNumber(tx, &table)
			return err
		})
		if err != nil {
			return 0, err
		}
	}

	subtotal := decimal.Zero
	accepted := make([]AcceptedItem, 0, len(items))
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		accepted = append(accepted, AcceptedItem{
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Destination: item.Destination,
		})
	}

	chargeType, chargeValue := ServiceChargeConfig(s.DB)
	service := ComputeServiceCharge(chargeType, chargeValue, subtotal, table.Guests)
	total := subtotal.Add(service)

	if err := s.DB.Model(&models.Table{}).Where("id = ?", tableID).
		Update("status", models.TableStatusPayment).Error; err != nil {
		return 0, err
	}

	realtime.Notify(realtime.EventTables, nil)

	if s.Dispatcher != nil {
		waiterName := table.WaiterName
		if waiterName == "" {
			waiterName = UnknownWaiterName
		}
		s.Dispatcher.EnqueueBill(BillTicket{
			CheckNumber: checkNumber,
			TableName:   table.Name,
			WaiterName:  waiterName,
			Items:       accepted,
			Subtotal:    subtotal,
			Service:     service,
			Total:       total,
		})
	}

	utils.InfoLogger.Printf("Bill printed: table %d, check #%d", tableID, checkNumber)
	return checkNumber, nil
}

// CloseTable membatalkan sesi tanpa settlement: hapus semua line items dan
// reset meja. Tidak ada Sale record yang dibuat.
func (s *CheckoutService) CloseTable(tableID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := lockForUpdate(tx).First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTableNotFound
			}
			return err
		}
		if err := tx.Where("table_id = ?", tableID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Table{}).Where("id = ?", tableID).
			Updates(table.SessionFieldsForReset()).Error
	})
	if err != nil {
		return err
	}

	realtime.Notify(realtime.EventTables, nil)
	realtime.Notify(realtime.EventTableItems, tableID)
	return nil
}

// GetSales mengembalikan sales dalam rentang tanggal; tanpa rentang,
// 100 terakhir.
func (s *CheckoutService) GetSales(start, end *time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	query := s.DB.Order("date desc")
	if start != nil && end != nil {
		query = query.Where("date >= ? AND date <= ?", *start, *end)
	} else {
		query = query.Limit(100)
	}
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
