package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/models"
)

// stubPrinter merekam panggilan; bisa diset selalu gagal.
type stubPrinter struct {
	mu       sync.Mutex
	fail     bool
	kitchen  int
	bills    int
	receipts int
}

func (sp *stubPrinter) result() error {
	if sp.fail {
		return errors.New("printer offline")
	}
	return nil
}

func (sp *stubPrinter) PrintKitchenTicket(KitchenTicket) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.kitchen++
	return sp.result()
}

func (sp *stubPrinter) PrintBill(BillTicket) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.bills++
	return sp.result()
}

func (sp *stubPrinter) PrintReceipt(ReceiptTicket) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.receipts++
	return sp.result()
}

func (sp *stubPrinter) counts() (int, int, int) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.kitchen, sp.bills, sp.receipts
}

func openSession(t *testing.T, svc *OrderService, tableID uint, waiterID *uint) int {
	t.Helper()
	_, num, err := svc.AddItems(tableID, []IncomingItem{
		{Name: "Plov", Price: price(3500), Qty: 1},
		{Name: "Tea", Price: price(100), Qty: 1},
	}, waiterID)
	require.NoError(t, err)
	return num
}

func TestCheckoutResetsTableAndRecordsSale(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	orders := NewOrderService(db, nil)
	checkout := NewCheckoutService(db, nil)
	checkNum := openSession(t, orders, table.ID, &waiter.ID)

	gotNum, err := checkout.Checkout(CheckoutRequest{
		TableID:       table.ID,
		Total:         price(3600),
		Subtotal:      price(3600),
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, checkNum, gotNum)

	// Sale record immutable tersimpan dengan snapshot sesi.
	var sale models.Sale
	require.NoError(t, db.First(&sale).Error)
	assert.Equal(t, checkNum, sale.CheckNumber)
	assert.Equal(t, "Alice", sale.WaiterName)
	assert.True(t, sale.TotalAmount.Equal(price(3600)))

	// Line items terhapus, meja kembali ke kondisi free.
	var itemCount int64
	db.Model(&models.OrderItem{}).Where("table_id = ?", table.ID).Count(&itemCount)
	assert.Zero(t, itemCount)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusFree, reloaded.Status)
	assert.Nil(t, reloaded.StartTime)
	assert.True(t, reloaded.TotalAmount.IsZero())
	assert.Zero(t, reloaded.CurrentCheckNumber)
	assert.Nil(t, reloaded.WaiterID)
	assert.Empty(t, reloaded.WaiterName)
	assert.Zero(t, reloaded.Guests)
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	checkout := NewCheckoutService(db, nil)

	_, err := checkout.Checkout(CheckoutRequest{
		TableID:       table.ID,
		Total:         price(100),
		Subtotal:      price(100),
		PaymentMethod: "iou",
	})
	assert.ErrorIs(t, err, models.ErrUnknownPaymentMethod)
}

func TestCheckoutDebtBranch(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	customer := models.Customer{Name: "Karim", Phone: "998901234567", Type: models.CustomerStandard}
	require.NoError(t, db.Create(&customer).Error)

	orders := NewOrderService(db, nil)
	checkout := NewCheckoutService(db, nil)
	openSession(t, orders, table.ID, &waiter.ID)

	due := time.Now().AddDate(0, 0, 7)
	_, err := checkout.Checkout(CheckoutRequest{
		TableID:       table.ID,
		Total:         price(5000),
		Subtotal:      price(5000),
		PaymentMethod: models.PaymentDebt,
		CustomerID:    &customer.ID,
		DueDate:       &due,
	})
	require.NoError(t, err)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, customer.ID).Error)
	assert.True(t, reloaded.Debt.Equal(price(5000)))

	var history models.DebtHistory
	require.NoError(t, db.Where("customer_id = ?", customer.ID).First(&history).Error)
	assert.Equal(t, models.DebtEntryDebt, history.Type)
	assert.True(t, history.Amount.Equal(price(5000)))

	var obligation models.CustomerDebt
	require.NoError(t, db.Where("customer_id = ?", customer.ID).First(&obligation).Error)
	assert.False(t, obligation.IsPaid)
	require.NotNil(t, obligation.DueDate)
}

func TestPayDebtRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	customer := models.Customer{Name: "Karim", Debt: price(5000)}
	require.NoError(t, db.Create(&customer).Error)
	require.NoError(t, db.Create(&models.CustomerDebt{
		CustomerID: customer.ID,
		Amount:     price(5000),
		IsPaid:     false,
	}).Error)

	checkout := NewCheckoutService(db, nil)

	newDebt, err := checkout.PayDebt(customer.ID, price(3000), "partial")
	require.NoError(t, err)
	assert.True(t, newDebt.Equal(price(2000)))

	// Pembayaran parsial belum menutup obligation 5000 penuh.
	var obligation models.CustomerDebt
	require.NoError(t, db.Where("customer_id = ?", customer.ID).First(&obligation).Error)
	assert.False(t, obligation.IsPaid)

	// Melebihi sisa hutang ditolak tanpa mutasi.
	_, err = checkout.PayDebt(customer.ID, price(3000), "too much")
	assert.ErrorIs(t, err, ErrDebtExceeded)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, customer.ID).Error)
	assert.True(t, reloaded.Debt.Equal(price(2000)))

	newDebt, err = checkout.PayDebt(customer.ID, price(2000), "rest")
	require.NoError(t, err)
	assert.True(t, newDebt.IsZero())

	_, err = checkout.PayDebt(customer.ID, decimal.Zero, "noop")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPayDebtSettlesOldestObligationsFirst(t *testing.T) {
	db := setupTestDB(t)
	customer := models.Customer{Name: "Karim", Debt: price(8000)}
	require.NoError(t, db.Create(&customer).Error)

	older := time.Now().AddDate(0, 0, -14)
	newer := time.Now().AddDate(0, 0, -2)
	first := models.CustomerDebt{CustomerID: customer.ID, Amount: price(3000), DueDate: &older}
	second := models.CustomerDebt{CustomerID: customer.ID, Amount: price(5000), DueDate: &newer}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	checkout := NewCheckoutService(db, nil)
	_, err := checkout.PayDebt(customer.ID, price(4000), "covers the oldest")
	require.NoError(t, err)

	var reloadedFirst, reloadedSecond models.CustomerDebt
	require.NoError(t, db.First(&reloadedFirst, first.ID).Error)
	require.NoError(t, db.First(&reloadedSecond, second.ID).Error)
	assert.True(t, reloadedFirst.IsPaid)
	assert.False(t, reloadedSecond.IsPaid)
}

func TestCheckoutCashbackBranch(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	customer := models.Customer{Name: "Dilnoza", Type: models.CustomerCashback, Value: 10}
	require.NoError(t, db.Create(&customer).Error)

	orders := NewOrderService(db, nil)
	checkout := NewCheckoutService(db, nil)
	openSession(t, orders, table.ID, &waiter.ID)

	_, err := checkout.Checkout(CheckoutRequest{
		TableID:       table.ID,
		Total:         price(3600),
		Subtotal:      price(3600),
		PaymentMethod: models.PaymentCard,
		CustomerID:    &customer.ID,
	})
	require.NoError(t, err)

	var reloaded models.Customer
	require.NoError(t, db.First(&reloaded, customer.ID).Error)
	assert.True(t, reloaded.Balance.Equal(price(360)),
		"expected 10%% cashback of 3600, got %s", reloaded.Balance)
	assert.True(t, reloaded.Debt.IsZero())
}

func TestPrinterFailureNeverUnwindsCheckout(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	printer := &stubPrinter{fail: true}
	dispatcher := NewPrintDispatcher(printer)
	dispatcher.Start()
	defer dispatcher.Stop()

	orders := NewOrderService(db, dispatcher)
	checkout := NewCheckoutService(db, dispatcher)
	openSession(t, orders, table.ID, &waiter.ID)

	_, err := checkout.Checkout(CheckoutRequest{
		TableID:       table.ID,
		Total:         price(3600),
		Subtotal:      price(3600),
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	// Sale tetap ada dan meja tetap ter-reset meskipun printer mati.
	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.EqualValues(t, 1, saleCount)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusFree, reloaded.Status)

	// Worker sempat mencoba print.
	assert.Eventually(t, func() bool {
		kitchen, _, receipts := printer.counts()
		return kitchen >= 1 && receipts >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestPrintCheckFlipsTableToPaymentStatus(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	printer := &stubPrinter{}
	dispatcher := NewPrintDispatcher(printer)
	dispatcher.Start()
	defer dispatcher.Stop()

	orders := NewOrderService(db, dispatcher)
	checkout := NewCheckoutService(db, dispatcher)
	checkNum := openSession(t, orders, table.ID, &waiter.ID)

	gotNum, err := checkout.PrintCheck(table.ID)
	require.NoError(t, err)
	assert.Equal(t, checkNum, gotNum)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusPayment, reloaded.Status)

	assert.Eventually(t, func() bool {
		_, bills, _ := printer.counts()
		return bills >= 1
	}, time.Second, 10*time.Millisecond)

	_, err = checkout.PrintCheck(999)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestPrintCheckRequiresOpenItems(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	checkout := NewCheckoutService(db, nil)

	_, err := checkout.PrintCheck(table.ID)
	assert.ErrorIs(t, err, ErrNoOpenItems)
}

func TestCloseTableCancelsWithoutSale(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, "T1")
	waiter := seedWaiter(t, db, "Alice")

	orders := NewOrderService(db, nil)
	checkout := NewCheckoutService(db, nil)
	openSession(t, orders, table.ID, &waiter.ID)

	require.NoError(t, checkout.CloseTable(table.ID))

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)

	var itemCount int64
	db.Model(&models.OrderItem{}).Where("table_id = ?", table.ID).Count(&itemCount)
	assert.Zero(t, itemCount)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusFree, reloaded.Status)
}

func TestComputeServiceCharge(t *testing.T) {
	percent := ComputeServiceCharge(models.ServiceChargePercent, price(10), price(3600), 4)
	assert.True(t, percent.Equal(price(360)))

	perGuest := ComputeServiceCharge(models.ServiceChargePerGuest, price(200), price(3600), 4)
	assert.True(t, perGuest.Equal(price(800)))
}

func TestServiceChargeConfigReadsSettings(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Setting{Key: models.SettingServiceChargeType, Value: models.ServiceChargePerGuest}).Error)
	require.NoError(t, db.Create(&models.Setting{Key: models.SettingServiceChargeVal, Value: "250"}).Error)

	chargeType, chargeValue := ServiceChargeConfig(db)
	assert.Equal(t, models.ServiceChargePerGuest, chargeType)
	assert.True(t, chargeValue.Equal(price(250)))
}

func TestGetSalesRange(t *testing.T) {
	db := setupTestDB(t)
	checkout := NewCheckoutService(db, nil)

	now := time.Now()
	old := now.AddDate(0, -1, 0)
	require.NoError(t, db.Create(&models.Sale{CheckNumber: 1, Date: old, TotalAmount: price(100), Subtotal: price(100), PaymentMethod: models.PaymentCash}).Error)
	require.NoError(t, db.Create(&models.Sale{CheckNumber: 2, Date: now, TotalAmount: price(200), Subtotal: price(200), PaymentMethod: models.PaymentCash}).Error)

	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 1)
	sales, err := checkout.GetSales(&start, &end)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 2, sales[0].CheckNumber)

	all, err := checkout.GetSales(nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
