package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrEmptyOrder    = errors.New("order has no items")
	ErrInvalidItem   = errors.New("invalid item: quantity must be positive and price non-negative")
)

// SentinelDestination dipakai kalau belum ada station sama sekali di database.
const SentinelDestination = "1"

// UnknownWaiterName adalah display name pengganti saat acting waiter tidak
// bisa di-resolve. Nama ini dihitung "unknown" oleh takeover rule, jadi
// waiter berikutnya yang sah masih bisa claim meja.
const UnknownWaiterName = "Unknown"

// lockForUpdate membuat SELECT berikutnya jadi locking read (FOR UPDATE)
// supaya pola read-modify-write di dalam transaksi terserialisasi antar
// koneksi MySQL; snapshot read biasa di REPEATABLE READ membiarkan dua
// transaksi membaca nilai counter yang sama. SQLite tidak mengenal
// FOR UPDATE dan writer-nya memang tunggal.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// IncomingItem adalah item mentah dari client (desktop atau waiter app).
// Destination hanyalah saran; katalog produk yang menentukan.
type IncomingItem struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Qty         int             `json:"qty" binding:"required"`
	Destination string          `json:"destination"`
}

// AcceptedItem adalah item yang sudah tervalidasi dengan destination final.
type AcceptedItem struct {
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Destination string          `json:"destination"`
}

func (ai AcceptedItem) LineTotal() decimal.Decimal {
	return ai.Price.Mul(decimal.NewFromInt(int64(ai.Quantity)))
}

// OrderService adalah order accumulation engine: alokasi check number,
// resolve destination, append item + update total meja dalam satu transaksi.
type OrderService struct {
	DB         *gorm.DB
	Dispatcher *PrintDispatcher
}

func NewOrderService(db *gorm.DB, dispatcher *PrintDispatcher) *OrderService {
	return &OrderService{DB: db, Dispatcher: dispatcher}
}

// allocateCheckNumber memberi check number ke sesi meja, idempotent: sesi
// yang sudah punya nomor selalu dapat nomor yang sama lagi. Counter global
// di settings di-increment dalam transaksi pemanggil, jadi dua sesi tidak
// pernah berbagi nomor.
func allocateCheckNumber(tx *gorm.DB, table *models.Table) (int, error) {
	if table.CurrentCheckNumber > 0 {
		return table.CurrentCheckNumber, nil
	}

	next := 1
	var setting models.Setting
	err := lockForUpdate(tx).Where("`key` = ?", models.SettingNextCheckNumber).First(&setting).Error
	if err == nil {
		if parsed, perr := strconv.Atoi(setting.Value); perr == nil && parsed > 0 {
			next = parsed
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	setting.Key = models.SettingNextCheckNumber
	setting.Value = strconv.Itoa(next + 1)
	if err := tx.Save(&setting).Error; err != nil {
		return 0, err
	}

	if err := tx.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("current_check_number", next).Error; err != nil {
		return 0, err
	}

	table.CurrentCheckNumber = next
	return next, nil
}

// defaultDestination = station dengan id terkecil ("first kitchen").
// Error storage di sini tidak boleh menggagalkan order entry.
func defaultDestination(tx *gorm.DB) string {
	var kitchen models.Kitchen
	if err := tx.Order("id asc").First(&kitchen).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorLogger.Printf("Default station lookup failed: %v", err)
		}
		return SentinelDestination
	}
	return strconv.FormatUint(uint64(kitchen.ID), 10)
}

// resolveDestination memetakan item ke station. Katalog produk otoritatif:
// kalau produk punya destination, saran client di-override (dicatat sebagai
// koreksi, bukan error). Produk tak dikenal, destination kosong, atau error
// lookup semuanya jatuh ke default station. Tidak pernah return error.
func resolveDestination(tx *gorm.DB, productName, suggested string) string {
	var product models.Product
	err := tx.Where("name = ?", productName).First(&product).Error
	switch {
	case err == nil && product.Destination != "":
		if suggested != "" && suggested != product.Destination {
			utils.InfoLogger.Printf("Destination corrected for %q: %s -> %s",
				productName, suggested, product.Destination)
		}
		return product.Destination
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		utils.ErrorLogger.Printf("Destination lookup failed for %q: %v", productName, err)
		return defaultDestination(tx)
	default:
		// produk tidak ada di katalog atau destination belum diisi
		utils.InfoLogger.Printf("No catalog destination for %q, using default station", productName)
		return defaultDestination(tx)
	}
}

// resolveWaiterName mencari display name waiter; kalau user tidak ketemu
// dipakai placeholder yang dihitung unknown oleh takeover rule.
func (s *OrderService) resolveWaiterName(waiterID *uint) string {
	if waiterID == nil {
		return UnknownWaiterName
	}
	var user models.User
	if err := s.DB.First(&user, *waiterID).Error; err != nil {
		utils.InfoLogger.Printf("Waiter %d not found, using placeholder name", *waiterID)
		return UnknownWaiterName
	}
	return user.Name
}

// AddItems menambahkan batch item ke sesi meja dalam SATU transaksi:
// alokasi/reuse check number, insert tiap item dengan destination final,
// akumulasi total berjalan, takeover rule untuk waiter assignment, status
// occupied dan start time sekali saja. Semua item diterima atau tidak sama
// sekali. Print ticket dapur berjalan async setelah commit dan tidak pernah
// membatalkan order yang sudah tersimpan.
func (s *OrderService) AddItems(tableID uint, items []IncomingItem, waiterID *uint) ([]AcceptedItem, int, error) {
	if len(items) == 0 {
		return nil, 0, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Qty <= 0 || item.Price.IsNegative() {
			return nil, 0, ErrInvalidItem
		}
	}

	waiterName := s.resolveWaiterName(waiterID)

	var (
		accepted    []AcceptedItem
		checkNumber int
		tableName   string
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Baris meja di-lock: total berjalan dihitung read-modify-write.
		var table models.Table
		if err := lockForUpdate(tx).First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTableNotFound
			}
			return err
		}
		tableName = table.Name

		num, err := allocateCheckNumber(tx, &table)
		if err != nil {
			return err
		}
		checkNumber = num

		additional := decimal.Zero
		accepted = make([]AcceptedItem, 0, len(items))
		for _, item := range items {
			destination := resolveDestination(tx, item.Name, item.Destination)

			orderItem := models.OrderItem{
				TableID:     table.ID,
				ProductName: item.Name,
				Price:       item.Price,
				Quantity:    item.Qty,
				Destination: destination,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}

			additional = additional.Add(orderItem.LineTotal())
			accepted = append(accepted, AcceptedItem{
				ProductName: item.Name,
				Price:       item.Price,
				Quantity:    item.Qty,
				Destination: destination,
			})
		}

		updates := map[string]interface{}{
			"status":       models.TableStatusOccupied,
			"total_amount": table.TotalAmount.Add(additional),
		}
		// start time hanya di-set di item pertama sesi
		if table.StartTime == nil {
			updates["start_time"] = time.Now()
		}

		// Takeover rule: assignment waiter hanya ditimpa kalau sesi baru
		// dibuka, belum ada waiter, atau waiter sekarang identitas unknown.
		// Meja yang sudah di-claim waiter dikenal tidak bisa direbut diam-diam.
		isFree := table.Status == models.TableStatusFree
		isOrphan := table.WaiterID == nil
		isUnknown := table.WaiterName == "" || table.WaiterName == UnknownWaiterName
		if isFree || isOrphan || isUnknown {
			updates["waiter_id"] = waiterID
			updates["waiter_name"] = waiterName
		}

		return tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, 0, err
	}

	// Post-commit: notifikasi + print dapur, fire-and-forget.
	realtime.Notify(realtime.EventTables, nil)
	realtime.Notify(realtime.EventTableItems, tableID)

	if s.Dispatcher != nil {
		s.Dispatcher.EnqueueKitchenTicket(KitchenTicket{
			Items:       accepted,
			TableName:   tableName,
			CheckNumber: checkNumber,
			WaiterName:  waiterName,
		})
	}

	return accepted, checkNumber, nil
}

// GetTableItems mengembalikan line items sesi meja yang masih terbuka.
func (s *OrderService) GetTableItems(tableID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.DB.Where("table_id = ?", tableID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
