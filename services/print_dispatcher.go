package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// KitchenTicket dikirim ke station dapur/bar setelah add-items commit.
type KitchenTicket struct {
	Items       []AcceptedItem
	TableName   string
	CheckNumber int
	WaiterName  string
}

// BillTicket adalah tagihan untuk tamu sebelum pembayaran.
type BillTicket struct {
	CheckNumber int
	TableName   string
	WaiterName  string
	Items       []AcceptedItem
	Subtotal    decimal.Decimal
	Service     decimal.Decimal
	Total       decimal.Decimal
}

// ReceiptTicket adalah struk final setelah checkout commit.
type ReceiptTicket struct {
	CheckNumber   int
	TableName     string
	WaiterName    string
	Items         []AcceptedItem
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Service       decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod models.PaymentMethod
}

// Printer adalah boundary ke hardware; implementasi nyata ada di
// PrinterService, test memakai stub.
type Printer interface {
	PrintKitchenTicket(ticket KitchenTicket) error
	PrintBill(ticket BillTicket) error
	PrintReceipt(ticket ReceiptTicket) error
}

type printJob struct {
	id   string
	kind string
	run  func() error
}

// PrintDispatcher menjalankan print job secara fire-and-forget: dipanggil
// hanya setelah transaksi pemicu commit, enqueue tidak pernah block, dan
// kegagalan hanya dilaporkan lewat log + notifikasi printer-error. Queue
// tidak persist; crash di antara commit dan dispatch menjatuhkan job
// (limitasi yang diterima, bukan bug).
type PrintDispatcher struct {
	printer Printer
	jobs    chan printJob
	stop    chan struct{}
	once    sync.Once
}

func NewPrintDispatcher(printer Printer) *PrintDispatcher {
	return &PrintDispatcher{
		printer: printer,
		jobs:    make(chan printJob, 64),
		stop:    make(chan struct{}),
	}
}

// Start menjalankan worker goroutine.
func (pd *PrintDispatcher) Start() {
	pd.once.Do(func() {
		go pd.worker()
	})
	utils.InfoLogger.Println("Print dispatcher started")
}

func (pd *PrintDispatcher) Stop() {
	close(pd.stop)
}

func (pd *PrintDispatcher) worker() {
	for {
		select {
		case job := <-pd.jobs:
			if err := job.run(); err != nil {
				utils.ErrorLogger.Printf("Print job %s (%s) failed: %v", job.id, job.kind, err)
				realtime.NotifyPrinterError(fmt.Sprintf("%s: %v", job.kind, err))
			}
		case <-pd.stop:
			return
		}
	}
}

// enqueue tidak pernah block pemanggil: queue penuh berarti job di-drop
// dengan laporan, karena print tidak boleh menahan request handler.
func (pd *PrintDispatcher) enqueue(kind string, run func() error) {
	job := printJob{id: uuid.NewString(), kind: kind, run: run}
	select {
	case pd.jobs <- job:
	default:
		utils.ErrorLogger.Printf("Print queue full, dropping job %s (%s)", job.id, job.kind)
		realtime.NotifyPrinterError(fmt.Sprintf("%s: print queue full", kind))
	}
}

func (pd *PrintDispatcher) EnqueueKitchenTicket(ticket KitchenTicket) {
	pd.enqueue("kitchen", func() error { return pd.printer.PrintKitchenTicket(ticket) })
}

func (pd *PrintDispatcher) EnqueueBill(ticket BillTicket) {
	pd.enqueue("bill", func() error { return pd.printer.PrintBill(ticket) })
}

func (pd *PrintDispatcher) EnqueueReceipt(ticket ReceiptTicket) {
	pd.enqueue("receipt", func() error { return pd.printer.PrintReceipt(ticket) })
}
