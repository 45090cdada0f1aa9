package services

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// PrinterService menulis ticket plain-text ke network printer (port 9100)
// milik tiap station. Semuanya best effort: alamat printer yang tidak
// terkonfigurasi atau tidak terjangkau menghasilkan error yang hanya
// dilaporkan dispatcher, tidak pernah mengganggu transaksi.
type PrinterService struct {
	DB          *gorm.DB
	DialTimeout time.Duration
}

func NewPrinterService(db *gorm.DB) *PrinterService {
	return &PrinterService{DB: db, DialTimeout: 5 * time.Second}
}

func (ps *PrinterService) stationPrinter(destination string) (*models.Kitchen, error) {
	id, err := strconv.ParseUint(destination, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid station id %q", destination)
	}
	var kitchen models.Kitchen
	if err := ps.DB.First(&kitchen, uint(id)).Error; err != nil {
		return nil, fmt.Errorf("station %s not configured: %w", destination, err)
	}
	if kitchen.PrinterIP == "" {
		return nil, fmt.Errorf("station %s has no printer address", kitchen.Name)
	}
	return &kitchen, nil
}

func (ps *PrinterService) write(kitchen *models.Kitchen, payload string) error {
	addr := net.JoinHostPort(kitchen.PrinterIP, strconv.Itoa(kitchen.PrinterPort))
	conn, err := net.DialTimeout("tcp", addr, ps.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial printer %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("write to printer %s: %w", addr, err)
	}
	return nil
}

// PrintKitchenTicket mengelompokkan item per destination dan mengirim satu
// ticket ke printer tiap station.
func (ps *PrinterService) PrintKitchenTicket(ticket KitchenTicket) error {
	byStation := make(map[string][]AcceptedItem)
	for _, item := range ticket.Items {
		byStation[item.Destination] = append(byStation[item.Destination], item)
	}

	var failures []string
	for destination, items := range byStation {
		kitchen, err := ps.stationPrinter(destination)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "=== %s ===\n", kitchen.Name)
		fmt.Fprintf(&b, "Check #%d  Table: %s\n", ticket.CheckNumber, ticket.TableName)
		fmt.Fprintf(&b, "Waiter: %s\n", ticket.WaiterName)
		fmt.Fprintf(&b, "%s\n", time.Now().Format("02/01/2006 15:04"))
		b.WriteString("------------------------------\n")
		for _, item := range items {
			fmt.Fprintf(&b, "%-22s x%d\n", item.ProductName, item.Quantity)
		}
		b.WriteString("\n\n\n")

		if err := ps.write(kitchen, b.String()); err != nil {
			failures = append(failures, err.Error())
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("kitchen ticket: %s", strings.Join(failures, "; "))
	}
	utils.InfoLogger.Printf("Kitchen ticket printed: check #%d, %d items", ticket.CheckNumber, len(ticket.Items))
	return nil
}

// receiptPrinter = station pertama; kasir biasanya dipasangkan ke situ.
func (ps *PrinterService) receiptPrinter() (*models.Kitchen, error) {
	var kitchen models.Kitchen
	if err := ps.DB.Order("id asc").First(&kitchen).Error; err != nil {
		return nil, fmt.Errorf("no receipt printer configured: %w", err)
	}
	if kitchen.PrinterIP == "" {
		return nil, fmt.Errorf("receipt printer has no address")
	}
	return &kitchen, nil
}

func (ps *PrinterService) PrintBill(ticket BillTicket) error {
	printer, err := ps.receiptPrinter()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "        HISOB / BILL\n")
	fmt.Fprintf(&b, "Check #%d  Table: %s\n", ticket.CheckNumber, ticket.TableName)
	fmt.Fprintf(&b, "Waiter: %s\n", ticket.WaiterName)
	b.WriteString("------------------------------\n")
	for _, item := range ticket.Items {
		fmt.Fprintf(&b, "%-16s x%-3d %10s\n",
			item.ProductName, item.Quantity, utils.FormatCurrency(item.LineTotal()))
	}
	b.WriteString("------------------------------\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", utils.FormatCurrency(ticket.Subtotal))
	fmt.Fprintf(&b, "Service:  %s\n", utils.FormatCurrency(ticket.Service))
	fmt.Fprintf(&b, "TOTAL:    %s\n", utils.FormatCurrency(ticket.Total))
	b.WriteString("\n\n\n")

	return ps.write(printer, b.String())
}

func (ps *PrinterService) PrintReceipt(ticket ReceiptTicket) error {
	printer, err := ps.receiptPrinter()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "         RECEIPT\n")
	fmt.Fprintf(&b, "Check #%d  Table: %s\n", ticket.CheckNumber, ticket.TableName)
	fmt.Fprintf(&b, "Waiter: %s\n", ticket.WaiterName)
	fmt.Fprintf(&b, "%s\n", time.Now().Format("02/01/2006 15:04"))
	b.WriteString("------------------------------\n")
	for _, item := range ticket.Items {
		fmt.Fprintf(&b, "%-16s x%-3d %10s\n",
			item.ProductName, item.Quantity, utils.FormatCurrency(item.LineTotal()))
	}
	b.WriteString("------------------------------\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", utils.FormatCurrency(ticket.Subtotal))
	fmt.Fprintf(&b, "Discount: %s\n", utils.FormatCurrency(ticket.Discount))
	fmt.Fprintf(&b, "Service:  %s\n", utils.FormatCurrency(ticket.Service))
	fmt.Fprintf(&b, "TOTAL:    %s\n", utils.FormatCurrency(ticket.Total))
	fmt.Fprintf(&b, "Payment:  %s\n", ticket.PaymentMethod)
	b.WriteString("\n   Thank you!\n\n\n")

	return ps.write(printer, b.String())
}
