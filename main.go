package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/realtime"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)
	seedDefaults(db)

	realtime.SetLogger(utils.InfoLogger)

	// Print pipeline: fire-and-forget, kegagalan printer tidak pernah
	// membatalkan transaksi yang sudah commit.
	printer := services.NewPrinterService(db)
	dispatcher := services.NewPrintDispatcher(printer)
	dispatcher.Start()
	defer dispatcher.Stop()

	orderService := services.NewOrderService(db, dispatcher)
	checkoutService := services.NewCheckoutService(db, dispatcher)
	smsService := services.GetSMSService(db)

	scheduler := services.NewReminderScheduler(db, smsService)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.SetupRouter(db, router.Deps{
		Orders:   orderService,
		Checkout: checkoutService,
		SMS:      smsService,
	})

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Hall{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Kitchen{},
		&models.OrderItem{},
		&models.Sale{},
		&models.Customer{},
		&models.DebtHistory{},
		&models.CustomerDebt{},
		&models.Setting{},
		&models.SMSTemplate{},
		&models.SMSLog{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// seedDefaults mengisi baris yang wajib ada pada database kosong:
// counter nomor check, admin pertama, dan template SMS bawaan.
func seedDefaults(db *gorm.DB) {
	var counter models.Setting
	if err := db.Where("`key` = ?", models.SettingNextCheckNumber).First(&counter).Error; err != nil {
		db.Create(&models.Setting{Key: models.SettingNextCheckNumber, Value: "1"})
	}

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("1111"), bcrypt.DefaultCost)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to hash default PIN: %v", err)
		}
		db.Create(&models.User{Name: "Admin", PinHash: string(hash), Role: models.RoleAdmin})
		utils.InfoLogger.Println("Seeded default admin (PIN 1111), ganti segera.")
	}

	templates := []models.SMSTemplate{
		{Type: models.SMSTypeBirthday, Title: "Birthday greeting", Content: "Happy birthday, {name}! Come celebrate with us.", IsActive: false},
		{Type: models.SMSTypeDebtReminder, Title: "Debt reminder", Content: "Dear {name}, please settle your outstanding balance of {amount}.", IsActive: false},
	}
	for _, template := range templates {
		var existing models.SMSTemplate
		if err := db.Where("type = ?", template.Type).First(&existing).Error; err != nil {
			db.Create(&template)
		}
	}
}
