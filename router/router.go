package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
)

// Deps membungkus service yang dibagikan antar controller.
type Deps struct {
	Orders   *services.OrderService
	Checkout *services.CheckoutService
	SMS      *services.SMSService
}

func SetupRouter(db *gorm.DB, deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	staffCtrl := controllers.NewStaffController(db)
	tableCtrl := controllers.NewTableController(db, deps.Checkout)
	productCtrl := controllers.NewProductController(db)
	orderCtrl := controllers.NewOrderController(db, deps.Orders, deps.Checkout)
	customerCtrl := controllers.NewCustomerController(db, deps.Checkout)
	settingsCtrl := controllers.NewSettingsController(db, deps.SMS)
	smsCtrl := controllers.NewSMSController(db, deps.SMS)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", staffCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	// WebSocket untuk desktop grid / waiter app (token via query param).
	auth.GET("/ws", controllers.RealtimeHandler)

	// HALLS & TABLES
	auth.GET("/halls", tableCtrl.GetHalls)
	auth.POST("/halls", tableCtrl.CreateHall)
	auth.DELETE("/halls/:hall_id", tableCtrl.DeleteHall)
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	auth.PATCH("/tables/:table_id/guests", tableCtrl.UpdateGuests)
	auth.PATCH("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	auth.POST("/tables/:table_id/close", tableCtrl.CloseTable)

	// ORDER PIPELINE
	auth.GET("/tables/:table_id/items", orderCtrl.GetTableItems)
	auth.POST("/tables/:table_id/items", orderCtrl.AddItems)
	auth.POST("/tables/:table_id/print-check", orderCtrl.PrintCheck)
	auth.POST("/tables/:table_id/checkout", orderCtrl.DoCheckout)
	auth.GET("/sales", orderCtrl.GetSales)

	// CATALOG
	auth.GET("/categories", productCtrl.GetCategories)
	auth.POST("/categories", productCtrl.CreateCategory)
	auth.PATCH("/categories/:cat_id", productCtrl.UpdateCategory)
	auth.DELETE("/categories/:cat_id", productCtrl.DeleteCategory)
	auth.GET("/products", productCtrl.GetProducts)
	auth.POST("/products", productCtrl.CreateProduct)
	auth.PATCH("/products/:product_id", productCtrl.UpdateProduct)
	auth.PATCH("/products/:product_id/status", productCtrl.ToggleProductStatus)
	auth.DELETE("/products/:product_id", productCtrl.DeleteProduct)

	// CUSTOMERS & DEBT
	auth.GET("/customers", customerCtrl.GetAllCustomers)
	auth.POST("/customers", customerCtrl.CreateCustomer)
	auth.PATCH("/customers/:customer_id", customerCtrl.UpdateCustomer)
	auth.DELETE("/customers/:customer_id", customerCtrl.DeleteCustomer)
	auth.GET("/debtors", customerCtrl.GetDebtors)
	auth.GET("/customers/:customer_id/debt-history", customerCtrl.GetDebtHistory)
	auth.POST("/customers/:customer_id/pay-debt", customerCtrl.PayDebt)

	// SMS MARKETING
	auth.GET("/sms/templates", smsCtrl.GetTemplates)
	auth.PATCH("/sms/templates", smsCtrl.UpdateTemplate)
	auth.GET("/sms/history", smsCtrl.GetHistory)
	auth.POST("/sms/send", smsCtrl.SendOne)
	auth.POST("/sms/broadcast", smsCtrl.Broadcast)

	// ADMIN ONLY
	admin := auth.Group("/")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", staffCtrl.GetUsers)
		admin.POST("/users", staffCtrl.SaveUser)
		admin.DELETE("/users/:user_id", staffCtrl.DeleteUser)

		admin.GET("/settings", settingsCtrl.GetSettings)
		admin.POST("/settings", settingsCtrl.SaveSettings)
		admin.GET("/kitchens", settingsCtrl.GetKitchens)
		admin.POST("/kitchens", settingsCtrl.SaveKitchen)
		admin.DELETE("/kitchens/:kitchen_id", settingsCtrl.DeleteKitchen)
	}

	return r
}
