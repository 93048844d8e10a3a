package handlers

import (
	"net/http"

	"medicine_chatbot/internal/middleware"
	"medicine_chatbot/internal/models"

	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Tokens      *middleware.TokenManager
	Origins     []string
	Auth        *AuthHandler
	Users       *UserHandler
	Transaction *TransactionHandler
	Admin       *AdminHandler
	Chat        *ChatHandler
	// WhatsApp is nil when no gateway is configured.
	WhatsApp *WhatsAppHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(d.Origins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireUser := d.Tokens.RequireUser()
	requireAdmin := d.Tokens.RequireAdmin()
	requireAny := d.Tokens.RequireAny()

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
	}

	users := api.Group("/users")
	{
		users.POST("/register", d.Auth.Register)
		users.POST("/login", d.Auth.Login)
		users.GET("/orders", requireUser, d.Users.MyOrders)
		users.POST("/feedback", requireUser, d.Users.Feedback)
		users.GET("", requireAdmin, d.Users.List)
		users.GET("/:phone", d.Users.GetByPhone)
		users.GET("/:phone/orders", d.Users.OrdersByPhone)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", d.Tokens.OptionalUser(), d.Transaction.CreateOrder)
		d.registerLifecycle(orders, models.TypeMedicine, requireUser, requireAny, requireAdmin)
	}

	appointments := api.Group("/appointments")
	{
		appointments.POST("", requireUser, d.Transaction.CreateAppointment)
		d.registerLifecycle(appointments, models.TypeAppointment, requireUser, requireAny, requireAdmin)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/login", d.Auth.AdminLogin)
		admin.GET("/orders", requireAdmin, d.Admin.Feed)
		admin.POST("/order-status", requireAdmin, d.Admin.UpdateStatus)
		admin.POST("/order-feedback", requireAdmin, d.Admin.Feedback)
		admin.PATCH("/orders/:userId/:orderId", requireAdmin, d.Admin.Edit)
		admin.DELETE("/orders/:userId/:orderId", requireAdmin, d.Admin.HardDelete)
		admin.POST("/orders/:userId/:orderId/restore", requireAdmin, d.Admin.Restore)
	}

	chat := api.Group("/chat")
	{
		chat.POST("", d.Chat.Message)
		chat.DELETE("/:session_id", d.Chat.End)
	}

	if d.WhatsApp != nil {
		api.POST("/whatsapp/webhook", d.WhatsApp.HandleWebhook)
		api.POST("/whatsapp/send-message", requireAdmin, d.WhatsApp.SendMessage)
	}

	return router
}

func (d RouterDeps) registerLifecycle(g *gin.RouterGroup, typ models.TransactionType, requireUser, requireAny, requireAdmin gin.HandlerFunc) {
	g.GET("/my", requireUser, d.Transaction.ListMine(typ))
	g.PATCH("/:id", requireAny, d.Transaction.Edit(typ))
	g.DELETE("/:id", requireAny, d.Transaction.Cancel(typ))
	g.DELETE("/:id/hard", requireAdmin, d.Transaction.HardDelete(typ))
	g.POST("/:id/restore", requireAdmin, d.Transaction.Restore(typ))
}
