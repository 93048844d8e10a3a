package handlers

import (
	"net/http"

	"medicine_chatbot/internal/middleware"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService        services.UserService
	transactionService services.TransactionService
}

func NewUserHandler(userService services.UserService, transactionService services.TransactionService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		transactionService: transactionService,
	}
}

// MyOrders lists every transaction of the caller, cancelled ones included.
func (h *UserHandler) MyOrders(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	list, err := h.transactionService.ListMine(c.Request.Context(), actor.ID, "", true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *UserHandler) OrdersByPhone(c *gin.Context) {
	user, err := h.userService.GetWithTransactions(c.Request.Context(), c.Param("phone"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": user.Transactions})
}

func (h *UserHandler) GetByPhone(c *gin.Context) {
	user, err := h.userService.GetWithTransactions(c.Request.Context(), c.Param("phone"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": userDataReply(user), "user": user})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId and feedback are required"})
		return
	}
	actor, _ := middleware.CurrentActor(c)
	t, err := h.transactionService.SetFeedback(c.Request.Context(), actor, "", req.OrderID, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted successfully", "order": t})
}
