package handlers

import (
	"net/http"
	"strconv"

	"medicine_chatbot/internal/middleware"
	"medicine_chatbot/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	feedService        services.AdminFeedService
	transactionService services.TransactionService
}

func NewAdminHandler(feedService services.AdminFeedService, transactionService services.TransactionService) *AdminHandler {
	return &AdminHandler{
		feedService:        feedService,
		transactionService: transactionService,
	}
}

// Feed serves GET /admin/orders?page&limit&type&status&userPhone&startDate&endDate.
func (h *AdminHandler) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := h.feedService.Feed(c.Request.Context(), services.FeedQuery{
		Page:      page,
		Limit:     limit,
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		UserPhone: c.Query("userPhone"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.OrderID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, orderId and status are required"})
		return
	}
	actor, _ := middleware.CurrentActor(c)
	t, err := h.transactionService.UpdateStatus(c.Request.Context(), actor, req.UserID, req.OrderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "order": t})
}

func (h *AdminHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, orderId and feedback are required"})
		return
	}
	actor, _ := middleware.CurrentActor(c)
	t, err := h.transactionService.SetFeedback(c.Request.Context(), actor, req.UserID, req.OrderID, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback saved", "order": t})
}

func (h *AdminHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, _ := middleware.CurrentActor(c)
	t, err := h.transactionService.AdminEdit(c.Request.Context(), actor, c.Param("userId"), c.Param("orderId"), req.adminInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order edited by admin", "order": t})
}

func (h *AdminHandler) HardDelete(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	if err := h.transactionService.HardDelete(c.Request.Context(), actor, "", c.Param("userId"), c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order permanently deleted"})
}

func (h *AdminHandler) Restore(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	t, err := h.transactionService.Restore(c.Request.Context(), actor, "", c.Param("userId"), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order restored", "order": t})
}
