package handlers

import (
	"errors"
	"net/http"

	"medicine_chatbot/internal/middleware"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/services"

	"github.com/gin-gonic/gin"
)

// TransactionHandler serves the /orders and /appointments resources. Both
// share the same six routes; the type decides which variant is touched.
type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func resourceKey(typ models.TransactionType) (one, many, noun string) {
	if typ == models.TypeAppointment {
		return "appointment", "appointments", "Appointment"
	}
	return "order", "orders", "Order"
}

func (h *TransactionHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	var actor *models.Actor
	if a, ok := middleware.CurrentActor(c); ok {
		actor = &a
	}
	t, user, err := h.transactionService.CreateMedicineOrder(c.Request.Context(), actor, services.MedicineOrderInput{
		Phone:          req.Phone,
		Medicines:      req.Medicines,
		DeliveryOption: req.DeliveryOption,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reply": orderPlacedReply(user), "order": t})
}

// CreateAppointment answers a busy slot with 200 and a suggested time rather
// than an error, so the chat can offer it to the user.
func (h *TransactionHandler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	actor, _ := middleware.CurrentActor(c)
	t, user, err := h.transactionService.BookAppointment(c.Request.Context(), actor, services.AppointmentInput{
		PatientName: req.PatientName,
		DoctorName:  req.DoctorName,
		Date:        req.Date,
		Time:        req.Time,
		Age:         int(req.Age),
		Gender:      req.Gender,
		Problem:     req.Problem,
	})
	var slot *services.SlotTakenError
	if errors.As(err, &slot) {
		c.JSON(http.StatusOK, gin.H{
			"reply":         "Doctor busy at " + slot.Requested.Format("15:04") + ". Suggested next available: " + slot.Suggested.Format("15:04"),
			"suggestedTime": slot.Suggested.Format("15:04"),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	d, _ := t.Appointment()
	c.JSON(http.StatusCreated, gin.H{"reply": appointmentBookedReply(user, d), "appointment": t})
}

func (h *TransactionHandler) ListMine(typ models.TransactionType) gin.HandlerFunc {
	_, many, _ := resourceKey(typ)
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		list, err := h.transactionService.ListMine(c.Request.Context(), actor.ID, typ, c.Query("includeDeleted") == "true")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{many: list})
	}
}

// Edit applies a partial update. Admin callers get the unconstrained admin
// edit.
func (h *TransactionHandler) Edit(typ models.TransactionType) gin.HandlerFunc {
	one, _, noun := resourceKey(typ)
	return func(c *gin.Context) {
		var req editRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		actor, _ := middleware.CurrentActor(c)
		ctx := c.Request.Context()
		id := c.Param("id")

		var t *models.Transaction
		var err error
		switch {
		case actor.IsAdmin():
			cur, gerr := h.transactionService.Get(ctx, actor, id)
			if gerr != nil {
				respondError(c, gerr)
				return
			}
			if cur.Type() != typ {
				c.JSON(http.StatusNotFound, gin.H{"error": noun + " not found"})
				return
			}
			t, err = h.transactionService.AdminEdit(ctx, actor, cur.UserID, id, req.adminInput())
		case typ == models.TypeAppointment:
			t, err = h.transactionService.EditAppointment(ctx, actor, id, req.appointmentPatch())
		default:
			t, err = h.transactionService.EditMedicineOrder(ctx, actor, id, req.medicinePatch())
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": noun + " updated successfully", one: t})
	}
}

func (h *TransactionHandler) Cancel(typ models.TransactionType) gin.HandlerFunc {
	one, _, noun := resourceKey(typ)
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		t, err := h.transactionService.Cancel(c.Request.Context(), actor, typ, "", c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": noun + " cancelled successfully", one: t})
	}
}

func (h *TransactionHandler) HardDelete(typ models.TransactionType) gin.HandlerFunc {
	_, _, noun := resourceKey(typ)
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		if err := h.transactionService.HardDelete(c.Request.Context(), actor, typ, "", c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": noun + " permanently deleted"})
	}
}

func (h *TransactionHandler) Restore(typ models.TransactionType) gin.HandlerFunc {
	one, _, noun := resourceKey(typ)
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		t, err := h.transactionService.Restore(c.Request.Context(), actor, typ, "", c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": noun + " restored successfully", one: t})
	}
}
