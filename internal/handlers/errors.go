package handlers

import (
	"log"
	"net/http"

	"medicine_chatbot/internal/services"

	"github.com/gin-gonic/gin"
)

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindBusinessRule:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": msg}. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(statusOf(kind), gin.H{"error": services.MessageOf(err)})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
}
