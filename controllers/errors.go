package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
	"github.com/mitrabooks/pos_backend/utils"
	"gorm.io/gorm"
)

// respondError maps domain errors to HTTP statuses. Precondition failures are
// 422: the request was well formed but the ledger state refuses it.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, models.ErrorOutOfStock),
		errors.Is(err, models.ErrorInsufficientFunds),
		errors.Is(err, models.ErrorAlreadyReceived),
		errors.Is(err, models.ErrorSameAccount),
		errors.Is(err, models.ErrorInvalidAmount):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrorTxConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "operation conflicted with concurrent writes, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
