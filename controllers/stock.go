package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
)

func ApplyStockCount(c *gin.Context) {
	var input models.NewStockCount
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := models.ApplyStockCount(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func GetStockSummaries(c *gin.Context) {
	summaries, err := models.GetStockSummaries(c.Request.Context(), queryInt(c, "warehouse_id"), queryInt(c, "variant_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func GetLowStockSummaries(c *gin.Context) {
	summaries, err := models.GetLowStockSummaries(c.Request.Context(), queryInt(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func ListStockMovements(c *gin.Context) {
	var movementType *models.MovementType
	if raw := c.Query("movement_type"); raw != "" {
		t := models.MovementType(raw)
		movementType = &t
	}
	movements, err := models.ListStockMovements(c.Request.Context(),
		queryInt(c, "warehouse_id"), queryInt(c, "variant_id"), movementType, queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": movements})
}
