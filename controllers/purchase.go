package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
)

func CreatePurchaseOrder(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func ReceivePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.ReceivePurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func RecordPurchasePayment(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchasePayment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := models.RecordPurchasePayment(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

func GetPurchaseOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func ListPurchaseOrders(c *gin.Context) {
	var fulfillment *models.FulfillmentStatus
	if raw := c.Query("fulfillment_status"); raw != "" {
		status := models.FulfillmentStatus(raw)
		fulfillment = &status
	}
	orders, err := models.ListPurchaseOrders(c.Request.Context(), fulfillment, queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
