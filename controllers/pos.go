package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
)

func CreatePosCheckout(c *gin.Context) {
	var input models.NewPosCheckout
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := models.CreatePosCheckout(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func GetSalesOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func ListSalesOrders(c *gin.Context) {
	orders, err := models.ListSalesOrders(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}
