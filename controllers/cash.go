package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
)

func CreateCashTransaction(c *gin.Context) {
	var input models.NewCashTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cashTx, err := models.CreateCashTransaction(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": cashTx})
}

func TransferFunds(c *gin.Context) {
	var input models.NewFundsTransfer
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outTx, inTx, err := models.TransferFunds(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"out": outTx, "in": inTx}})
}

func UpdateCashTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.EditCashTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cashTx, err := models.UpdateCashTransaction(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cashTx})
}

func DeleteCashTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	cashTx, err := models.DeleteCashTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cashTx})
}

func GetCashTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	cashTx, err := models.GetCashTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cashTx})
}

func ListCashTransactions(c *gin.Context) {
	var txType *models.CashTransactionType
	if raw := c.Query("type"); raw != "" {
		t := models.CashTransactionType(raw)
		txType = &t
	}
	cashTxs, err := models.ListCashTransactions(c.Request.Context(), queryInt(c, "account_id"), txType, queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cashTxs})
}
