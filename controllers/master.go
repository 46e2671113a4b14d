package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mitrabooks/pos_backend/models"
)

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func CreateProductVariant(c *gin.Context) {
	var input models.NewProductVariant
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant, err := models.CreateProductVariant(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": variant})
}

func UpdateProductVariant(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProductVariant
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant, err := models.UpdateProductVariant(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variant})
}

func GetProductVariant(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	variant, err := models.GetProductVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variant})
}

func GetProductVariants(c *gin.Context) {
	var name *string
	if raw := c.Query("name"); raw != "" {
		name = &raw
	}
	variants, err := models.GetProductVariants(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variants})
}

func ToggleActiveProductVariant(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input toggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant, err := models.ToggleActiveProductVariant(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": variant})
}

func CreateWarehouse(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": warehouse})
}

func UpdateWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	warehouse, err := models.UpdateWarehouse(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouse})
}

func GetWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	warehouse, err := models.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouse})
}

func GetWarehouses(c *gin.Context) {
	warehouses, err := models.GetWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": warehouses})
}

func CreateSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": supplier})
}

func UpdateSupplier(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	supplier, err := models.UpdateSupplier(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": supplier})
}

func GetSupplier(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	supplier, err := models.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": supplier})
}

func GetSuppliers(c *gin.Context) {
	suppliers, err := models.GetSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": suppliers})
}

func CreateMoneyAccount(c *gin.Context) {
	var input models.NewMoneyAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := models.CreateMoneyAccount(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": account})
}

func UpdateMoneyAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewMoneyAccount
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := models.UpdateMoneyAccount(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

func GetMoneyAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	account, err := models.GetMoneyAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

func GetMoneyAccounts(c *gin.Context) {
	var accountType *string
	if raw := c.Query("type"); raw != "" {
		accountType = &raw
	}
	accounts, err := models.GetMoneyAccounts(c.Request.Context(), accountType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func ToggleActiveMoneyAccount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input toggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := models.ToggleActiveMoneyAccount(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}
