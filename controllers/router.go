package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mitrabooks/pos_backend/middlewares"
	"github.com/shopspring/decimal"
)

// dgt0 validates that a decimal.Decimal field is strictly greater than zero.
func validateDecimalGreaterThanZero(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return value.IsPositive()
}

func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dgt0", validateDecimalGreaterThanZero)
	}
}

func RegisterRoutes(r *gin.Engine) {
	RegisterValidators()

	api := r.Group("/api/v1")
	api.Use(middlewares.TenantMiddleware())

	api.POST("/variants", CreateProductVariant)
	api.PUT("/variants/:id", UpdateProductVariant)
	api.GET("/variants/:id", GetProductVariant)
	api.GET("/variants", GetProductVariants)
	api.PATCH("/variants/:id/active", ToggleActiveProductVariant)

	api.POST("/warehouses", CreateWarehouse)
	api.PUT("/warehouses/:id", UpdateWarehouse)
	api.GET("/warehouses/:id", GetWarehouse)
	api.GET("/warehouses", GetWarehouses)

	api.POST("/suppliers", CreateSupplier)
	api.PUT("/suppliers/:id", UpdateSupplier)
	api.GET("/suppliers/:id", GetSupplier)
	api.GET("/suppliers", GetSuppliers)

	api.POST("/accounts", CreateMoneyAccount)
	api.PUT("/accounts/:id", UpdateMoneyAccount)
	api.GET("/accounts/:id", GetMoneyAccount)
	api.GET("/accounts", GetMoneyAccounts)
	api.PATCH("/accounts/:id/active", ToggleActiveMoneyAccount)

	api.POST("/purchase-orders", CreatePurchaseOrder)
	api.GET("/purchase-orders/:id", GetPurchaseOrder)
	api.GET("/purchase-orders", ListPurchaseOrders)
	api.POST("/purchase-orders/:id/receive", ReceivePurchaseOrder)
	api.POST("/purchase-orders/:id/payments", RecordPurchasePayment)

	api.POST("/pos/checkout", CreatePosCheckout)
	api.GET("/sales-orders/:id", GetSalesOrder)
	api.GET("/sales-orders", ListSalesOrders)

	api.POST("/cash-transactions", CreateCashTransaction)
	api.PUT("/cash-transactions/:id", UpdateCashTransaction)
	api.DELETE("/cash-transactions/:id", DeleteCashTransaction)
	api.GET("/cash-transactions/:id", GetCashTransaction)
	api.GET("/cash-transactions", ListCashTransactions)
	api.POST("/cash-transfers", TransferFunds)

	api.POST("/stock-counts", ApplyStockCount)
	api.GET("/stock-summaries", GetStockSummaries)
	api.GET("/stock-summaries/low", GetLowStockSummaries)
	api.GET("/stock-movements", ListStockMovements)
}
