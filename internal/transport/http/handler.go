package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/richardliu001/transaction-service/internal/model"
	"github.com/richardliu001/transaction-service/internal/service"
)

func RegisterHandlers(r *gin.Engine, svc *service.TransactionService) {
	v1 := r.Group("/v1")
	{
		v1.POST("/transactions", createHandler(svc))
		v1.PUT("/transactions/:id", updateHandler(svc))
		v1.DELETE("/transactions/:id", deleteHandler(svc))
		v1.GET("/transactions", searchHandler(svc))
	}
}

type transactionReq struct {
	UserID     string `json:"user_id" binding:"required"`
	MerchantID string `json:"merchant_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
}

// parseAmount enforces the amount format: at most 10 integer digits and at
// most 4 fraction digits.
func parseAmount(raw string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("invalid amount")
	}
	if amt.Exponent() < -4 {
		return decimal.Zero, errors.New("amount allows at most 4 fraction digits")
	}
	if amt.Abs().GreaterThanOrEqual(decimal.New(1, 10)) {
		return decimal.Zero, errors.New("amount allows at most 10 integer digits")
	}
	return amt, nil
}

func createHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transactionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amt, err := parseAmount(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// No auth layer here: the acting user is the caller-supplied user id.
		t := model.Transaction{
			UserID:     req.UserID,
			MerchantID: req.MerchantID,
			Amount:     amt,
			CreatedBy:  req.UserID,
		}
		created, err := svc.Create(c, t)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func updateHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transactionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amt, err := parseAmount(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t := model.Transaction{
			TransactionID: c.Param("id"),
			UserID:        req.UserID,
			MerchantID:    req.MerchantID,
			Amount:        amt,
			UpdatedBy:     req.UserID,
		}
		updated, err := svc.Update(c, t)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func deleteHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.Query{
			TransactionID: c.Param("id"),
			UserID:        c.Query("user_id"),
		}
		if err := svc.Delete(c, q); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func searchHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
		q := service.Query{
			TransactionID: c.Query("transaction_id"),
			UserID:        c.Query("user_id"),
			MerchantID:    c.Query("merchant_id"),
			Page:          page,
			PageSize:      pageSize,
		}
		c.JSON(http.StatusOK, svc.Search(c, q))
	}
}

// writeError maps service error codes onto transport statuses. Unclassified
// errors become a 500.
func writeError(c *gin.Context, err error) {
	code, ok := service.CodeOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(statusFor(code), gin.H{"code": code, "error": err.Error()})
}

func statusFor(code service.ErrorCode) int {
	switch code {
	case service.CodeMissingID:
		return http.StatusBadRequest
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeUserMismatch, service.CodeAlreadyExists:
		return http.StatusConflict
	case service.CodeLockBusy:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
