package handler

import (
	"net/http"
	"strconv"

	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

type createWithdrawalRequest struct {
	UserID        string          `json:"user_id" binding:"required"`
	AccountID     string          `json:"account_id" binding:"required"`
	WalletAddress string          `json:"wallet_address" binding:"required"`
	AmountOwed    decimal.Decimal `json:"amount_owed" binding:"required"`
}

func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.svc.Create(c.Request.Context(), service.CreateWithdrawalInput{
		UserID:        req.UserID,
		AccountID:     req.AccountID,
		WalletAddress: req.WalletAddress,
		AmountOwed:    req.AmountOwed,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "withdrawal_user", w.UserID)
	c.JSON(http.StatusCreated, w)
}

func (h *WithdrawalHandler) GetByUser(c *gin.Context) {
	w, err := h.svc.GetByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WithdrawalHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	requests, err := h.svc.List(c.Request.Context(), model.WithdrawalStatus(c.Query("status")), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": requests, "count": len(requests)})
}

func (h *WithdrawalHandler) Approve(c *gin.Context) {
	h.transition(c, model.WithdrawalApproved, "")
}

func (h *WithdrawalHandler) Reject(c *gin.Context) {
	h.transition(c, model.WithdrawalRejected, "")
}

type completeWithdrawalRequest struct {
	TransactionHash string `json:"transaction_hash" binding:"required"`
}

func (h *WithdrawalHandler) Complete(c *gin.Context) {
	var req completeWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, model.WithdrawalCompleted, req.TransactionHash)
}

func (h *WithdrawalHandler) transition(c *gin.Context, next model.WithdrawalStatus, transactionHash string) {
	w, err := h.svc.Transition(c.Request.Context(), c.Param("user_id"), next, transactionHash)
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "withdrawal_user", w.UserID)
	middleware.AddAuditContext(c, "status", string(w.Status))
	c.JSON(http.StatusOK, w)
}

func (h *WithdrawalHandler) Clear(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.svc.Clear(c.Request.Context(), userID); err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "withdrawal_user", userID)
	c.JSON(http.StatusOK, gin.H{"cleared": userID})
}
