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

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	UserID      string          `json:"user_id" binding:"required"`
	Email       string          `json:"email" binding:"required,email"`
	AccountType string          `json:"account_type" binding:"required"`
	AccountSize float64         `json:"account_size" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Create(c.Request.Context(), service.CreateOrderInput{
		UserID:      req.UserID,
		Email:       req.Email,
		AccountType: model.AccountType(req.AccountType),
		AccountSize: req.AccountSize,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "order_id", result.Order.ID)
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.svc.List(c.Request.Context(), c.Query("user_id"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.UpdateStatuses(c.Request.Context(), c.Param("id"),
		model.PaymentStatus(req.Status), "")
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "order_id", order.ID)
	middleware.AddAuditContext(c, "payment_status", string(order.PaymentStatus))
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateChallengeStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.UpdateStatuses(c.Request.Context(), c.Param("id"),
		"", model.ChallengeStatus(req.Status))
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "order_id", order.ID)
	middleware.AddAuditContext(c, "challenge_status", string(order.ChallengeStatus))
	c.JSON(http.StatusOK, order)
}
