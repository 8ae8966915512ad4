package handler

import (
	"net/http"
	"strconv"

	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type linkAccountRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	AccountType string  `json:"account_type" binding:"required"`
	AccountSize float64 `json:"account_size" binding:"required"`
	ProfitSplit float64 `json:"profit_split"`

	Name     string `json:"name" binding:"required"`
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	Server   string `json:"server" binding:"required"`
	Platform string `json:"platform"`
}

func (h *AccountHandler) Link(c *gin.Context) {
	var req linkAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.svc.Link(c.Request.Context(), service.LinkAccountInput{
		UserID:      req.UserID,
		AccountType: model.AccountType(req.AccountType),
		AccountSize: req.AccountSize,
		ProfitSplit: req.ProfitSplit,
		Name:        req.Name,
		Login:       req.Login,
		Password:    req.Password,
		Server:      req.Server,
		Platform:    req.Platform,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "account_id", acct.AccountID)
	c.JSON(http.StatusCreated, acct)
}

type registerAccountRequest struct {
	AccountID   string  `json:"account_id" binding:"required"`
	UserID      string  `json:"user_id" binding:"required"`
	AccountType string  `json:"account_type" binding:"required"`
	AccountSize float64 `json:"account_size" binding:"required"`
	ProfitSplit float64 `json:"profit_split"`
	Step        int     `json:"step"`
}

// Register records an already-provisioned trading account.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		AccountID:   req.AccountID,
		UserID:      req.UserID,
		AccountType: model.AccountType(req.AccountType),
		AccountSize: req.AccountSize,
		ProfitSplit: req.ProfitSplit,
		Step:        req.Step,
	})
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "account_id", acct.AccountID)
	c.JSON(http.StatusCreated, acct)
}

func (h *AccountHandler) Get(c *gin.Context) {
	acct, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (h *AccountHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	accounts, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Step   int    `json:"step"`
}

func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), model.AccountStatus(req.Status), req.Step)
	if err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "account_id", acct.AccountID)
	middleware.AddAuditContext(c, "status", string(acct.Status))
	c.JSON(http.StatusOK, acct)
}

func (h *AccountHandler) Delete(c *gin.Context) {
	accountID := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), accountID); err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "account_id", accountID)
	c.JSON(http.StatusOK, gin.H{"deleted": accountID})
}

func (h *AccountHandler) EnableRiskFeatures(c *gin.Context) {
	accountID := c.Param("id")
	if err := h.svc.EnableRiskFeatures(c.Request.Context(), accountID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "risk_features": "enabled"})
}
