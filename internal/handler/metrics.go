package handler

import (
	"net/http"

	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	svc *service.MetricsService
}

func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

// Get serves the cached metrics document. ?refresh=true bypasses the
// freshness window and forces an upstream pull.
func (h *MetricsHandler) Get(c *gin.Context) {
	force := c.Query("refresh") == "true"

	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), force)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

type refreshMetricsRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Force     bool   `json:"force"`
}

// Refresh pulls the document, honoring the freshness window unless force is
// set.
func (h *MetricsHandler) Refresh(c *gin.Context) {
	var req refreshMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), req.AccountID, req.Force)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Objectives serves just the evaluation block of the document.
func (h *MetricsHandler) Objectives(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		c.Error(err)
		return
	}
	if doc.Objectives == nil {
		c.JSON(http.StatusOK, gin.H{
			"account_id": doc.AccountID,
			"objectives": nil,
			"reason":     "balance missing upstream, evaluation pending",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": doc.AccountID, "objectives": doc.Objectives})
}
