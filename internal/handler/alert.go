package handler

import (
	"net/http"
	"strconv"

	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	svc *service.AlertService
}

func NewAlertHandler(svc *service.AlertService) *AlertHandler {
	return &AlertHandler{svc: svc}
}

func (h *AlertHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (h *AlertHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.MarkRead(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "read": true})
}

// Scan triggers an on-demand rules pass, over one account when ?account_id is
// given, otherwise over the full active set.
func (h *AlertHandler) Scan(c *gin.Context) {
	force := c.Query("refresh") == "true"
	accountID := c.Query("account_id")

	var (
		emitted interface{}
		count   int
	)
	if accountID != "" {
		alerts, err := h.svc.ScanAccount(c.Request.Context(), accountID, force)
		if err != nil {
			c.Error(err)
			return
		}
		emitted, count = alerts, len(alerts)
	} else {
		alerts, err := h.svc.ScanAll(c.Request.Context(), force)
		if err != nil {
			c.Error(err)
			return
		}
		emitted, count = alerts, len(alerts)
	}

	middleware.AddAuditContext(c, "alerts_emitted", count)
	c.JSON(http.StatusOK, gin.H{"emitted": emitted, "count": count})
}
