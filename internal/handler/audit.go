package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List returns the caller's own audit trail. Admin clients may pass
// ?client_id to inspect another client's requests.
func (h *AuditHandler) List(c *gin.Context) {
	clientVal, exists := c.Get(middleware.ContextClientKey)
	if !exists {
		c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthorized: missing client context", nil))
		return
	}
	client := clientVal.(*model.Client)

	clientID := client.ID
	if requested := c.Query("client_id"); requested != "" && client.Admin {
		clientID = requested
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	var fromPtr *time.Time
	var toPtr *time.Time
	if raw := c.Query("from"); raw != "" {
		if t, err := parseTime(raw); err == nil {
			fromPtr = &t
		} else {
			c.Error(apperrors.NewValidation(err.Error()))
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := parseTime(raw); err == nil {
			toPtr = &t
		} else {
			c.Error(apperrors.NewValidation(err.Error()))
			return
		}
	}

	records, err := h.svc.List(c.Request.Context(), clientID, limit, fromPtr, toPtr)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, records)
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
