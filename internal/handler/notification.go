package handler

import (
	"net/http"

	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/fundedlabs/propgate/internal/notify"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	mailer *notify.Mailer
}

func NewNotificationHandler(mailer *notify.Mailer) *NotificationHandler {
	return &NotificationHandler{mailer: mailer}
}

type challengeEmailRequest struct {
	Template   string                 `json:"template" binding:"required"`
	Recipients []string               `json:"recipients" binding:"required,min=1"`
	Payload    map[string]interface{} `json:"payload"`
}

// SendChallengeEmails dispatches a templated batch through the mailer,
// synchronously so the admin caller sees delivery failures.
func (h *NotificationHandler) SendChallengeEmails(c *gin.Context) {
	var req challengeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mailer.SendBatch(c.Request.Context(), req.Template, req.Recipients, req.Payload); err != nil {
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "recipients", len(req.Recipients))
	c.JSON(http.StatusOK, gin.H{"sent": len(req.Recipients)})
}
