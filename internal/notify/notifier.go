// Package notify dispatches challenge pass/fail emails through the mailer
// endpoint. Dispatch is fire-and-forget: a failed send is logged and dropped,
// it never blocks or rolls back the alert that triggered it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/pkg/metrics"
	"github.com/go-resty/resty/v2"
)

type Mailer struct {
	http    *resty.Client
	enabled bool
}

func NewMailer(cfg config.NotifyConfig) *Mailer {
	return &Mailer{
		enabled: cfg.MailerURL != "",
		http: resty.New().
			SetBaseURL(cfg.MailerURL).
			SetTimeout(10 * time.Second).
			SetHeader("X-Api-Key", cfg.APIKey),
	}
}

func (m *Mailer) ChallengeFailed(ctx context.Context, acct *model.ChallengeAccount, drawdown float64) {
	m.send(ctx, "challenge_failed", acct, map[string]interface{}{
		"drawdown": fmt.Sprintf("%.2f", drawdown),
	})
}

func (m *Mailer) ChallengePassed(ctx context.Context, acct *model.ChallengeAccount) {
	m.send(ctx, "challenge_passed", acct, nil)
}

// SendBatch posts a generic templated mailing (the admin "send challenge
// emails" operation).
func (m *Mailer) SendBatch(ctx context.Context, template string, recipients []string, payload map[string]interface{}) error {
	if !m.enabled {
		return fmt.Errorf("mailer not configured")
	}
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"template":   template,
			"recipients": recipients,
			"payload":    payload,
		}).
		Post("/send")
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("mailer").Inc()
		return err
	}
	if resp.IsError() {
		metrics.UpstreamErrors.WithLabelValues("mailer").Inc()
		return fmt.Errorf("mailer: status %d", resp.StatusCode())
	}
	return nil
}

func (m *Mailer) send(ctx context.Context, template string, acct *model.ChallengeAccount, extra map[string]interface{}) {
	if !m.enabled {
		return
	}
	body := map[string]interface{}{
		"template":     template,
		"user_id":      acct.UserID,
		"account_id":   acct.AccountID,
		"account_type": acct.AccountType,
	}
	for k, v := range extra {
		body[k] = v
	}

	go func() {
		// detached from the request context: the scan that triggered the
		// notification must not wait on the mailer
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := m.http.R().SetContext(sendCtx).SetBody(body).Post("/send")
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("mailer").Inc()
			logger.LogError(sendCtx, err, "notification dispatch failed", "template", template, "account", acct.AccountID)
			return
		}
		if resp.IsError() {
			metrics.UpstreamErrors.WithLabelValues("mailer").Inc()
			logger.Warn("notification dispatch rejected", "template", template, "status", resp.StatusCode())
		}
	}()
}
