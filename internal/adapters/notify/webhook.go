package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/quantatrisk/voltrader/internal/domain"
)

const (
	// Intervalo mínimo entre envíos; los eventos que lleguen
	// más rápido se descartan.
	webhookMinInterval = 5 * time.Second

	webhookTimeout = 5 * time.Second
	webhookRetries = 2
)

// webhookPayload es el cuerpo JSON que espera el bot del grupo.
type webhookPayload struct {
	MsgType string         `json:"msg_type"`
	Content webhookContent `json:"content"`
}

type webhookContent struct {
	Text string `json:"text"`
}

// Webhook implementa ports.Notifier contra un webhook de mensajería.
// La entrega es best effort: los fallos se loggean y se tragan.
type Webhook struct {
	client       *resty.Client
	limiter      *rate.Limiter
	url          string
	instanceName string
	enabled      bool
}

// NewWebhook crea el notificador. Con url vacía o enabled=false se
// comporta como un no-op.
func NewWebhook(url, instanceName string, enabled bool) *Webhook {
	client := resty.New().
		SetTimeout(webhookTimeout).
		SetRetryCount(webhookRetries)

	return &Webhook{
		client:       client,
		limiter:      rate.NewLimiter(rate.Every(webhookMinInterval), 1),
		url:          url,
		instanceName: instanceName,
		enabled:      enabled,
	}
}

// Notify envía el evento formateado. Nunca devuelve error: un webhook
// caído no debe parar la estrategia.
func (w *Webhook) Notify(ctx context.Context, event domain.Event) error {
	if !w.enabled || w.url == "" {
		return nil
	}
	if !w.limiter.Allow() {
		slog.Debug("webhook rate limited, event dropped", "kind", event.Kind())
		return nil
	}

	payload := webhookPayload{
		MsgType: "text",
		Content: webhookContent{Text: "[" + w.instanceName + "] " + formatEvent(event)},
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.url)
	if err != nil {
		slog.Error("webhook delivery failed", "kind", event.Kind(), "error", err)
		return nil
	}
	if resp.StatusCode() >= 300 {
		slog.Warn("webhook rejected", "kind", event.Kind(), "status", resp.StatusCode())
	}
	return nil
}
