package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookEmitter POSTs events as JSON to a configured URL. Delivery
// happens on a separate goroutine; failures are logged and dropped.
type WebhookEmitter struct {
	url  string
	http *resty.Client
	log  *zap.Logger
}

func NewWebhookEmitter(url string, timeout time.Duration, log *zap.Logger) *WebhookEmitter {
	c := resty.New().SetTimeout(timeout)
	return &WebhookEmitter{url: url, http: c, log: log}
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	SentAt  string `json:"sent_at"`
}

func (e *WebhookEmitter) Emit(name string, payload any) {
	body := webhookBody{Event: name, Payload: payload, SentAt: time.Now().UTC().Format(time.RFC3339)}
	go func() {
		r, err := e.http.R().
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(e.url)
		if err != nil {
			e.log.Warn("webhook delivery failed", zap.String("event", name), zap.Error(err))
			return
		}
		if r.IsError() {
			e.log.Warn("webhook delivery rejected", zap.String("event", name), zap.String("status", r.Status()))
		}
	}()
}
