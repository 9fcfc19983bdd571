// Package mail delivers notification mail through an HTTP mail relay.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Relay sends mail via a JSON POST to a relay service. The relay does
// the actual SMTP work; this client only hands messages over.
type Relay struct {
	baseURL string
	apiKey  string
	from    string
	http    *resty.Client
}

func NewRelay(baseURL, apiKey, from string) *Relay {
	c := resty.New().SetTimeout(15 * time.Second)
	return &Relay{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, from: from, http: c}
}

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (r *Relay) Send(ctx context.Context, to, subject, htmlBody string) error {
	body := message{From: r.from, To: to, Subject: subject, HTML: htmlBody}
	req := r.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if r.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := req.Post(r.baseURL + "/messages")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay: %s; body: %s", resp.Status(), resp.String())
	}
	return nil
}

// Noop discards mail. Used when no relay is configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, htmlBody string) error { return nil }
