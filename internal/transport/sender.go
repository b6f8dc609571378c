// Package transport carries messages between users and the bot: the
// inbound webhook, the outbound messaging API client, and a local
// websocket console for development.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nexifit/nexifit/internal/config"
)

// MaxPartLen is the largest outbound message body the messaging API
// accepts per part.
const MaxPartLen = 1500

// Sender delivers an outbound message to a transport address.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// WhatsAppSender posts messages to a WhatsApp-API-compatible endpoint.
type WhatsAppSender struct {
	apiURL     string
	from       string
	token      string
	httpClient *http.Client
}

// NewWhatsAppSender creates an outbound sender from configuration.
func NewWhatsAppSender(cfg config.WhatsAppConfig) *WhatsAppSender {
	return &WhatsAppSender{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		from:       cfg.Number,
		token:      cfg.Token,
		httpClient: &http.Client{},
	}
}

// Send posts one message body to the messaging API.
func (s *WhatsAppSender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/Messages", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send message: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
