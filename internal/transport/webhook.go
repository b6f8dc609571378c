package transport

import (
	"context"
	"log/slog"
	"net/http"
)

// InboundHandler processes one inbound message event.
type InboundHandler interface {
	HandleInbound(ctx context.Context, from, body string) error
}

// Webhook receives inbound message callbacks from the messaging API.
type Webhook struct {
	bot InboundHandler
}

// NewWebhook creates the inbound webhook handler.
func NewWebhook(bot InboundHandler) *Webhook {
	return &Webhook{bot: bot}
}

// ServeHTTP parses the form-encoded callback and dispatches it to the
// bot. Replies travel over the outbound sender, so the callback always
// gets an empty 200: the messaging API only needs the delivery ack.
func (w *Webhook) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(rw, "bad form", http.StatusBadRequest)
		return
	}

	from := req.PostFormValue("From")
	body := req.PostFormValue("Body")
	if from == "" {
		http.Error(rw, "missing sender", http.StatusBadRequest)
		return
	}

	if err := w.bot.HandleInbound(req.Context(), from, body); err != nil {
		// The user already got a textual fallback; the API just needs
		// the ack.
		slog.Error("inbound handling failed", "user", from, "error", err)
	}
	rw.WriteHeader(http.StatusOK)
}
