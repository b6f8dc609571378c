package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Console is a websocket chat endpoint for local development. Each
// connection gets a synthetic ws: address and drives the same bot
// pipeline as the webhook; replies route back over the socket through
// the registry.
type Console struct {
	bot      InboundHandler
	registry *Registry
	isDev    bool
}

// NewConsole creates the dev console handler.
func NewConsole(bot InboundHandler, registry *Registry, isDev bool) *Console {
	return &Console{bot: bot, registry: registry, isDev: isDev}
}

// connSender writes replies to one websocket connection.
type connSender struct {
	conn *websocket.Conn
}

func (s *connSender) Send(ctx context.Context, _ string, body string) error {
	return s.conn.Write(ctx, websocket.MessageText, []byte(body))
}

// ServeHTTP upgrades to a websocket and relays text frames to the bot.
func (c *Console) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(rw, req, &websocket.AcceptOptions{
		InsecureSkipVerify: c.isDev,
	})
	if err != nil {
		slog.Warn("console websocket accept failed", "error", err)
		return
	}

	addr := "ws:" + uuid.NewString()
	c.registry.Register(addr, &connSender{conn: conn})
	defer func() {
		c.registry.Unregister(addr)
		conn.Close(websocket.StatusNormalClosure, "session closed")
	}()
	slog.Info("console session opened", "addr", addr)

	ctx := req.Context()
	for {
		kind, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, io.EOF) || ctx.Err() != nil {
				slog.Info("console session closed", "addr", addr)
			} else {
				slog.Warn("console read failed", "addr", addr, "error", err)
			}
			return
		}
		if kind != websocket.MessageText {
			continue
		}

		if err := c.bot.HandleInbound(ctx, addr, string(data)); err != nil {
			slog.Error("console inbound handling failed", "addr", addr, "error", err)
		}
	}
}
