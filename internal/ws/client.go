package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/protocol"
)

const writeTimeout = 3 * time.Second

// Client is the channel adapter on the player side: it owns the websocket,
// turns inbound frames into a channel for the session loop, and serializes
// outbound messages. Sends are fire-and-forget; a failed write is logged and
// the state machine moves on only when the server answers.
type Client struct {
	log     *zap.Logger
	conn    *websocket.Conn
	inbound chan []byte
}

func Dial(ctx context.Context, log *zap.Logger, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{
		log:     log,
		conn:    conn,
		inbound: make(chan []byte, 16),
	}, nil
}

// Inbound delivers raw frames in arrival order. Closed when the connection
// ends.
func (c *Client) Inbound() <-chan []byte { return c.inbound }

// ReadLoop pumps frames until the connection or context ends. Run it on its
// own goroutine; the session loop consumes Inbound.
func (c *Client) ReadLoop(ctx context.Context) {
	defer close(c.inbound)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.log.Info("connection closed")
			default:
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}
		select {
		case c.inbound <- data:
		case <-ctx.Done():
			return
		}
	}
}

// Send implements session.Sender.
func (c *Client) Send(msg protocol.ClientMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal outbound", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		c.log.Warn("send failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (c *Client) Close() {
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
}
