package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classlab/gerrymander/internal/protocol"
	"github.com/classlab/gerrymander/internal/server"
)

const writeTimeout = 3 * time.Second

// PlayerHandler upgrades a participant connection and bridges it to the
// manager: a writer goroutine drains the outbox, the reader loop feeds the
// inbox. The manager never blocks on a connection.
func PlayerHandler(log *zap.Logger, m *server.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan protocol.ServerMessage, 16)

		m.Inbox() <- server.Join{ID: connID, Outbox: out}
		defer func() { m.Inbox() <- server.Leave{ID: connID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshal outbound", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("player read ended", zap.Error(err))
				}
				return
			}

			msg, err := protocol.DecodeClient(data)
			if err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","message":"bad json"}`))
				continue
			}
			m.Inbox() <- server.FromPlayer{ID: connID, Msg: msg}
		}
	}
}

// AdminHandler is the host console connection. Only one admin at a time;
// a newer connection simply replaces the outbox.
func AdminHandler(log *zap.Logger, m *server.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan protocol.AdminMessage, 16)
		m.Inbox() <- server.AdminJoin{Outbox: out}
		defer func() { m.Inbox() <- server.AdminLeave{} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshal admin update", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var msg protocol.AdminMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			m.Inbox() <- server.FromAdmin{Msg: msg}
		}
	}
}
