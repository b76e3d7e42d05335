package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 << 10
	closeNotFound  = "conversation not found"
	closeMalformed = "malformed frame"
)

// stream upgrades to a websocket. Each text frame carries {"message": {...}} and is
// answered with the scores after that message, in order. Failures are reported per
// frame; the socket closes when the conversation disappears.
func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	id := conversationID(r)
	if _, err := h.coach.Scores(id); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.Warn("Websocket upgrade failed", logger.ConversationIDField(id), logger.ErrorField(err))
		return
	}
	defer conn.Close()

	log := logger.GetLoggerFromContext(r.Context(), h.log).WithFields(logger.ConversationIDField(id))
	log.Info("Stream opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.keepAlive(ctx, conn)

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Stream read failed", logger.ErrorField(err))
			}
			log.Info("Stream closed")
			return
		}
		if kind != websocket.TextMessage {
			closeWith(conn, websocket.CloseUnsupportedData, closeMalformed)
			return
		}

		reply, closing := h.handleFrame(ctx, id, data, log)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("Stream write failed", logger.ErrorField(err))
			return
		}
		if closing {
			closeWith(conn, websocket.ClosePolicyViolation, closeNotFound)
			return
		}
	}
}

// handleFrame processes one frame. closing is set when the conversation is gone.
func (h *handler) handleFrame(ctx context.Context, id string, data []byte, log logger.Logger) (streamReply, bool) {
	var req messageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return streamReply{Error: conversation.Validationf("invalid JSON frame: %v", err).Error()}, false
	}
	msg, err := req.toMessage()
	if err != nil {
		return streamReply{Error: err.Error()}, false
	}

	ctx, cancel := context.WithTimeout(ctx, h.messageTimeout)
	defer cancel()

	res, err := h.coach.AddMessage(ctx, id, msg)
	if err != nil {
		log.Warn("Streamed message failed", logger.MessageIDField(msg.ID), logger.ErrorField(err))
		return streamReply{MessageID: msg.ID, Error: err.Error()}, errors.Is(err, conversation.ErrNotFound)
	}
	return streamReply{MessageID: msg.ID, Scores: &res.Scores, Duplicate: res.Duplicate}, false
}

func (h *handler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

// originChecker accepts same-host requests, requests without an Origin header and
// any origin in allowed. An empty list or "*" accepts everything.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set[strings.ToLower(strings.TrimRight(origin, "/"))]
	}
}
