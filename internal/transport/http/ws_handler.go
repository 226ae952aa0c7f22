package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

// WSHandler drives one quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and runs the select/submit/advance loop.
// Query: subjectId (required), name and grade (optional, credit the run to a student).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subjectId")
	if subjectID == "" {
		http.Error(w, "missing subjectId", http.StatusBadRequest)
		return
	}
	var student *domain.Student
	if name := r.URL.Query().Get("name"); name != "" {
		grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
		if err != nil {
			http.Error(w, "grade must be a number", http.StatusBadRequest)
			return
		}
		student = &domain.Student{Name: name, Grade: grade}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithContext(r.Context()).WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// The request context is canceled once the handler hijacks the connection
	// on some servers; session work gets its own context.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	log := logging.WithContext(ctx)

	view, err := h.service.StartSession(ctx, subjectID, student)
	if err != nil {
		_ = writeJSON(conn, outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	sessionID := view.ID
	defer func() {
		if err := h.service.Abandon(ctx, sessionID); err != nil {
			log.WithError(err).WithField("session_id", sessionID).Warn("failed to discard session")
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// WriteControl may run concurrently with the loop's WriteJSON.
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	if err := writeJSON(conn, outboundMessage[app.SessionView]{Type: "question", Payload: view}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		msg := h.handle(ctx, sessionID, inbound)
		if err := writeJSON(conn, msg); err != nil {
			log.WithError(err).Debug("ws write error")
			return
		}
	}
}

func (h *WSHandler) handle(ctx context.Context, sessionID string, inbound inboundMessage) any {
	fail := func(err error) any {
		logging.WithContext(ctx).WithError(err).WithField("session_id", sessionID).Debug("ws message rejected")
		return outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)}
	}

	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.OptionIndex == nil {
			return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "invalid select payload"}}
		}
		view, err := h.service.SelectOption(ctx, sessionID, *payload.OptionIndex)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[app.SessionView]{Type: "selected", Payload: view}
	case "submit":
		result, err := h.service.SubmitAnswer(ctx, sessionID)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[app.SubmitResult]{Type: "result", Payload: result}
	case "advance":
		outcome, err := h.service.Advance(ctx, sessionID)
		if err != nil {
			return fail(err)
		}
		if outcome.Finished {
			return outboundMessage[app.AdvanceOutcome]{Type: "finished", Payload: outcome}
		}
		return outboundMessage[app.SessionView]{Type: "question", Payload: outcome.Session}
	default:
		return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Code: "bad_request", Message: "unsupported message type"}}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
