package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"risk-assessment-service/internal/app"
	"risk-assessment-service/internal/domain"
)

type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.AssessmentService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type statusPayload struct {
	PatientID        string           `json:"patientId"`
	ProfileCompleted bool             `json:"profileCompleted"`
	Session          *domain.Snapshot `json:"session,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

// ServeWS upgrades HTTP requests to websockets and drives one patient's
// questionnaire. Messages are handled strictly in arrival order. Closing the
// socket abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		patientID = app.AnonymousPatient
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	defer h.service.Abandon(context.WithoutCancel(ctx), patientID)

	status := statusPayload{PatientID: patientID, ProfileCompleted: h.service.ProfileCompleted(ctx, patientID)}
	if snap, err := h.service.Status(ctx, patientID); err == nil {
		status.Session = &snap
	}
	if err := conn.WriteJSON(outboundMessage[statusPayload]{Type: "status", Payload: status}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		msg := h.handle(ctx, patientID, inbound)
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("ws write error", "patient_id", patientID, "error", err)
			return
		}
	}
}

func (h *WSHandler) handle(ctx context.Context, patientID string, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "start":
		return snapshotMessage(h.service.Begin(ctx, patientID))
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage(errors.New("invalid answer payload"))
		}
		return snapshotMessage(h.service.Answer(ctx, patientID, payload.QuestionID, payload.Answer))
	case "complete":
		return snapshotMessage(h.service.Finish(ctx, patientID))
	case "status":
		return snapshotMessage(h.service.Status(ctx, patientID))
	case "reset":
		h.service.Abandon(ctx, patientID)
		return outboundMessage[any]{Type: "reset", Payload: statusPayload{PatientID: patientID}}
	default:
		return errorMessage(errors.New("unsupported message type"))
	}
}

func snapshotMessage(snap domain.Snapshot, err error) outboundMessage[any] {
	if err != nil {
		return errorMessage(err)
	}
	if snap.State == domain.StateDone {
		return outboundMessage[any]{Type: "result", Payload: snap}
	}
	return outboundMessage[any]{Type: "question", Payload: snap}
}

// errorMessage flags irrecoverable failures as retryable: the client offers
// a retry of start. Invalid input is never retryable as sent.
func errorMessage(err error) outboundMessage[any] {
	payload := errorPayload{Message: err.Error()}
	switch domain.KindOf(err) {
	case domain.ErrIrrecoverable:
		payload.Kind, payload.Retryable = "irrecoverable", true
	case domain.ErrTransient:
		payload.Kind, payload.Retryable = "transient", true
	case domain.ErrInvalidInput:
		payload.Kind = "invalid_input"
	}
	return outboundMessage[any]{Type: "error", Payload: payload}
}
