package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/diagram"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/session"
)

// Generator produces programs for the "generate" message.
type Generator interface {
	Generate(req document.Request, language string) (string, error)
	DisplayName(language string) string
}

// Handler manages WebSocket connections for live editing.
type Handler struct {
	sessions      *session.Manager
	generator     Generator
	schemaVersion string
	logger        *slog.Logger
}

// NewHandler creates a WebSocket handler with all dependencies.
func NewHandler(sessions *session.Manager, gen Generator, schemaVersion string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:      sessions,
		generator:     gen,
		schemaVersion: schemaVersion,
		logger:        logger,
	}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. A "session"
// query parameter naming a live session resumes it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	sess, resumed := h.session(r.URL.Query().Get("session"))
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{
			SessionID:     sess.ID,
			SchemaVersion: h.schemaVersion,
			Resumed:       resumed,
		},
	})
	if resumed {
		h.sendDocument(ctx, conn, "", sess.Request(), sess.Trail())
	}

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				h.logger.Debug("connection closed", "session_id", sess.ID, "status", status)
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "add":
			h.handleAdd(ctx, conn, sess, msg)
		case "reset":
			req := sess.Reset()
			h.sendDocument(ctx, conn, msg.ID, req, sess.Trail())
		case "generate":
			h.handleGenerate(ctx, conn, sess, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, ErrorData{
				Code:    CodeUnknownType,
				Message: fmt.Sprintf("unknown message type: %s", msg.Type),
			})
		}
	}
}

func (h *Handler) session(id string) (*session.Session, bool) {
	if id != "" {
		if s := h.sessions.Get(id); s != nil {
			return s, true
		}
	}
	return h.sessions.Create(), false
}

func (h *Handler) handleAdd(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	op, err := diagram.DecodeOperation(msg.Data)
	if err != nil {
		data := ErrorData{Code: CodeInvalidOperation, Message: err.Error()}
		var invalid *diagram.InvalidError
		if errors.As(err, &invalid) {
			data.Details = invalid.Problems
		}
		h.sendError(ctx, conn, msg.ID, data)
		return
	}

	req, err := sess.Apply(op)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, ErrorFor(err))
		return
	}
	h.sendDocument(ctx, conn, msg.ID, req, sess.Trail())
}

// ErrorFor maps an operation failure to its protocol error.
func ErrorFor(err error) ErrorData {
	var insertion *assembler.InsertionError
	if errors.As(err, &insertion) {
		return ErrorData{
			Code:    CodeInsertionFailed,
			Message: insertion.Error(),
			Details: InsertionDetails{ObjectType: insertion.ObjectType, Missing: insertion.Missing()},
		}
	}
	var unknown *assembler.UnknownObjectError
	if errors.As(err, &unknown) {
		return ErrorData{Code: CodeUnknownBlock, Message: unknown.Error()}
	}
	return ErrorData{Code: CodeInvalidOperation, Message: err.Error()}
}

func (h *Handler) handleGenerate(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data GenerateData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.Language == "" {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: CodeInvalidData, Message: "invalid generate data"})
		return
	}

	code, err := h.generator.Generate(sess.Request(), data.Language)
	if err != nil {
		h.logger.Error("generate", "session_id", sess.ID, "language", data.Language, "err", err)
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: CodeGenerateFailed, Message: err.Error()})
		return
	}
	h.send(ctx, conn, ServerMessage{
		Type:      "code",
		RequestID: msg.ID,
		Data: CodeData{
			Language:    data.Language,
			DisplayName: h.generator.DisplayName(data.Language),
			Code:        code,
		},
	})
}

func (h *Handler) sendDocument(ctx context.Context, conn *websocket.Conn, requestID string, req document.Request, trail []string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "document",
		RequestID: requestID,
		Data:      DocumentData{Request: req, Trail: trail},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Warn("websocket write", "type", msg.Type, "err", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID string, data ErrorData) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data:      data,
	})
}
