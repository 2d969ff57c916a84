// Package wire defines the WebSocket protocol for live editing sessions.
package wire

import (
	"encoding/json"

	"github.com/docusign/api-request-builder-open-src/internal/document"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "add", "reset", "generate", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// GenerateData is the payload for "generate" messages.
type GenerateData struct {
	Language string `json:"language"`
}

// The payload of an "add" message is a single diagram operation.

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "document", "code", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID     string `json:"session_id"`
	SchemaVersion string `json:"schema_version"`
	Resumed       bool   `json:"resumed,omitempty"`
}

// DocumentData carries the request after an edit.
type DocumentData struct {
	Request document.Request `json:"request"`
	Trail   []string         `json:"trail"`
}

// CodeData carries a generated program.
type CodeData struct {
	Language    string `json:"language"`
	DisplayName string `json:"display_name"`
	Code        string `json:"code"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// InsertionDetails explains a rejected block.
type InsertionDetails struct {
	ObjectType string   `json:"object_type"`
	Missing    []string `json:"missing"`
}

// Error codes.
const (
	CodeUnknownType      = "unknown_type"
	CodeInvalidData      = "invalid_data"
	CodeInvalidOperation = "invalid_operation"
	CodeInsertionFailed  = "insertion_failed"
	CodeUnknownBlock     = "unknown_block"
	CodeGenerateFailed   = "generate_failed"
)
