// Package events defines the WebSocket event contract between the analysis
// server and its clients. Every frame on the wire is a Message envelope with
// one of the typed payloads below.
package events

import "time"

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	MessageTypeConnection        MessageType = "connection"
	MessageTypeStageStatus       MessageType = "operation:status"
	MessageTypeStageProgress     MessageType = "operation:progress"
	MessageTypeRunComplete       MessageType = "operation:complete"
	MessageTypeCheckpointWaiting MessageType = "operation:checkpoint"
	MessageTypeError             MessageType = "error"
)

// Message is the envelope every broadcast uses.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NewMessage stamps an envelope around a payload.
func NewMessage(t MessageType, data interface{}) Message {
	return Message{Type: t, Timestamp: time.Now().UTC(), Data: data}
}

// ConnectionEvent greets a client after registration.
type ConnectionEvent struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message,omitempty"`
}

// StageStatusEvent reports a stage status transition within a run.
type StageStatusEvent struct {
	RunID  string `json:"run_id"`
	Stage  string `json:"stage"`
	Status string `json:"status"`
}

// StageProgressEvent reports incremental progress of the active stage.
type StageProgressEvent struct {
	RunID    string  `json:"run_id"`
	Stage    string  `json:"stage"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message,omitempty"`
}

// CheckpointWaitingEvent signals that a run is blocked on a reviewer decision.
type CheckpointWaitingEvent struct {
	RunID string `json:"run_id"`
	Stage string `json:"stage"`
}

// RunCompleteEvent announces the terminal status of a run.
type RunCompleteEvent struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// ErrorEvent carries a broadcastable error.
type ErrorEvent struct {
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}
