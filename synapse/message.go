package synapse

import (
	"time"

	"github.com/reasonalabs/reasona/core"
)

// MessageType classifies a SynapticMessage.
type MessageType string

const (
	MessageRequest      MessageType = "request"
	MessageResponse     MessageType = "response"
	MessageNotification MessageType = "notification"
	MessageError        MessageType = "error"
	MessageHandshake    MessageType = "handshake"
	MessageHeartbeat    MessageType = "heartbeat"
)

// SynapticMessage is the envelope for agent-to-agent traffic.
type SynapticMessage struct {
	ID            string         `json:"id"`
	Type          MessageType    `json:"type"`
	Source        string         `json:"source"`
	Target        string         `json:"target,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// NewMessage builds an envelope with a fresh id and timestamp.
func NewMessage(msgType MessageType, source, target string, payload map[string]any) *SynapticMessage {
	return &SynapticMessage{
		ID:        core.NewID(),
		Type:      msgType,
		Source:    source,
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// TaskStatus is the lifecycle state of an orchestration task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Artifact is one recorded step of an orchestration: the lead's plan, a
// participant's per-round contribution, or the final synthesis. Round is
// meaningful for contributions only.
type Artifact struct {
	Type    string `json:"type"` // "plan", "contribution" or "synthesis"
	Agent   string `json:"agent"`
	Round   int    `json:"round"`
	Content string `json:"content"`
}

// Task tracks one orchestration call: description, lifecycle status and the
// ordered artifact trail. Tasks live only in the Synapse's in-memory
// registry.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt time.Time  `json:"completed_at,omitzero"`
	Artifacts   []Artifact `json:"artifacts"`
}

// NewTask creates a pending Task for the given description.
func NewTask(description string) *Task {
	return &Task{
		ID:          core.NewID(),
		Description: description,
		Status:      TaskPending,
		CreatedAt:   time.Now().UTC(),
	}
}
