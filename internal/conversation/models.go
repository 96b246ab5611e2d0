// Package conversation holds the shared conversation state for a live
// support session: the transcript, the task derived from it, and the
// manager that keeps both consistent across concurrent callers.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerCustomer Speaker = "customer"
	SpeakerAgent    Speaker = "agent"
	SpeakerUnknown  Speaker = "unknown"
)

// ParseSpeaker maps a raw label to a Speaker, defaulting to unknown.
func ParseSpeaker(label string) Speaker {
	switch Speaker(strings.ToLower(label)) {
	case SpeakerCustomer:
		return SpeakerCustomer
	case SpeakerAgent:
		return SpeakerAgent
	default:
		return SpeakerUnknown
	}
}

// TranscriptEntry is a single timestamped utterance. Entries are immutable
// once created; the transcript is append-only and never reordered.
type TranscriptEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTranscriptEntry builds an entry stamped with the current time.
func NewTranscriptEntry(speaker Speaker, text string) TranscriptEntry {
	return TranscriptEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// TaskStatus is the lifecycle state of a Task. Transitions are monotonic:
// pending -> processing -> (completed | failed).
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Valid reports whether s is one of the four defined statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final status.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskType selects which resolver handles a Task.
type TaskType string

const (
	TypeLookup TaskType = "lookup" // knowledge-base / web retrieval
	TypeAction TaskType = "action" // browser or simulated automation
)

// Task is a unit of work derived from the conversation. The orchestrator
// owns it during execution; terminal copies live in the state's history.
// Result is set exactly when the status is terminal.
type Task struct {
	ID            string     `json:"id"`
	Description   string     `json:"description"`
	GeneratedPlan []string   `json:"generated_plan"`
	Type          TaskType   `json:"task_type"`
	Status        TaskStatus `json:"status"`
	Result        string     `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewTask returns a pending Task with a fresh ID.
func NewTask(description string, taskType TaskType, plan []string) *Task {
	now := time.Now()
	return &Task{
		ID:            uuid.NewString(),
		Description:   description,
		GeneratedPlan: plan,
		Type:          taskType,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetStatus records a status change and, for terminal statuses, the result.
func (t *Task) SetStatus(status TaskStatus, result string) {
	t.Status = status
	t.UpdatedAt = time.Now()
	if status.Terminal() {
		t.Result = result
	}
}

// Clone returns an independent deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.GeneratedPlan = append([]string(nil), t.GeneratedPlan...)
	return &cp
}

// State is the aggregate conversation state. It is only ever touched through
// a Manager; copies handed out by the Manager are fully independent.
type State struct {
	ConversationID string            `json:"conversation_id"`
	Transcript     []TranscriptEntry `json:"transcript"`
	CurrentTask    *Task             `json:"current_task,omitempty"`
	TaskHistory    []*Task           `json:"task_history"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewState mints a State with a fresh conversation id.
func NewState() *State {
	return &State{
		ConversationID: uuid.NewString(),
		CreatedAt:      time.Now(),
	}
}

// Clone returns an independent deep copy of the whole state.
func (s *State) Clone() *State {
	cp := &State{
		ConversationID: s.ConversationID,
		Transcript:     append([]TranscriptEntry(nil), s.Transcript...),
		CurrentTask:    s.CurrentTask.Clone(),
		CreatedAt:      s.CreatedAt,
	}
	if s.TaskHistory != nil {
		cp.TaskHistory = make([]*Task, len(s.TaskHistory))
		for i, t := range s.TaskHistory {
			cp.TaskHistory[i] = t.Clone()
		}
	}
	return cp
}

// TranscriptText renders the transcript as plain text for LLM prompts.
func TranscriptText(entries []TranscriptEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Speaker, e.Text))
	}
	return strings.Join(lines, "\n")
}
