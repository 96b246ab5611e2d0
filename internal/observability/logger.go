package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeTranscript    EventType = "transcript_entry"
	EventTypeTask          EventType = "task_update"
	EventTypeTrigger       EventType = "trigger"
	EventTypeAutosave      EventType = "autosave"
	EventTypeListenerError EventType = "listener_error"
	EventTypeHeartbeat     EventType = "heartbeat"
	EventTypeLLM           EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	TaskID         string    `json:"task_id,omitempty"`
	Data           any       `json:"data"`
	Timestamp      time.Time `json:"timestamp"`
}

// Logger handles structured logging.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogTranscript(conversationID, speaker, text string) {
	l.Log(Event{
		Type:           EventTypeTranscript,
		ConversationID: conversationID,
		Data: map[string]string{
			"speaker": speaker,
			"text":    text,
		},
	})
}

func (l *Logger) LogTask(conversationID, taskID, status, result string) {
	l.Log(Event{
		Type:           EventTypeTask,
		ConversationID: conversationID,
		TaskID:         taskID,
		Data: map[string]string{
			"status": status,
			"result": result,
		},
	})
}

func (l *Logger) LogTrigger(conversationID, outcome string) {
	l.Log(Event{
		Type:           EventTypeTrigger,
		ConversationID: conversationID,
		Data:           map[string]string{"outcome": outcome},
	})
}

func (l *Logger) LogAutosave(conversationID, ref string, err error) {
	data := map[string]string{"ref": ref}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{
		Type:           EventTypeAutosave,
		ConversationID: conversationID,
		Data:           data,
	})
}

func (l *Logger) LogListenerError(conversationID string, index int, err any) {
	l.Log(Event{
		Type:           EventTypeListenerError,
		ConversationID: conversationID,
		Data: map[string]any{
			"listener": index,
			"error":    fmt.Sprint(err),
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(conversationID, taskID string, prompt any, response string) {
	l.Log(Event{
		Type:           EventTypeLLM,
		ConversationID: conversationID,
		TaskID:         taskID,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
