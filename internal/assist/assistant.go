// Package assist wires the pieces into the live assistant: a background
// loop pumping transcription into the conversation state, and the on-demand
// trigger that turns the transcript into an executed task.
package assist

import (
	"context"
	"sync"

	"github.com/rahul/sahaay/internal/conversation"
	"github.com/rahul/sahaay/internal/observability"
	"github.com/rahul/sahaay/internal/stt"
)

// NoConversationResult is returned by Trigger when there is nothing to
// analyze yet. The only short-circuit path: every other trigger produces a
// routed task.
const NoConversationResult = "No conversation to process"

// TaskGenerator maps a transcript snapshot to a pending task. Never returns
// nil; failures inside the generator surface as a fallback task.
type TaskGenerator interface {
	GenerateTask(ctx context.Context, entries []conversation.TranscriptEntry) *conversation.Task
}

// Router executes a task and reports its result.
type Router interface {
	RouteTask(ctx context.Context, task *conversation.Task) (string, error)
}

// Assistant owns the producer side (transcription pump) and the consumer
// side (trigger) of one support session.
type Assistant struct {
	States    *conversation.Manager
	Generator TaskGenerator
	Router    Router
	Source    stt.Source
	Logger    *observability.Logger

	// triggerMu serializes triggers so at most one task is in flight,
	// matching the single current_task slot in the state.
	triggerMu sync.Mutex
	pumpDone  chan struct{}
}

func New(states *conversation.Manager, generator TaskGenerator, router Router, source stt.Source, logger *observability.Logger) *Assistant {
	if logger == nil {
		logger = observability.NewLogger()
	}
	return &Assistant{
		States:    states,
		Generator: generator,
		Router:    router,
		Source:    source,
		Logger:    logger,
	}
}

// StartTranscription starts the source and pumps its entries into the
// state until the stream closes. The pump holds no locks while waiting for
// the next entry; appends happen one at a time from this single goroutine.
func (a *Assistant) StartTranscription(ctx context.Context) error {
	entries, err := a.Source.Start(ctx)
	if err != nil {
		return err
	}

	observability.SetStatus(observability.PhaseListening, "")
	a.pumpDone = make(chan struct{})

	go func() {
		defer close(a.pumpDone)
		for entry := range entries {
			a.States.AppendEntry(entry)
			a.Logger.LogTranscript(a.States.ConversationID(), string(entry.Speaker), entry.Text)
			observability.SetEntryCount(len(a.States.Transcript()))
		}
		observability.SetStatus(observability.PhaseIdle, "")
	}()

	return nil
}

// StopTranscription stops the source. Idempotent; safe to call while an
// entry is being appended.
func (a *Assistant) StopTranscription() {
	if a.Source != nil {
		a.Source.Stop()
	}
}

// Wait blocks until the transcription pump has drained.
func (a *Assistant) Wait() {
	if a.pumpDone != nil {
		<-a.pumpDone
	}
}

// Trigger runs one analysis pass: snapshot the transcript, generate a task,
// route it. The generation and routing calls are slow network work and run
// entirely outside the state lock. Both the result and any resolver error
// are reported to the caller; the error is also embedded in the failed
// task's result.
func (a *Assistant) Trigger(ctx context.Context) (string, error) {
	a.triggerMu.Lock()
	defer a.triggerMu.Unlock()

	// One snapshot serves both the transcript and the id, so the log line
	// is attributed to the same conversation the task was generated from
	// even if a Clear lands in between.
	snap := a.States.Snapshot()
	conversationID := snap.ConversationID
	if len(snap.Transcript) == 0 {
		a.Logger.LogTrigger(conversationID, "empty transcript")
		return NoConversationResult, nil
	}

	task := a.Generator.GenerateTask(ctx, snap.Transcript)

	observability.SetStatus(observability.PhaseProcessing, task.Description)
	defer observability.SetStatus(observability.PhaseListening, "")

	result, err := a.Router.RouteTask(ctx, task)
	if err != nil {
		a.Logger.LogTrigger(conversationID, "failed: "+err.Error())
		return "", err
	}
	a.Logger.LogTrigger(conversationID, "completed")
	return result, nil
}
