package assist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rahul/sahaay/internal/conversation"
	"github.com/rahul/sahaay/internal/stt"
)

type fakeGenerator struct {
	calls int
	task  *conversation.Task
}

func (f *fakeGenerator) GenerateTask(ctx context.Context, entries []conversation.TranscriptEntry) *conversation.Task {
	f.calls++
	if f.task != nil {
		return f.task
	}
	return conversation.NewTask("generated", conversation.TypeLookup, nil)
}

type fakeRouter struct {
	calls  int
	result string
	err    error
}

func (f *fakeRouter) RouteTask(ctx context.Context, task *conversation.Task) (string, error) {
	f.calls++
	return f.result, f.err
}

func newTestAssistant(source stt.Source) (*Assistant, *fakeGenerator, *fakeRouter, *conversation.Manager) {
	states := conversation.NewManager(nil, 0, nil)
	gen := &fakeGenerator{}
	router := &fakeRouter{result: "resolved"}
	return New(states, gen, router, source, nil), gen, router, states
}

func TestTrigger_EmptyTranscriptShortCircuits(t *testing.T) {
	a, gen, router, _ := newTestAssistant(nil)

	result, err := a.Trigger(context.Background())
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if result != NoConversationResult {
		t.Errorf("result = %q, want %q", result, NoConversationResult)
	}
	if gen.calls != 0 {
		t.Error("task generation must not run on an empty transcript")
	}
	if router.calls != 0 {
		t.Error("routing must not run on an empty transcript")
	}
}

func TestTrigger_GeneratesAndRoutes(t *testing.T) {
	a, gen, router, states := newTestAssistant(nil)
	states.AppendEntry(conversation.NewTranscriptEntry(conversation.SpeakerCustomer, "Hi, order ORDER-12345 status?"))

	result, err := a.Trigger(context.Background())
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if result != "resolved" {
		t.Errorf("result = %q, want router result", result)
	}
	if gen.calls != 1 || router.calls != 1 {
		t.Errorf("generator/router calls = %d/%d, want 1/1", gen.calls, router.calls)
	}
}

func TestTrigger_RouterFailureIsReturned(t *testing.T) {
	a, _, router, states := newTestAssistant(nil)
	router.err = errors.New("timeout")
	states.AppendEntry(conversation.NewTranscriptEntry(conversation.SpeakerCustomer, "cancel my order"))

	_, err := a.Trigger(context.Background())
	if err == nil || err.Error() != "timeout" {
		t.Fatalf("expected the routing error, got %v", err)
	}
}

func TestTranscriptionPump_AppendsEntries(t *testing.T) {
	source := stt.NewScripted([]stt.ScriptLine{
		{Speaker: conversation.SpeakerCustomer, Text: "one"},
		{Speaker: conversation.SpeakerAgent, Text: "two"},
	}, time.Millisecond)

	a, _, _, states := newTestAssistant(source)

	if err := a.StartTranscription(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Wait()

	got := states.Transcript()
	if len(got) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(got))
	}
	if got[0].Text != "one" || got[1].Text != "two" {
		t.Errorf("entries out of order: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestStopTranscription_Idempotent(t *testing.T) {
	source := stt.NewScripted(nil, time.Hour)
	a, _, _, states := newTestAssistant(source)

	if err := a.StartTranscription(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Let the first entry land.
	deadline := time.After(2 * time.Second)
	for len(states.Transcript()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for first entry")
		case <-time.After(time.Millisecond):
		}
	}

	a.StopTranscription()
	a.Wait()
	before := len(states.Transcript())

	a.StopTranscription() // second stop: no error, no state change
	if after := len(states.Transcript()); after != before {
		t.Errorf("second stop changed transcript length: %d -> %d", before, after)
	}
}
