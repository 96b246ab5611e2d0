package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/sahaay/internal/conversation"
)

type fakeModel struct {
	response string
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.response, f.err
}

func sampleTranscript() []conversation.TranscriptEntry {
	return []conversation.TranscriptEntry{
		conversation.NewTranscriptEntry(conversation.SpeakerCustomer, "Hi, order ORDER-12345 status?"),
	}
}

func TestGenerateTask_ParsesModelReply(t *testing.T) {
	model := &fakeModel{response: `{
		"task_description": "Look up order status for ORDER-12345",
		"plan": ["Search order database", "Report status to customer"],
		"task_type": "lookup"
	}`}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	if task == nil {
		t.Fatal("GenerateTask must never return nil")
	}
	if task.Status != conversation.StatusPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if task.Type != conversation.TypeLookup {
		t.Errorf("type = %s, want lookup", task.Type)
	}
	if task.Description != "Look up order status for ORDER-12345" {
		t.Errorf("unexpected description %q", task.Description)
	}
	if len(task.GeneratedPlan) != 2 {
		t.Errorf("plan has %d steps, want 2", len(task.GeneratedPlan))
	}
	if task.ID == "" {
		t.Error("task must have an id")
	}
}

func TestGenerateTask_StripsMarkdownFences(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{"task_description": "Cancel the order", "plan": ["Open portal"], "task_type": "action"}` + "\n```"}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	if task.Type != conversation.TypeAction {
		t.Errorf("type = %s, want action", task.Type)
	}
	if task.Description != "Cancel the order" {
		t.Errorf("unexpected description %q", task.Description)
	}
}

func TestGenerateTask_PlanAsString(t *testing.T) {
	model := &fakeModel{response: `{"task_description": "Help the customer", "plan": "1. Check order\n2. Reply", "task_type": "lookup"}`}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	if len(task.GeneratedPlan) != 2 {
		t.Errorf("string plan should split into 2 steps, got %d: %v", len(task.GeneratedPlan), task.GeneratedPlan)
	}
}

func TestGenerateTask_UnknownTypeDefaultsToLookup(t *testing.T) {
	model := &fakeModel{response: `{"task_description": "Do something", "task_type": "banana"}`}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	if task.Type != conversation.TypeLookup {
		t.Errorf("unrecognized type should map to lookup, got %s", task.Type)
	}
	if len(task.GeneratedPlan) == 0 {
		t.Error("missing plan should get a default step")
	}
}

func TestGenerateTask_ModelErrorYieldsFallback(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	if task == nil {
		t.Fatal("GenerateTask must never return nil")
	}
	if task.Type != conversation.TypeLookup {
		t.Errorf("fallback task type = %s, want lookup", task.Type)
	}
	if task.Status != conversation.StatusPending {
		t.Errorf("fallback status = %s, want pending", task.Status)
	}
}

func TestGenerateTask_GarbageReplyYieldsFallback(t *testing.T) {
	model := &fakeModel{response: "I'm sorry, I can't help with that."}
	p := NewPlanner(model, "", nil)

	task := p.GenerateTask(context.Background(), sampleTranscript())
	fallback := FallbackTask()
	if task.Description != fallback.Description {
		t.Errorf("expected fallback task, got %q", task.Description)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {}  ", "{}"},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
