// Package agent turns a conversation transcript into a structured task by
// asking an LLM what the support operator needs next.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/sahaay/internal/conversation"
	"github.com/rahul/sahaay/internal/observability"
)

// Planner generates tasks from transcript snapshots. GenerateTask never
// returns nil: any model or parsing failure yields the fallback task, so the
// orchestrator always has something valid to route.
type Planner struct {
	Model        llms.Model
	SystemPrompt string
	Logger       *observability.Logger
}

func NewPlanner(model llms.Model, systemPrompt string, logger *observability.Logger) *Planner {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = observability.NewLogger()
	}
	return &Planner{
		Model:        model,
		SystemPrompt: systemPrompt,
		Logger:       logger,
	}
}

// GenerateTask asks the model for a task derived from the transcript. The
// returned task is always pending with type lookup or action.
func (p *Planner) GenerateTask(ctx context.Context, entries []conversation.TranscriptEntry) *conversation.Task {
	prompt := buildPrompt(entries)

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(p.SystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := p.Model.GenerateContent(ctx, messages)
	if err != nil {
		p.Logger.LogLLM("", "", prompt, fmt.Sprintf("error: %v", err))
		return FallbackTask()
	}
	if len(resp.Choices) == 0 {
		return FallbackTask()
	}

	raw := resp.Choices[0].Content
	p.Logger.LogLLM("", "", prompt, raw)

	task, err := parseTask(raw)
	if err != nil {
		return FallbackTask()
	}
	return task
}

// FallbackTask is the deterministic task returned when generation fails.
// Tagged lookup so the orchestrator routes it to the cheap resolver.
func FallbackTask() *conversation.Task {
	return conversation.NewTask(
		"Process customer inquiry (manual review required)",
		conversation.TypeLookup,
		[]string{
			"Review the conversation manually",
			"Provide assistance to the customer",
		},
	)
}

func buildPrompt(entries []conversation.TranscriptEntry) string {
	var b strings.Builder
	b.WriteString("Analyze this customer support conversation and generate a task to help the agent:\n\n")
	b.WriteString(conversation.TranscriptText(entries))
	b.WriteString("\n\nReturn a JSON object with:\n")
	b.WriteString("- task_description: what needs to be done\n")
	b.WriteString("- plan: step-by-step plan to resolve the issue, as an array of strings\n")
	b.WriteString(`- task_type: "lookup" (for policy/knowledge retrieval) or "action" (when something must be done on the customer's behalf)`)
	return b.String()
}

// parseTask extracts a task from the model's reply. Models wrap JSON in
// markdown fences and sometimes return the plan as a single string instead
// of an array; both are tolerated.
func parseTask(raw string) (*conversation.Task, error) {
	cleaned := stripFences(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("model reply is not valid JSON")
	}

	doc := gjson.Parse(cleaned)
	description := strings.TrimSpace(doc.Get("task_description").String())
	if description == "" {
		return nil, fmt.Errorf("model reply has no task_description")
	}

	taskType := conversation.TypeLookup
	if doc.Get("task_type").String() == string(conversation.TypeAction) {
		taskType = conversation.TypeAction
	}

	var plan []string
	planField := doc.Get("plan")
	if planField.IsArray() {
		for _, step := range planField.Array() {
			if s := strings.TrimSpace(step.String()); s != "" {
				plan = append(plan, s)
			}
		}
	} else if s := strings.TrimSpace(planField.String()); s != "" {
		for _, line := range strings.Split(s, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				plan = append(plan, line)
			}
		}
	}
	if len(plan) == 0 {
		plan = []string{"Review customer request"}
	}

	return conversation.NewTask(description, taskType, plan), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
