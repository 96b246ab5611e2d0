package agent

import (
	"log"
	"os"
	"strings"
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = "You are a helpful customer support assistant. " +
	"You read live conversation transcripts and produce concise, actionable tasks for the support operator. " +
	"Always answer with a single JSON object and nothing else."

// LoadSystemPrompt reads the planner's system prompt from path, falling back
// to DefaultSystemPrompt when the path is empty or unreadable.
func LoadSystemPrompt(path string) string {
	if path == "" {
		return DefaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: failed to read system prompt %s: %v", path, err)
		return DefaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return DefaultSystemPrompt
	}
	return prompt
}
