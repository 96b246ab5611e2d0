package stt

import (
	"context"
	"sync"
	"time"

	"github.com/rahul/sahaay/internal/conversation"
)

// ScriptLine is one utterance of a scripted conversation.
type ScriptLine struct {
	Speaker conversation.Speaker
	Text    string
}

// DemoScript is the built-in conversation used when no script is supplied.
var DemoScript = []ScriptLine{
	{conversation.SpeakerCustomer, "Hi, I need help with my order"},
	{conversation.SpeakerAgent, "Hello! I'd be happy to help. Could you please provide your order number?"},
	{conversation.SpeakerCustomer, "Yes, it's ORDER-12345"},
	{conversation.SpeakerAgent, "Thank you. Let me check the status of your order."},
}

// Scripted replays a fixed conversation on an interval. Used for demos and
// tests; selected explicitly via configuration.
type Scripted struct {
	Lines    []ScriptLine
	Interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewScripted builds a scripted source. Empty lines selects DemoScript;
// interval <= 0 selects 3 seconds, matching a human speaking cadence.
func NewScripted(lines []ScriptLine, interval time.Duration) *Scripted {
	if len(lines) == 0 {
		lines = DemoScript
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Scripted{
		Lines:    lines,
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

func (s *Scripted) Start(ctx context.Context) (<-chan conversation.TranscriptEntry, error) {
	out := make(chan conversation.TranscriptEntry)

	go func() {
		defer close(out)
		for _, line := range s.Lines {
			entry := conversation.NewTranscriptEntry(line.Speaker, line.Text)
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}

			select {
			case <-time.After(s.Interval):
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return out, nil
}

// Stop ends the stream. Calling it again is a no-op.
func (s *Scripted) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
