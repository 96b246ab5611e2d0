// Package stt provides transcription sources: streams of transcript entries
// produced in the background and pumped into the conversation state.
package stt

import (
	"context"

	"github.com/rahul/sahaay/internal/conversation"
)

// Source is a stream of transcript entries. Start returns a channel that is
// closed when the source finishes, the context is canceled, or Stop is
// called. Stop is idempotent and safe to call while an entry is in flight.
type Source interface {
	Start(ctx context.Context) (<-chan conversation.TranscriptEntry, error)
	Stop()
}
