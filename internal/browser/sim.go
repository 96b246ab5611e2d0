package browser

import (
	"context"
	"strings"
	"time"

	"github.com/rahul/sahaay/internal/conversation"
)

// SimExecutor fakes portal automation for environments without a browser.
// It must be selected explicitly in configuration; nothing substitutes it
// for the real executor behind the caller's back.
type SimExecutor struct {
	Delay time.Duration // simulated processing time
}

func NewSimExecutor(delay time.Duration) *SimExecutor {
	return &SimExecutor{Delay: delay}
}

func (s *SimExecutor) ExecuteTask(ctx context.Context, task *conversation.Task) (string, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	desc := strings.ToLower(task.Description)
	switch {
	case strings.Contains(desc, "update"):
		return "Successfully updated customer information in the system", nil
	case strings.Contains(desc, "cancel"):
		return "Order cancellation request has been processed", nil
	case strings.Contains(desc, "refund"):
		return "Refund initiated - Processing time: 3-5 business days", nil
	default:
		return "Task executed: " + task.Description, nil
	}
}
