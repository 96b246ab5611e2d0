package governance

import (
	"context"
	"strings"
	"testing"

	"github.com/rahul/sahaay/internal/conversation"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Test Allow (Default)
	req1 := Request{Description: "Look up order status for ORDER-12345"}
	res1, err := engine.Evaluate(ctx, req1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res1.Effect != EffectAllow {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Test Deny
	if err := engine.DenyDescription(`delete\s+account`); err != nil {
		t.Fatal(err)
	}
	req2 := Request{Description: "Please delete account for this customer"}
	res2, err := engine.Evaluate(ctx, req2)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}
}

type stubAction struct {
	called bool
}

func (s *stubAction) ExecuteTask(ctx context.Context, task *conversation.Task) (string, error) {
	s.called = true
	return "done", nil
}

func TestGuardedAction_DeniedTaskNeverReachesExecutor(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	if err := engine.DenyDescription(`(?i)wire\s+transfer`); err != nil {
		t.Fatal(err)
	}

	next := &stubAction{}
	guard := NewGuardedAction(engine, next)

	task := conversation.NewTask("Initiate wire transfer to customer", conversation.TypeAction, nil)
	_, err := guard.ExecuteTask(context.Background(), task)
	if err == nil {
		t.Fatal("expected denial error")
	}
	if !strings.Contains(err.Error(), "blocked by policy") {
		t.Errorf("unexpected error: %v", err)
	}
	if next.called {
		t.Error("executor should not run for a denied task")
	}
}

func TestGuardedAction_AllowedTaskPassesThrough(t *testing.T) {
	next := &stubAction{}
	guard := NewGuardedAction(NewDefaultPolicyEngine(), next)

	task := conversation.NewTask("Update shipping address", conversation.TypeAction, nil)
	result, err := guard.ExecuteTask(context.Background(), task)
	if err != nil {
		t.Fatalf("ExecuteTask failed: %v", err)
	}
	if result != "done" {
		t.Errorf("expected pass-through result, got %q", result)
	}
	if !next.called {
		t.Error("executor should run for an allowed task")
	}
}
