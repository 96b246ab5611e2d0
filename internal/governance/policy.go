// Package governance gates action tasks before they touch the live portal.
// Lookups are read-only and bypass it; anything that acts on a customer's
// account goes through policy evaluation first.
package governance

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rahul/sahaay/internal/conversation"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of an action task to be evaluated.
type Request struct {
	TaskID      string
	Description string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates action tasks against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedRegex []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyDescription(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	for _, re := range e.DeniedRegex {
		if re.MatchString(req.Description) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Task matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}

// GuardedAction wraps an action resolver with a policy check. A denied task
// fails like any other resolver error: the orchestrator marks it failed
// with the denial reason embedded in the result.
type GuardedAction struct {
	Policy PolicyEngine
	Next   ActionResolver
}

// ActionResolver mirrors the orchestrator's action contract so the guard
// can be dropped in front of any executor.
type ActionResolver interface {
	ExecuteTask(ctx context.Context, task *conversation.Task) (string, error)
}

func NewGuardedAction(policy PolicyEngine, next ActionResolver) *GuardedAction {
	return &GuardedAction{Policy: policy, Next: next}
}

func (g *GuardedAction) ExecuteTask(ctx context.Context, task *conversation.Task) (string, error) {
	res, err := g.Policy.Evaluate(ctx, Request{TaskID: task.ID, Description: task.Description})
	if err != nil {
		return "", fmt.Errorf("policy evaluation failed: %w", err)
	}
	if res.Effect == EffectDeny {
		return "", fmt.Errorf("action blocked by policy: %s", res.Reason)
	}
	return g.Next.ExecuteTask(ctx, task)
}
