// Package orchestrator routes a generated task to the resolver that can
// answer it and records the outcome in the conversation state.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rahul/sahaay/internal/conversation"
)

// UnknownTaskResult is returned, without dispatching, for any task whose
// type is not one of the defined resolvers.
const UnknownTaskResult = "Unknown task type"

// LookupResolver answers a knowledge query.
type LookupResolver interface {
	Search(ctx context.Context, query string) (string, error)
}

// ActionResolver carries out a task that requires doing something, not just
// looking something up. Possibly slow; any error means the task failed.
type ActionResolver interface {
	ExecuteTask(ctx context.Context, task *conversation.Task) (string, error)
}

// Orchestrator dispatches tasks. One resolver call per RouteTask, no
// retries; a retrying resolver can wrap itself if it wants them.
type Orchestrator struct {
	Lookup LookupResolver
	Action ActionResolver
	States *conversation.Manager
}

func New(lookup LookupResolver, action ActionResolver, states *conversation.Manager) *Orchestrator {
	return &Orchestrator{
		Lookup: lookup,
		Action: action,
		States: states,
	}
}

// RouteTask drives a task through processing to a terminal status. On
// resolver failure the task is marked failed with the error embedded in its
// result AND the error is returned, so the caller sees the failure both in
// the state and on its own call.
func (o *Orchestrator) RouteTask(ctx context.Context, task *conversation.Task) (string, error) {
	task.SetStatus(conversation.StatusProcessing, "")
	if err := o.States.UpdateTask(task); err != nil {
		return "", err
	}

	result, err := o.dispatch(ctx, task)
	if err != nil {
		task.SetStatus(conversation.StatusFailed, fmt.Sprintf("Error: %v", err))
		if uerr := o.States.UpdateTask(task); uerr != nil {
			return "", uerr
		}
		return "", err
	}

	task.SetStatus(conversation.StatusCompleted, result)
	if err := o.States.UpdateTask(task); err != nil {
		return "", err
	}
	return result, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, task *conversation.Task) (string, error) {
	switch task.Type {
	case conversation.TypeLookup:
		if o.Lookup == nil {
			return "", fmt.Errorf("no lookup resolver configured")
		}
		return o.Lookup.Search(ctx, task.Description)
	case conversation.TypeAction:
		if o.Action == nil {
			return "", fmt.Errorf("no action resolver configured")
		}
		return o.Action.ExecuteTask(ctx, task)
	default:
		return UnknownTaskResult, nil
	}
}
