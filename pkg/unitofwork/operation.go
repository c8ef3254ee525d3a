package unitofwork

import (
	"context"

	command "github.com/goliatone/go-command"
)

// Operation is a deferred piece of side-effecting work. Operations queued
// inside a scope run at commit time; any result beyond the error is captured
// by the closure itself.
type Operation func(ctx context.Context) error

// Command adapts a go-command handler and its message into an Operation so
// command executions can be queued inside a unit of work.
func Command[T any](handler command.Commander[T], msg T) Operation {
	return func(ctx context.Context) error {
		return handler.Execute(ctx, msg)
	}
}
