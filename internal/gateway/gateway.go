// Package gateway is the single point through which the assistant reaches
// a language model. Callers see one narrow interface: messages in, text
// out, or an error that is either ErrTimeout or ErrProvider.
package gateway

import (
	"context"
	"errors"
)

var (
	// ErrTimeout is wrapped when a completion exceeded its deadline.
	ErrTimeout = errors.New("completion timed out")
	// ErrProvider is wrapped for every other provider failure.
	ErrProvider = errors.New("provider error")
)

// Role of a prompt message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one rendered prompt message.
type Message struct {
	Role    Role
	Content string
}

// Completer turns rendered messages into generated text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, messages []Message) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Prompt wraps a fully rendered prompt as a single user message.
func Prompt(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// IsFailure reports whether err came out of a gateway call.
func IsFailure(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProvider)
}
