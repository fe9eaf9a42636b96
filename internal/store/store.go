// Package store persists session Progress by session key.
//
// Two implementations share the Store interface: MemoryStore for tests and
// single-process use, SQLiteStore for durable sessions. Both refuse to
// persist a Progress that fails validation or sits in the transient
// EXHAUSTED phase.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janssja/happy2align/internal/dialogue"
)

// ErrEmptyKey is returned for a blank session key.
var ErrEmptyKey = errors.New("store: session key is empty")

// Summary is a compact view of one stored session.
type Summary struct {
	Key       string         `json:"key"`
	Phase     dialogue.Phase `json:"phase"`
	Goal      string         `json:"goal,omitempty"`
	Turns     int            `json:"turns"`
	UpdatedAt string         `json:"updated_at"`
}

// Store defines session persistence. Abstracted for testability (DIP).
type Store interface {
	// Get returns the stored Progress, or nil and no error when key is unknown.
	Get(ctx context.Context, key string) (*dialogue.Progress, error)
	// Put replaces the Progress stored under key.
	Put(ctx context.Context, key string, p *dialogue.Progress) error
	// Delete removes key. Deleting an unknown key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	return nil
}

// checkPut validates a Progress before it is persisted.
func checkPut(key string, p *dialogue.Progress) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("store: nil progress for session %q", key)
	}
	return checkProgress(key, p)
}

// checkProgress rejects a Progress that may not rest in a store, both on
// the way in and on the way out.
func checkProgress(key string, p *dialogue.Progress) error {
	if p.Phase == dialogue.PhaseExhausted {
		return fmt.Errorf("store: session %q: %w: EXHAUSTED is not a resting phase", key, dialogue.ErrInvalidProgress)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("store: session %q: %w", key, err)
	}
	return nil
}

func summarize(key string, p *dialogue.Progress) Summary {
	return Summary{Key: key, Phase: p.Phase, Goal: p.Goal, Turns: p.Turns, UpdatedAt: p.UpdatedAt}
}
