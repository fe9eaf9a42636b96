// Package orchestrator runs conversation turns.
//
// A turn loads the session's Progress, works on a clone, calls the agents
// and commits the clone only when every required gateway call succeeded.
// Turns on one session key are serialized; different keys run in parallel.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/janssja/happy2align/internal/agents"
	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/store"
	"github.com/janssja/happy2align/internal/templates"
)

var (
	// ErrGatewayFailed wraps a gateway failure that aborted a turn.
	ErrGatewayFailed = errors.New("completion gateway unavailable")
	// ErrEmptyMessage is returned for a blank user message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoWorkflow is returned when a workflow edit arrives before any
	// workflow exists.
	ErrNoWorkflow = agents.ErrNoWorkflow
)

// Reply is the outcome of one successful turn.
type Reply struct {
	SessionKey     string           `json:"session_key"`
	Text           string           `json:"text"`
	Route          dialogue.Route   `json:"route"`
	Phase          dialogue.Phase   `json:"phase"`
	Workflow       []string         `json:"workflow,omitempty"`
	Profile        dialogue.Profile `json:"profile"`
	Subtopic       string           `json:"subtopic,omitempty"`
	SubtopicIndex  int              `json:"subtopic_index"`
	QuestionIndex  int              `json:"question_index"`
	TotalSubtopics int              `json:"total_subtopics"`
}

// Status is a read-only snapshot of a session.
type Status struct {
	SessionKey       string           `json:"session_key"`
	Exists           bool             `json:"exists"`
	Phase            dialogue.Phase   `json:"phase"`
	Goal             string           `json:"goal,omitempty"`
	Subtopic         string           `json:"subtopic,omitempty"`
	SubtopicIndex    int              `json:"subtopic_index"`
	QuestionIndex    int              `json:"question_index"`
	TotalSubtopics   int              `json:"total_subtopics"`
	Answered         int              `json:"answered"`
	PlannedQuestions int              `json:"planned_questions"`
	Workflow         []string         `json:"workflow,omitempty"`
	Profile          dialogue.Profile `json:"profile"`
	Turns            int              `json:"turns"`
	UpdatedAt        string           `json:"updated_at,omitempty"`
}

// Orchestrator is the process-turn / status / reset surface.
type Orchestrator struct {
	store    store.Store
	agents   *agents.Set
	logger   *slog.Logger
	messages Messages
	locks    *keyedMutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLanguage selects the user-facing message catalog.
func WithLanguage(lang string) Option {
	return func(o *Orchestrator) { o.messages = MessagesFor(lang) }
}

// New creates an Orchestrator over st and gw.
func New(st store.Store, gw gateway.Completer, r templates.Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		logger:   slog.New(slog.DiscardHandler),
		messages: MessagesFor("en"),
		locks:    newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.agents = agents.NewSet(gw, r, o.logger)
	return o
}

// NewSessionKey returns a fresh, time-ordered session key.
func NewSessionKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Messages returns the active message catalog.
func (o *Orchestrator) Messages() Messages {
	return o.messages
}

// UserMessage maps an error from ProcessTurn to user-facing text.
func (o *Orchestrator) UserMessage(err error) string {
	return o.messages.UserMessage(err)
}

// ─── Turns ───────────────────────────────────────────────────────────────────

// ProcessTurn handles one user message for key. On error nothing is
// written to the store.
func (o *Orchestrator) ProcessTurn(ctx context.Context, key, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if strings.TrimSpace(key) == "" {
		return nil, store.ErrEmptyKey
	}

	unlock := o.locks.Lock(key)
	defer unlock()

	start := time.Now()
	stored, err := o.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if stored == nil {
		stored = dialogue.NewProgress()
	}

	work := stored.Clone()
	work.AppendTurn(dialogue.RoleUser, message)

	route := o.agents.Router.Route(ctx, message, work.HasWorkflow())
	work.Profile = o.agents.Profile.Estimate(ctx, work.Transcript, message)

	var text string
	switch {
	case route == dialogue.RouteWorkflow, work.Phase == dialogue.PhaseWorkflowReady:
		text, err = o.refineWorkflow(ctx, work, message)
	case work.Phase == dialogue.PhaseInitial:
		text, err = o.startCollecting(ctx, work, message)
	default:
		text, err = o.collectAnswer(ctx, work, message)
	}
	if err != nil {
		o.logger.Error("turn failed", "session", key, "route", route, "phase", stored.Phase, "error", err)
		return nil, err
	}

	work.AppendTurn(dialogue.RoleAssistant, text)
	work.Turns++
	if err := o.store.Put(ctx, key, work); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	o.logger.Info("turn processed",
		"session", key,
		"route", route,
		"phase", work.Phase,
		"sentiment", work.Profile.Sentiment,
		"expertise", work.Profile.Expertise,
		"duration", time.Since(start),
	)
	return o.reply(key, route, text, work), nil
}

// startCollecting treats message as the goal, decomposes it and asks the
// first question.
func (o *Orchestrator) startCollecting(ctx context.Context, work *dialogue.Progress, goal string) (string, error) {
	subtopics, err := o.agents.Decomposer.Decompose(ctx, goal)
	if err != nil {
		return "", gatewayFailure(err)
	}
	if err := dialogue.Start(work, goal, subtopics); err != nil {
		return "", err
	}
	return o.nextQuestion(ctx, work)
}

// collectAnswer records message as the answer to the pending question
// and either asks the next one or synthesizes the workflow.
func (o *Orchestrator) collectAnswer(ctx context.Context, work *dialogue.Progress, answer string) (string, error) {
	if err := dialogue.RecordAnswer(work, answer); err != nil {
		return "", err
	}
	if work.Phase != dialogue.PhaseExhausted {
		return o.nextQuestion(ctx, work)
	}

	steps, err := o.agents.Synth.Synthesize(ctx, work.Goal, work.Answers)
	if err != nil {
		return "", gatewayFailure(err)
	}
	if err := dialogue.CompleteWorkflow(work, steps); err != nil {
		return "", err
	}
	return o.messages.WorkflowReady + "\n\n" + dialogue.FormatNumbered(work.Workflow), nil
}

// refineWorkflow applies message to the existing workflow.
func (o *Orchestrator) refineWorkflow(ctx context.Context, work *dialogue.Progress, modification string) (string, error) {
	steps, err := o.agents.Refiner.Refine(ctx, work.Workflow, modification)
	if err != nil {
		if errors.Is(err, ErrNoWorkflow) {
			return "", err
		}
		return "", gatewayFailure(err)
	}
	if err := dialogue.ReplaceWorkflow(work, steps); err != nil {
		return "", err
	}
	return o.messages.WorkflowUpdated + "\n\n" + dialogue.FormatNumbered(work.Workflow), nil
}

// nextQuestion phrases the pending question for the user's profile.
func (o *Orchestrator) nextQuestion(ctx context.Context, work *dialogue.Progress) (string, error) {
	st, raw, err := work.CurrentQuestion()
	if err != nil {
		return "", err
	}
	return o.agents.Questions.Refine(ctx, st.Title, raw, work.Profile, work.Transcript), nil
}

func (o *Orchestrator) reply(key string, route dialogue.Route, text string, p *dialogue.Progress) *Reply {
	r := &Reply{
		SessionKey:     key,
		Text:           text,
		Route:          route,
		Phase:          p.Phase,
		Profile:        p.Profile,
		SubtopicIndex:  p.SubtopicIndex,
		QuestionIndex:  p.QuestionIndex,
		TotalSubtopics: len(p.Subtopics),
	}
	if p.HasWorkflow() {
		r.Workflow = append([]string(nil), p.Workflow...)
	}
	if p.Phase == dialogue.PhaseCollecting {
		r.Subtopic = p.Subtopics[p.SubtopicIndex].Title
	}
	return r
}

func gatewayFailure(err error) error {
	if gateway.IsFailure(err) {
		return fmt.Errorf("%w: %w", ErrGatewayFailed, err)
	}
	return err
}

// ─── Status / Reset ──────────────────────────────────────────────────────────

// Status reports the phase and progress counters of key. An unknown key
// reports an empty INITIAL session with Exists false.
func (o *Orchestrator) Status(ctx context.Context, key string) (*Status, error) {
	p, err := o.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if p == nil {
		return &Status{SessionKey: key, Phase: dialogue.PhaseInitial, Profile: dialogue.DefaultProfile()}, nil
	}

	s := &Status{
		SessionKey:       key,
		Exists:           true,
		Phase:            p.Phase,
		Goal:             p.Goal,
		SubtopicIndex:    p.SubtopicIndex,
		QuestionIndex:    p.QuestionIndex,
		TotalSubtopics:   len(p.Subtopics),
		Answered:         len(p.Answers),
		PlannedQuestions: p.PlannedQuestions(),
		Workflow:         p.Workflow,
		Profile:          p.Profile,
		Turns:            p.Turns,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.Phase == dialogue.PhaseCollecting {
		s.Subtopic = p.Subtopics[p.SubtopicIndex].Title
	}
	return s, nil
}

// Reset discards the session. Resetting an unknown key succeeds.
func (o *Orchestrator) Reset(ctx context.Context, key string) error {
	unlock := o.locks.Lock(key)
	defer unlock()

	if err := o.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}
	o.logger.Info("session reset", "session", key)
	return nil
}

// Sessions lists stored sessions.
func (o *Orchestrator) Sessions(ctx context.Context) ([]store.Summary, error) {
	return o.store.List(ctx)
}

// ─── Standalone analysis ─────────────────────────────────────────────────────

// Decompose runs the topic decomposer on goal outside any session.
// Nothing is stored.
func (o *Orchestrator) Decompose(ctx context.Context, goal string) ([]dialogue.Subtopic, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, ErrEmptyMessage
	}
	subtopics, err := o.agents.Decomposer.Decompose(ctx, goal)
	if err != nil {
		return nil, gatewayFailure(err)
	}
	return subtopics, nil
}

// EstimateProfile classifies the sentiment and expertise of text outside
// any session. Estimation never fails; only blank text is rejected.
func (o *Orchestrator) EstimateProfile(ctx context.Context, text string) (dialogue.Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dialogue.Profile{}, ErrEmptyMessage
	}
	transcript := []dialogue.Turn{{Role: dialogue.RoleUser, Content: text}}
	return o.agents.Profile.Estimate(ctx, transcript, text), nil
}
