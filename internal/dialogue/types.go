// Package dialogue holds the domain model of a requirements conversation.
//
// It is pure: no I/O, no gateway calls. The agents package produces text,
// this package turns that text into typed values and moves a session's
// Progress through its phases.
//
// - SRP: types, progress, collector, parsers and classifier in separate files
// - Progress is a value the orchestrator copies, mutates and commits whole
package dialogue

import (
	"fmt"
	"strings"
)

// --- Role enum ---

// Role identifies who authored a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session transcript. Turns are append-only.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// --- Phase enum ---

// Phase is the collector state of a session.
type Phase string

const (
	PhaseInitial       Phase = "INITIAL"
	PhaseCollecting    Phase = "COLLECTING"
	PhaseExhausted     Phase = "EXHAUSTED"
	PhaseWorkflowReady Phase = "WORKFLOW_READY"
)

var validPhases = map[Phase]bool{
	PhaseInitial:       true,
	PhaseCollecting:    true,
	PhaseExhausted:     true,
	PhaseWorkflowReady: true,
}

// ValidatePhase returns an error if the phase is not recognized.
func ValidatePhase(p Phase) error {
	if !validPhases[p] {
		return fmt.Errorf("invalid phase %q: must be one of: INITIAL, COLLECTING, EXHAUSTED, WORKFLOW_READY", p)
	}
	return nil
}

// --- Route enum ---

// Route is the handler a turn is dispatched to.
type Route string

const (
	RouteRequirements Route = "REQUIREMENTS"
	RouteWorkflow     Route = "WORKFLOW"
)

// DefaultRoute is the route used whenever classification is unusable.
func DefaultRoute(hasWorkflow bool) Route {
	if hasWorkflow {
		return RouteWorkflow
	}
	return RouteRequirements
}

// --- Sentiment enum ---

// Sentiment is the estimated emotional tone of the user.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentMixed    Sentiment = "MIXED"
)

// Sentiments lists the allowed sentiment values in prompt order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed}

// --- Expertise enum ---

// Expertise is the estimated technical level of the user.
type Expertise string

const (
	ExpertiseBeginner     Expertise = "BEGINNER"
	ExpertiseIntermediate Expertise = "INTERMEDIATE"
	ExpertiseExpert       Expertise = "EXPERT"
)

// Expertises lists the allowed expertise values in prompt order.
var Expertises = []Expertise{ExpertiseBeginner, ExpertiseIntermediate, ExpertiseExpert}

// Profile is the per-turn estimate of the user.
type Profile struct {
	Sentiment Sentiment `json:"sentiment"`
	Expertise Expertise `json:"expertise"`
}

// DefaultProfile is used before any estimate exists.
func DefaultProfile() Profile {
	return Profile{Sentiment: SentimentNeutral, Expertise: ExpertiseIntermediate}
}

// --- Requirement tree ---

// Subtopic is a named aspect of the user's goal with its clarifying questions.
// Subtopics are created once per session and never edited.
type Subtopic struct {
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
}

// Answer records the user's reply to one question.
type Answer struct {
	SubtopicIndex int    `json:"subtopic_index"`
	QuestionIndex int    `json:"question_index"`
	Subtopic      string `json:"subtopic"`
	Question      string `json:"question"`
	Text          string `json:"text"`
}

// FormatNumbered renders workflow steps as "1. step" lines.
func FormatNumbered(steps []string) string {
	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, s)
	}
	return b.String()
}
