package agents

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// --- Test helpers ---

var renderer = templates.MustRenderer()

// fixed returns a gateway that always answers out.
func fixed(out string) gateway.Func {
	return func(context.Context, []gateway.Message) (string, error) { return out, nil }
}

// failing returns a gateway that always fails with err.
func failing(err error) gateway.Func {
	return func(context.Context, []gateway.Message) (string, error) { return "", err }
}

// capture records the last prompt and answers out.
func capture(prompt *string, out string) gateway.Func {
	return func(_ context.Context, msgs []gateway.Message) (string, error) {
		*prompt = msgs[len(msgs)-1].Content
		return out, nil
	}
}

var errTimeout = errors.Join(gateway.ErrTimeout, errors.New("deadline"))

// --- Router ---

func TestRouter_Route(t *testing.T) {
	tests := []struct {
		name        string
		gw          gateway.Completer
		hasWorkflow bool
		want        dialogue.Route
	}{
		{"requirement label", fixed("RequirementRefiner"), true, dialogue.RouteRequirements},
		{"workflow label", fixed("WorkflowRefiner"), false, dialogue.RouteWorkflow},
		{"gateway failure without workflow", failing(errTimeout), false, dialogue.RouteRequirements},
		{"gateway failure with workflow", failing(gateway.ErrProvider), true, dialogue.RouteWorkflow},
		{"invalid label with workflow", fixed("I think workflow"), true, dialogue.RouteWorkflow},
		{"invalid label without workflow", fixed("???"), false, dialogue.RouteRequirements},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRouter(tt.gw, renderer, nil).Route(context.Background(), "add a testing step", tt.hasWorkflow)
			if got != tt.want {
				t.Errorf("Route = %s, want %s", got, tt.want)
			}
		})
	}
}

// --- ProfileEstimator ---

func TestProfileEstimator_Estimate(t *testing.T) {
	gw := gateway.Func(func(_ context.Context, msgs []gateway.Message) (string, error) {
		if strings.Contains(msgs[0].Content, "sentiment") {
			return "Negative", nil
		}
		return "EXPERT", nil
	})
	got := NewProfileEstimator(gw, renderer, nil).Estimate(context.Background(), nil, "this is taking forever")
	want := dialogue.Profile{Sentiment: dialogue.SentimentNegative, Expertise: dialogue.ExpertiseExpert}
	if got != want {
		t.Errorf("Estimate = %+v, want %+v", got, want)
	}
}

func TestProfileEstimator_Defaults(t *testing.T) {
	tests := []struct {
		name string
		gw   gateway.Completer
	}{
		{"gateway failure", failing(errTimeout)},
		{"unknown labels", fixed("ECSTATIC")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewProfileEstimator(tt.gw, renderer, nil).Estimate(context.Background(), nil, "hi")
			if got != dialogue.DefaultProfile() {
				t.Errorf("Estimate = %+v, want defaults", got)
			}
		})
	}
}

func TestProfileEstimator_RunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	gw := gateway.Func(func(ctx context.Context, _ []gateway.Message) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		if n == 2 {
			close(release)
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return "NEUTRAL", nil
	})
	NewProfileEstimator(gw, renderer, nil).Estimate(context.Background(), nil, "hi")
	if peak != 2 {
		t.Errorf("peak concurrency = %d, want 2", peak)
	}
}

// --- Decomposer ---

func TestDecomposer_Parses(t *testing.T) {
	out := "- Subtopic 1: Users\n  - Q1: Who?\n  - Q2: How many?\n- Subtopic 2: Platform\n  - Q1: iOS or Android?"
	got, err := NewDecomposer(fixed(out), renderer, nil).Decompose(context.Background(), "I want a mobile app")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "Users" || len(got[0].Questions) != 2 {
		t.Errorf("Decompose = %+v", got)
	}
}

func TestDecomposer_FallbackOnGarbage(t *testing.T) {
	got, err := NewDecomposer(fixed("Sure, happy to help!"), renderer, nil).Decompose(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, dialogue.FallbackSubtopics()) {
		t.Errorf("Decompose = %+v, want fallback", got)
	}
	if len(got[0].Questions) != 5 {
		t.Errorf("fallback has %d questions", len(got[0].Questions))
	}
}

func TestDecomposer_GatewayFailure(t *testing.T) {
	_, err := NewDecomposer(failing(errTimeout), renderer, nil).Decompose(context.Background(), "x")
	if !errors.Is(err, gateway.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestDecomposer_PromptCarriesGoal(t *testing.T) {
	var prompt string
	_, _ = NewDecomposer(capture(&prompt, ""), renderer, nil).Decompose(context.Background(), "I want a mobile app")
	if !strings.Contains(prompt, "I want a mobile app") || !strings.Contains(prompt, "3 to 5") {
		t.Errorf("prompt = %q", prompt)
	}
}

// --- QuestionRefiner ---

func TestQuestionRefiner_Refine(t *testing.T) {
	var prompt string
	q := NewQuestionRefiner(capture(&prompt, "  Who exactly will open the app every day?  "), renderer, nil)
	profile := dialogue.Profile{Sentiment: dialogue.SentimentNegative, Expertise: dialogue.ExpertiseBeginner}

	got := q.Refine(context.Background(), "Users", "Who are the users?", profile, nil)
	if got != "Who exactly will open the app every day?" {
		t.Errorf("Refine = %q", got)
	}
	for _, want := range []string{ExpertiseDirective(dialogue.ExpertiseBeginner), SentimentDirective(dialogue.SentimentNegative)} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing directive %q", want)
		}
	}
}

func TestQuestionRefiner_FallsBackToRaw(t *testing.T) {
	for name, gw := range map[string]gateway.Completer{
		"gateway failure": failing(errTimeout),
		"empty output":    fixed("   "),
	} {
		t.Run(name, func(t *testing.T) {
			got := NewQuestionRefiner(gw, renderer, nil).Refine(context.Background(), "Users", "Who are the users?", dialogue.DefaultProfile(), nil)
			if got != "Who are the users?" {
				t.Errorf("Refine = %q, want raw question", got)
			}
		})
	}
}

func TestDirectives_CoverEveryValue(t *testing.T) {
	for _, e := range dialogue.Expertises {
		if ExpertiseDirective(e) == "" {
			t.Errorf("no directive for %s", e)
		}
	}
	for _, s := range dialogue.Sentiments {
		if SentimentDirective(s) == "" {
			t.Errorf("no directive for %s", s)
		}
	}
	if ExpertiseDirective("UNKNOWN") != ExpertiseDirective(dialogue.ExpertiseIntermediate) {
		t.Error("unknown expertise should use the intermediate directive")
	}
}

// --- Synthesizer ---

func TestSynthesizer_Synthesize(t *testing.T) {
	var prompt string
	s := NewSynthesizer(capture(&prompt, "1. Interview users\n2. Sketch screens\n3. Build MVP"), renderer, nil)
	answers := []dialogue.Answer{{Subtopic: "Users", Text: "Teenagers"}, {Subtopic: "Platform", Text: "iOS"}}

	got, err := s.Synthesize(context.Background(), "mobile app", answers)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"Interview users", "Sketch screens", "Build MVP"}) {
		t.Errorf("Synthesize = %q", got)
	}
	if !strings.Contains(prompt, "- Users: Teenagers") || !strings.Contains(prompt, "- Platform: iOS") {
		t.Errorf("prompt does not list answers as bullets: %q", prompt)
	}
}

func TestSynthesizer_FallbackOnGarbage(t *testing.T) {
	got, err := NewSynthesizer(fixed("I am not sure."), renderer, nil).Synthesize(context.Background(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, dialogue.FallbackWorkflow()) {
		t.Errorf("Synthesize = %q, want fallback", got)
	}
}

func TestSynthesizer_GatewayFailure(t *testing.T) {
	if _, err := NewSynthesizer(failing(gateway.ErrProvider), renderer, nil).Synthesize(context.Background(), "", nil); !errors.Is(err, gateway.ErrProvider) {
		t.Errorf("err = %v, want ErrProvider", err)
	}
}

// --- WorkflowRefiner ---

func TestWorkflowRefiner_Refine(t *testing.T) {
	var prompt string
	w := NewWorkflowRefiner(capture(&prompt, "1. Plan\n2. Build\n3. Test"), renderer, nil)
	got, err := w.Refine(context.Background(), []string{"Plan", "Build"}, "add a testing step")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"Plan", "Build", "Test"}) {
		t.Errorf("Refine = %q", got)
	}
	if !strings.Contains(prompt, "1. Plan\n2. Build") || !strings.Contains(prompt, "add a testing step") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestWorkflowRefiner_NoOpOnGarbage(t *testing.T) {
	orig := []string{"Plan", "Build"}
	got, err := NewWorkflowRefiner(fixed("Could you clarify?"), renderer, nil).Refine(context.Background(), orig, "make it better")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("Refine = %q, want original", got)
	}
}

func TestWorkflowRefiner_NoWorkflow(t *testing.T) {
	called := false
	gw := gateway.Func(func(context.Context, []gateway.Message) (string, error) {
		called = true
		return "1. x", nil
	})
	if _, err := NewWorkflowRefiner(gw, renderer, nil).Refine(context.Background(), nil, "add step"); !errors.Is(err, ErrNoWorkflow) {
		t.Errorf("err = %v, want ErrNoWorkflow", err)
	}
	if called {
		t.Error("gateway called without a workflow")
	}
}

// --- FormatConversation ---

func TestFormatConversation_KeepsEveryTurn(t *testing.T) {
	var transcript []dialogue.Turn
	for i := 0; i < 30; i++ {
		transcript = append(transcript, dialogue.Turn{Role: dialogue.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	lines := strings.Split(FormatConversation(transcript), "\n")
	if len(lines) != 30 {
		t.Fatalf("got %d lines, want 30", len(lines))
	}
	if lines[0] != "user: turn 0" || lines[29] != "user: turn 29" {
		t.Errorf("first/last = %q / %q", lines[0], lines[29])
	}
}

func TestQuestionRefiner_SeesGoalLateInSession(t *testing.T) {
	transcript := []dialogue.Turn{{Role: dialogue.RoleUser, Content: "GOAL: I want a mobile app"}}
	for i := 0; i < 8; i++ {
		transcript = append(transcript,
			dialogue.Turn{Role: dialogue.RoleAssistant, Content: fmt.Sprintf("question %d?", i)},
			dialogue.Turn{Role: dialogue.RoleUser, Content: fmt.Sprintf("answer %d", i)},
		)
	}

	var prompt string
	NewQuestionRefiner(capture(&prompt, "ok?"), renderer, nil).
		Refine(context.Background(), "Platform", "Offline support?", dialogue.DefaultProfile(), transcript)

	for _, want := range []string{"GOAL: I want a mobile app", "answer 0", "answer 7"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("question prompt missing %q", want)
		}
	}
}
