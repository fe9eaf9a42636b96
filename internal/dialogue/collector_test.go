package dialogue

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	}
}

// --- Helpers ---

func tree(sizes ...int) []Subtopic {
	out := make([]Subtopic, len(sizes))
	for i, n := range sizes {
		out[i].Title = fmt.Sprintf("Topic %d", i+1)
		for q := 0; q < n; q++ {
			out[i].Questions = append(out[i].Questions, fmt.Sprintf("T%d question %d?", i+1, q+1))
		}
	}
	return out
}

func startedProgress(t *testing.T, sizes ...int) *Progress {
	t.Helper()
	p := NewProgress()
	if err := Start(p, "I want a mobile app", tree(sizes...)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return p
}

// --- Start ---

func TestStart_PositionsOnFirstQuestion(t *testing.T) {
	p := startedProgress(t, 3, 3)

	if p.Phase != PhaseCollecting {
		t.Errorf("Phase = %s, want COLLECTING", p.Phase)
	}
	if p.Goal != "I want a mobile app" {
		t.Errorf("Goal = %q", p.Goal)
	}
	if len(p.Answers) != 0 {
		t.Errorf("goal must not be recorded as an answer, got %d answers", len(p.Answers))
	}
	st, q, err := p.CurrentQuestion()
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	if st.Title != "Topic 1" || q != "T1 question 1?" {
		t.Errorf("current = (%q, %q)", st.Title, q)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestStart_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		subtopics []Subtopic
	}{
		{"empty tree", nil},
		{"subtopic without questions", []Subtopic{{Title: "Empty"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgress()
			err := Start(p, "goal", tt.subtopics)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
			if p.Phase != PhaseInitial {
				t.Errorf("phase changed to %s on failure", p.Phase)
			}
		})
	}
}

func TestStart_TwiceFails(t *testing.T) {
	p := startedProgress(t, 1)
	if err := Start(p, "again", tree(2)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Start err = %v, want ErrInvalidTransition", err)
	}
}

// --- RecordAnswer ---

func TestRecordAnswer_TwoByTwoExhaustsAfterFourAnswers(t *testing.T) {
	p := startedProgress(t, 2, 2)

	want := []struct{ si, qi int }{{0, 1}, {1, 0}, {1, 1}}
	for i, w := range want {
		if err := RecordAnswer(p, fmt.Sprintf("answer %d", i+1)); err != nil {
			t.Fatalf("RecordAnswer %d: %v", i+1, err)
		}
		if p.Phase != PhaseCollecting {
			t.Fatalf("after %d answers phase = %s", i+1, p.Phase)
		}
		if p.SubtopicIndex != w.si || p.QuestionIndex != w.qi {
			t.Errorf("after %d answers position = (%d,%d), want (%d,%d)", i+1, p.SubtopicIndex, p.QuestionIndex, w.si, w.qi)
		}
	}

	if err := RecordAnswer(p, "answer 4"); err != nil {
		t.Fatalf("RecordAnswer 4: %v", err)
	}
	if p.Phase != PhaseExhausted {
		t.Fatalf("Phase = %s, want EXHAUSTED", p.Phase)
	}
	if len(p.Answers) != 4 {
		t.Errorf("len(Answers) = %d, want 4", len(p.Answers))
	}
	if err := RecordAnswer(p, "extra"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RecordAnswer after exhaustion err = %v", err)
	}
}

func TestRecordAnswer_CapsQuestionsPerSubtopic(t *testing.T) {
	p := startedProgress(t, 8)

	asked := 0
	for p.Phase == PhaseCollecting {
		if p.QuestionIndex > 4 {
			t.Fatalf("question index %d exceeds cap", p.QuestionIndex)
		}
		if err := RecordAnswer(p, "ok"); err != nil {
			t.Fatalf("RecordAnswer: %v", err)
		}
		asked++
	}
	if asked != MaxQuestionsPerSubtopic {
		t.Errorf("asked %d questions, want %d", asked, MaxQuestionsPerSubtopic)
	}
	if got := p.PlannedQuestions(); got != MaxQuestionsPerSubtopic {
		t.Errorf("PlannedQuestions = %d, want %d", got, MaxQuestionsPerSubtopic)
	}
}

func TestRecordAnswer_RecordsQuestionContext(t *testing.T) {
	p := startedProgress(t, 1, 1)
	if err := RecordAnswer(p, "  Teenagers  "); err != nil {
		t.Fatal(err)
	}
	a := p.Answers[0]
	if a.Subtopic != "Topic 1" || a.Question != "T1 question 1?" || a.Text != "Teenagers" {
		t.Errorf("answer = %+v", a)
	}
	if a.SubtopicIndex != 0 || a.QuestionIndex != 0 {
		t.Errorf("answer position = (%d,%d)", a.SubtopicIndex, a.QuestionIndex)
	}
}

func TestRecordAnswer_InitialFails(t *testing.T) {
	p := NewProgress()
	if err := RecordAnswer(p, "x"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
	if len(p.Answers) != 0 {
		t.Error("answer recorded in INITIAL")
	}
}

// --- Workflow transitions ---

func TestCompleteWorkflow(t *testing.T) {
	p := startedProgress(t, 1)
	if err := CompleteWorkflow(p, []string{"a"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CompleteWorkflow while collecting err = %v", err)
	}

	if err := RecordAnswer(p, "done"); err != nil {
		t.Fatal(err)
	}
	if err := CompleteWorkflow(p, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CompleteWorkflow(nil) err = %v", err)
	}
	if err := CompleteWorkflow(p, []string{"Plan", "Build"}); err != nil {
		t.Fatalf("CompleteWorkflow: %v", err)
	}
	if p.Phase != PhaseWorkflowReady || len(p.Workflow) != 2 {
		t.Errorf("phase=%s workflow=%v", p.Phase, p.Workflow)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReplaceWorkflow(t *testing.T) {
	p := startedProgress(t, 1)
	if err := ReplaceWorkflow(p, []string{"x"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ReplaceWorkflow before ready err = %v", err)
	}
	_ = RecordAnswer(p, "done")
	_ = CompleteWorkflow(p, []string{"Plan", "Build"})

	steps := []string{"Plan", "Prototype", "Build"}
	if err := ReplaceWorkflow(p, steps); err != nil {
		t.Fatalf("ReplaceWorkflow: %v", err)
	}
	steps[0] = "mutated"
	if p.Workflow[0] != "Plan" {
		t.Error("workflow aliases caller slice")
	}
	if err := ReplaceWorkflow(p, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ReplaceWorkflow(nil) err = %v", err)
	}
	if len(p.Workflow) != 3 {
		t.Errorf("workflow changed on failed replace: %v", p.Workflow)
	}
}

// --- Progress ---

func TestClone_IsIndependent(t *testing.T) {
	p := startedProgress(t, 2)
	p.AppendTurn(RoleUser, "hello")

	c := p.Clone()
	_ = RecordAnswer(c, "answer")
	c.AppendTurn(RoleAssistant, "next")

	if len(p.Answers) != 0 || len(p.Transcript) != 1 || p.QuestionIndex != 0 {
		t.Errorf("original mutated through clone: answers=%d transcript=%d qi=%d",
			len(p.Answers), len(p.Transcript), p.QuestionIndex)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Progress)
		wantErr bool
	}{
		{"fresh", func(p *Progress) {}, false},
		{"unknown phase", func(p *Progress) { p.Phase = "DONE" }, true},
		{"initial with tree", func(p *Progress) { p.Subtopics = tree(1) }, true},
		{"collecting index out of range", func(p *Progress) {
			p.Phase = PhaseCollecting
			p.Subtopics = tree(2)
			p.SubtopicIndex = 1
		}, true},
		{"collecting question beyond cap", func(p *Progress) {
			p.Phase = PhaseCollecting
			p.Subtopics = tree(8)
			p.QuestionIndex = 5
		}, true},
		{"ready without workflow", func(p *Progress) {
			p.Phase = PhaseWorkflowReady
			p.Subtopics = tree(1)
		}, true},
		{"workflow while collecting", func(p *Progress) {
			p.Phase = PhaseCollecting
			p.Subtopics = tree(1)
			p.Workflow = []string{"x"}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProgress()
			tt.mutate(p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProgress) {
				t.Errorf("err = %v, want ErrInvalidProgress", err)
			}
		})
	}
}

func TestNewProgress_Defaults(t *testing.T) {
	p := NewProgress()
	if p.Phase != PhaseInitial {
		t.Errorf("Phase = %s", p.Phase)
	}
	if p.Profile != DefaultProfile() {
		t.Errorf("Profile = %+v", p.Profile)
	}
	if p.CreatedAt != "2026-03-02T09:30:00Z" {
		t.Errorf("CreatedAt = %q", p.CreatedAt)
	}
}
