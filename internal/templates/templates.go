// Package templates renders the prompts sent to the completion gateway.
//
// Prompts are text/template files embedded into the binary, so the
// wording can be reviewed and edited without touching agent code.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/janssja/happy2align/internal/dialogue"
)

//go:embed prompts/*.md.tmpl
var promptFS embed.FS

// Template names.
const (
	Router         = "router.md.tmpl"
	Decompose      = "decompose.md.tmpl"
	Question       = "question.md.tmpl"
	Expertise      = "expertise.md.tmpl"
	Sentiment      = "sentiment.md.tmpl"
	Synthesize     = "synthesize.md.tmpl"
	RefineWorkflow = "refine_workflow.md.tmpl"
)

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// EmbedRenderer renders the embedded prompt templates.
type EmbedRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses all embedded templates.
func NewRenderer() (*EmbedRenderer, error) {
	funcs := template.FuncMap{
		"join":     strings.Join,
		"numbered": dialogue.FormatNumbered,
	}
	tmpl, err := template.New("prompts").Funcs(funcs).ParseFS(promptFS, "prompts/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing prompt templates: %w", err)
	}
	return &EmbedRenderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer for package-level initialization. The
// templates are compiled in, so a failure is a build defect.
func MustRenderer() *EmbedRenderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// --- Template data ---

// RouterData fills router.md.tmpl.
type RouterData struct {
	Message     string
	HasWorkflow bool
}

// DecomposeData fills decompose.md.tmpl.
type DecomposeData struct {
	Goal         string
	Subtopics    int
	MinQuestions int
	MaxQuestions int
}

// QuestionData fills question.md.tmpl.
type QuestionData struct {
	Subtopic           string
	Question           string
	ExpertiseDirective string
	SentimentDirective string
	Conversation       string
}

// ExpertiseData fills expertise.md.tmpl.
type ExpertiseData struct {
	Labels       []string
	Conversation string
}

// SentimentData fills sentiment.md.tmpl.
type SentimentData struct {
	Labels       []string
	Conversation string
	Latest       string
}

// SynthesizeData fills synthesize.md.tmpl.
type SynthesizeData struct {
	Goal    string
	Answers []dialogue.Answer
}

// RefineWorkflowData fills refine_workflow.md.tmpl.
type RefineWorkflowData struct {
	Workflow     []string
	Modification string
}
