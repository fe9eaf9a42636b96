package dialogue

import (
	"bufio"
	"regexp"
	"strings"
	"unicode"
)

// --- Tolerant line parsers for generated text ---
//
// Gateway output is free text. The parsers scan it line by line, keep
// what matches the expected layout and silently skip the rest. Callers
// decide what an empty result means.

var (
	// "- Subtopic 1: Title", "Subtopic 2. Title", "**Subtopic 3:** Title"
	subtopicLine = regexp.MustCompile(`(?i)^(?:[-*•]\s*)?(?:\*\*)?subtopic\s*\d*\s*[:.)-]\s*(.+)$`)
	// "- Q1: text", "Q2) text", "q: text", "- Question 1: text", "Q3 - text".
	// The marker must be followed by digits or a separator so words like
	// "Quality" never match.
	questionLine = regexp.MustCompile(`(?i)^(?:[-*•]\s*)?(?:\*\*)?q(?:uestion)?\s*\d*\s*(?:\*\*)?\s*[:.)-]\s*(.*)$`)
	// "1. text", "2) text" under a subtopic.
	numberedQuestion = regexp.MustCompile(`^\d+\s*[.)]\s*(.+)$`)
	// "1. ", "12) ", "3: "
	stepNumber = regexp.MustCompile(`^\d+\s*[.):]\s*`)
	stepBullet = regexp.MustCompile(`^-\s*`)
)

// ParseSubtopics extracts the requirement tree from decomposer output.
// A subtopic line closes the previous subtopic; question lines before
// the first subtopic and subtopics that end up without questions are
// dropped.
func ParseSubtopics(text string) []Subtopic {
	var (
		out     []Subtopic
		current *Subtopic
	)
	flush := func() {
		if current != nil && len(current.Questions) > 0 {
			out = append(out, *current)
		}
		current = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := subtopicLine.FindStringSubmatch(line); m != nil {
			title := cleanMarkup(m[1])
			if title == "" {
				continue
			}
			flush()
			current = &Subtopic{Title: title}
			continue
		}
		if current == nil {
			continue
		}
		m := questionLine.FindStringSubmatch(line)
		if m == nil {
			m = numberedQuestion.FindStringSubmatch(line)
		}
		if m != nil {
			if q := cleanMarkup(m[1]); q != "" {
				current.Questions = append(current.Questions, q)
			}
		}
	}
	flush()
	return out
}

// ParseSteps extracts workflow steps: every line that starts with a digit
// or a dash, with its numbering or bullet stripped. Lines without any
// letter or digit left, such as markdown rules, are skipped.
func ParseSteps(text string) []string {
	var steps []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		first := rune(line[0])
		if !unicode.IsDigit(first) && first != '-' {
			continue
		}
		step := stepNumber.ReplaceAllString(line, "")
		step = stepBullet.ReplaceAllString(step, "")
		if step = cleanMarkup(step); hasWord(step) {
			steps = append(steps, step)
		}
	}
	return steps
}

func hasWord(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// cleanMarkup trims whitespace and stray markdown emphasis.
func cleanMarkup(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}
