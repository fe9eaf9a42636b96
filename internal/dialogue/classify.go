package dialogue

import "strings"

// Classify maps raw classifier output onto one value of a closed set.
// Surrounding whitespace, quotes, backticks, markdown emphasis and a
// trailing period are ignored, and matching is case-insensitive. Aliases
// are keyed by their upper-case form. ok is false when nothing matches.
func Classify[T ~string](raw string, allowed []T, aliases map[string]T) (v T, ok bool) {
	key := normalizeLabel(raw)
	if key == "" {
		return v, false
	}
	for _, a := range allowed {
		if strings.ToUpper(string(a)) == key {
			return a, true
		}
	}
	if a, found := aliases[key]; found {
		return a, true
	}
	return v, false
}

func normalizeLabel(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'`*_ \t\r\n")
	s = strings.TrimSuffix(s, ".")
	s = strings.Trim(s, "\"'`*_ ")
	return strings.ToUpper(s)
}

var expertiseAliases = map[string]Expertise{
	"NOVICE":   ExpertiseBeginner,
	"ADVANCED": ExpertiseExpert,
}

var routeAliases = map[string]Route{
	"REQUIREMENTREFINER": RouteRequirements,
	"WORKFLOWREFINER":    RouteWorkflow,
}

// ParseSentiment classifies raw, falling back to NEUTRAL.
func ParseSentiment(raw string) (Sentiment, bool) {
	if s, ok := Classify(raw, Sentiments, nil); ok {
		return s, true
	}
	return SentimentNeutral, false
}

// ParseExpertise classifies raw, falling back to INTERMEDIATE.
func ParseExpertise(raw string) (Expertise, bool) {
	if e, ok := Classify(raw, Expertises, expertiseAliases); ok {
		return e, true
	}
	return ExpertiseIntermediate, false
}

// ParseRoute classifies router output. It accepts the router labels
// RequirementRefiner and WorkflowRefiner as well as the route names, and
// falls back to DefaultRoute.
func ParseRoute(raw string, hasWorkflow bool) (Route, bool) {
	if r, ok := Classify(raw, []Route{RouteRequirements, RouteWorkflow}, routeAliases); ok {
		return r, true
	}
	return DefaultRoute(hasWorkflow), false
}
