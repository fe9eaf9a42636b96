package dialogue

// FallbackSubtopicTitle names the single subtopic used when decomposition
// yields nothing usable.
const FallbackSubtopicTitle = "General Requirements"

// FallbackSubtopics returns the generic requirement tree.
func FallbackSubtopics() []Subtopic {
	return []Subtopic{{
		Title: FallbackSubtopicTitle,
		Questions: []string{
			"What is the main goal of your project?",
			"Who are the primary users?",
			"What are the key features you need?",
			"What is your timeline?",
			"What are your technical constraints?",
		},
	}}
}

// FallbackWorkflow returns the generic six-step workflow used when
// synthesis yields no parseable steps.
func FallbackWorkflow() []string {
	return []string{
		"Define project objectives and scope",
		"Identify stakeholders and gather requirements",
		"Design system architecture",
		"Implement core functionality",
		"Test and validate the solution",
		"Deploy and monitor the system",
	}
}
