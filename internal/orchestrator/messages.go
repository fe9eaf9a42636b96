package orchestrator

import "errors"

// Messages is the user-facing text of one language.
type Messages struct {
	GatewayFailed   string
	NoWorkflow      string
	EmptyMessage    string
	Internal        string
	WorkflowReady   string
	WorkflowUpdated string
}

var catalog = map[string]Messages{
	"en": {
		GatewayFailed:   "Sorry, I could not process your message right now. Please try again in a moment.",
		NoWorkflow:      "There is no workflow yet. Let's first finish clarifying your requirements.",
		EmptyMessage:    "Please type a message.",
		Internal:        "Something went wrong while processing your message.",
		WorkflowReady:   "Thanks! Here is the workflow based on your answers:",
		WorkflowUpdated: "Here is the updated workflow:",
	},
	"nl": {
		GatewayFailed:   "Sorry, ik kon je bericht nu niet verwerken. Probeer het zo opnieuw.",
		NoWorkflow:      "Er is nog geen workflow. Laten we eerst je requirements verder verduidelijken.",
		EmptyMessage:    "Typ alsjeblieft een bericht.",
		Internal:        "Er ging iets mis bij het verwerken van je bericht.",
		WorkflowReady:   "Bedankt! Hier is de workflow op basis van je antwoorden:",
		WorkflowUpdated: "Hier is de bijgewerkte workflow:",
	},
}

// Languages lists the supported message catalogs.
func Languages() []string {
	return []string{"en", "nl"}
}

// MessagesFor returns the catalog for lang, English when unknown.
func MessagesFor(lang string) Messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog["en"]
}

// UserMessage maps a ProcessTurn error to text that can be shown to the user.
func (m Messages) UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGatewayFailed):
		return m.GatewayFailed
	case errors.Is(err, ErrNoWorkflow):
		return m.NoWorkflow
	case errors.Is(err, ErrEmptyMessage):
		return m.EmptyMessage
	default:
		return m.Internal
	}
}
