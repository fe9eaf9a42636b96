package agents

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// ProfileEstimator estimates the user's sentiment and expertise. Both
// signals are advisory and always have a value.
type ProfileEstimator struct {
	base
}

// NewProfileEstimator creates a ProfileEstimator.
func NewProfileEstimator(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *ProfileEstimator {
	return &ProfileEstimator{base: newBase(gw, r, logger)}
}

// Estimate runs both classifiers concurrently.
func (p *ProfileEstimator) Estimate(ctx context.Context, transcript []dialogue.Turn, latest string) dialogue.Profile {
	var prof dialogue.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prof.Sentiment = p.Sentiment(gctx, transcript, latest)
		return nil
	})
	g.Go(func() error {
		prof.Expertise = p.Expertise(gctx, transcript)
		return nil
	})
	_ = g.Wait() // both goroutines are total
	return prof
}

// Sentiment classifies the tone of the conversation, NEUTRAL on failure.
func (p *ProfileEstimator) Sentiment(ctx context.Context, transcript []dialogue.Turn, latest string) dialogue.Sentiment {
	out, err := p.complete(ctx, templates.Sentiment, templates.SentimentData{
		Labels:       labels(dialogue.Sentiments),
		Conversation: FormatConversation(transcript),
		Latest:       latest,
	})
	if err != nil {
		p.logger.Warn("sentiment estimate unavailable", "error", err)
		return dialogue.SentimentNeutral
	}
	s, ok := dialogue.ParseSentiment(out)
	if !ok {
		p.logger.Warn("sentiment estimate unrecognized", "output", out)
	}
	return s
}

// Expertise classifies the user's technical level, INTERMEDIATE on failure.
func (p *ProfileEstimator) Expertise(ctx context.Context, transcript []dialogue.Turn) dialogue.Expertise {
	out, err := p.complete(ctx, templates.Expertise, templates.ExpertiseData{
		Labels:       labels(dialogue.Expertises),
		Conversation: FormatConversation(transcript),
	})
	if err != nil {
		p.logger.Warn("expertise estimate unavailable", "error", err)
		return dialogue.ExpertiseIntermediate
	}
	e, ok := dialogue.ParseExpertise(out)
	if !ok {
		p.logger.Warn("expertise estimate unrecognized", "output", out)
	}
	return e
}
