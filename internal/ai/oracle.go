package ai

import (
	"context"
	"fmt"
)

// Oracle adapts a Provider to the engagement engine's judge and
// content-generator roles. Both are single-turn: one user message in,
// one reply out.
type Oracle struct {
	provider Provider
}

func NewOracle(provider Provider) *Oracle {
	return &Oracle{provider: provider}
}

// Judge asks the model whether to engage and returns its raw reply.
// Interpretation of the reply is the caller's business.
func (o *Oracle) Judge(ctx context.Context, prompt string) (string, error) {
	reply, err := o.provider.Generate(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("judge: %w", err)
	}
	return reply, nil
}

// GenerateContent produces one proactive message from the given prompt.
func (o *Oracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reply, err := o.provider.Generate(ctx, []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("content: %w", err)
	}
	return reply, nil
}
