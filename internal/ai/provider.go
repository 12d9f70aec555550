package ai

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// NewProvider picks a backend from the AI_PROVIDER setting.
// Engine examples:
//
//	pollinations
//	g4f:gpt-oss-120b
//	g4f:groq/qwen/qwen3-32b
func NewProvider(engine string) (Provider, error) {
	switch {
	case engine == "pollinations" || engine == "":
		return NewPollinationsProvider(), nil
	case engine == "g4f" || strings.HasPrefix(engine, "g4f:"):
		return NewG4FProvider(engine), nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s", engine)
	}
}
