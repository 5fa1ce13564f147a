package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentinel-lab/pkg/logger"
)

// Generator produces in-persona utterances from a prepared prompt.
// The prompt itself is built by the orchestrator, which owns the
// persona and phase tables.
type Generator struct {
	llm     *LLMClient
	timeout time.Duration
	logger  *logger.Logger
}

// NewGenerator creates a new response generator
func NewGenerator(llm *LLMClient, timeout time.Duration, log *logger.Logger) *Generator {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Generator{
		llm:     llm,
		timeout: timeout,
		logger:  log.WithComponent("ai-generator"),
	}
}

// Generate returns the generated utterance for the prompt, under its
// own timeout independent of the caller's deadline.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.llm.Chat(ctx, "", []Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("generation produced empty output")
	}

	g.logger.Debug().Int("length", len(content)).Msg("response generated")
	return content, nil
}
