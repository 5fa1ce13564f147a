package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// Classifier asks the LLM for a scam verdict on a single message,
// with recent conversation turns as context.
type Classifier struct {
	llm     *LLMClient
	timeout time.Duration
	logger  *logger.Logger
}

// NewClassifier creates a new classifier backed by the given client
func NewClassifier(llm *LLMClient, timeout time.Duration, log *logger.Logger) *Classifier {
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &Classifier{
		llm:     llm,
		timeout: timeout,
		logger:  log.WithComponent("ai-classifier"),
	}
}

const classifierSystemPrompt = `You are a scam detection specialist. Analyze the message and determine if it is a scam attempt.

Consider:
1. Impersonation (bank, government, courier, lottery, romantic interest)
2. Urgency tactics ("immediately", "within 24 hours", "account will be blocked")
3. Requests for sensitive information (OTP, password, bank details)
4. Suspicious links or payment requests
5. Unusual grammar or spelling for official communication
6. Romance or investment schemes (pig butchering)

Respond ONLY with valid JSON:
{
  "is_scam": true or false,
  "scam_type": "bank_impersonation" or "lottery" or "courier" or "tax_refund" or "investment" or "romance" or "other",
  "confidence": 0.0 to 1.0,
  "reasoning": "brief explanation"
}`

// Classify returns the external verdict for a message. The call runs
// under its own timeout, independent of the caller's deadline.
func (c *Classifier) Classify(ctx context.Context, text string, history []models.ConversationTurn) (*models.ClassifierVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var prompt strings.Builder
	prompt.WriteString("Message: \"")
	prompt.WriteString(text)
	prompt.WriteString("\"\n\nConversation context:\n")
	if len(history) == 0 {
		prompt.WriteString("No prior context")
	} else {
		for _, turn := range history {
			fmt.Fprintf(&prompt, "%s: %s\n", turn.Role, turn.Text)
		}
	}

	content, err := c.llm.Chat(ctx, classifierSystemPrompt, []Message{
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	var verdict models.ClassifierVerdict
	if err := json.Unmarshal([]byte(extractJSON(content)), &verdict); err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}

	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}
	if verdict.ScamType == "" {
		verdict.ScamType = models.ScamTypeUnknown
	}

	c.logger.Debug().
		Bool("is_scam", verdict.IsScam).
		Float64("confidence", verdict.Confidence).
		Str("scam_type", string(verdict.ScamType)).
		Msg("classification verdict")

	return &verdict, nil
}
