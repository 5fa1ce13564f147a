package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// AssistExtractor asks the LLM for structured entity extraction,
// supplementing the deterministic pattern pass.
type AssistExtractor struct {
	llm     *LLMClient
	timeout time.Duration
	logger  *logger.Logger
}

// NewAssistExtractor creates a new extraction assistant
func NewAssistExtractor(llm *LLMClient, timeout time.Duration, log *logger.Logger) *AssistExtractor {
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &AssistExtractor{
		llm:     llm,
		timeout: timeout,
		logger:  log.WithComponent("ai-extractor"),
	}
}

const extractorSystemPrompt = `Extract financial and contact information from the message.

Look for:
- UPI IDs (format: name@bank)
- Bank account numbers (9-18 digits)
- IFSC codes (format: ABCD0123456)
- Phone numbers (10 digits, may have +91 or 0 prefix)
- URLs (especially suspicious ones)
- Email addresses
- Amounts mentioned (with currency)
- Sender's name or alias

Respond ONLY with valid JSON (no markdown, no extra text):
{
  "upi_ids": ["list of UPI IDs"],
  "bank_accounts": [{"account_number": "...", "ifsc": "...", "bank_name": "..."}],
  "phone_numbers": ["list of phone numbers"],
  "urls": ["list of URLs"],
  "amounts": ["list of amounts"],
  "emails": ["list of emails"],
  "sender_identity": "name or alias"
}

If nothing found for a category, return an empty list. Be precise.`

// assistWire mirrors the JSON the model is instructed to emit
type assistWire struct {
	UPIIDs       []string `json:"upi_ids"`
	BankAccounts []struct {
		AccountNumber string `json:"account_number"`
		IFSC          string `json:"ifsc"`
		BankName      string `json:"bank_name"`
	} `json:"bank_accounts"`
	PhoneNumbers   []string `json:"phone_numbers"`
	URLs           []string `json:"urls"`
	Amounts        []string `json:"amounts"`
	Emails         []string `json:"emails"`
	SenderIdentity string   `json:"sender_identity"`
}

// Extract returns the assisted extraction for a message, under its
// own timeout independent of the caller's deadline.
func (e *AssistExtractor) Extract(ctx context.Context, text string) (*models.AssistExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.llm.Chat(ctx, extractorSystemPrompt, []Message{
		{Role: "user", Content: fmt.Sprintf("Message: %q", text)},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var wire assistWire
	if err := json.Unmarshal([]byte(extractJSON(content)), &wire); err != nil {
		return nil, fmt.Errorf("malformed extractor response: %w", err)
	}

	result := &models.AssistExtraction{
		Entities: models.Intelligence{
			UPIIDs:       wire.UPIIDs,
			PhoneNumbers: wire.PhoneNumbers,
			URLs:         wire.URLs,
			Amounts:      wire.Amounts,
			Emails:       wire.Emails,
		},
		SenderIdentity: wire.SenderIdentity,
	}
	for _, acc := range wire.BankAccounts {
		result.Entities.BankAccounts = append(result.Entities.BankAccounts, models.BankAccount{
			AccountNumber: acc.AccountNumber,
			IFSC:          acc.IFSC,
			BankName:      acc.BankName,
		})
	}

	e.logger.Debug().
		Int("upi_ids", len(result.Entities.UPIIDs)).
		Int("bank_accounts", len(result.Entities.BankAccounts)).
		Str("sender", result.SenderIdentity).
		Msg("assisted extraction complete")

	return result, nil
}
