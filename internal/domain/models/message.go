package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	maxSessionIDLen = 100
	maxMessageLen   = 5000
)

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	ErrEmptySessionID   = errors.New("session_id is required")
	ErrInvalidSessionID = errors.New("session_id must be alphanumeric with hyphens/underscores only")
	ErrEmptyMessage     = errors.New("message is required")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
)

// MessageEvent is one incoming message from a suspected scammer
type MessageEvent struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Validate checks the event and normalizes its text in place.
// Injection attempts are deliberately preserved: the pipeline detects
// and engages them rather than stripping them out.
func (m *MessageEvent) Validate() error {
	if m.SessionID == "" {
		return ErrEmptySessionID
	}
	if len(m.SessionID) > maxSessionIDLen || !sessionIDPattern.MatchString(m.SessionID) {
		return ErrInvalidSessionID
	}

	// Collapse all whitespace runs to single spaces
	m.Text = strings.Join(strings.Fields(m.Text), " ")
	if m.Text == "" {
		return ErrEmptyMessage
	}
	if len(m.Text) > maxMessageLen {
		return ErrMessageTooLong
	}

	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// ResponseTier identifies which tier produced the agent utterance
type ResponseTier string

const (
	TierTemplate  ResponseTier = "template"
	TierGenerated ResponseTier = "generated"
)

// EngageResponse is the ingress reply for one processed message
type EngageResponse struct {
	SessionID          string       `json:"session_id"`
	IsScam             bool         `json:"is_scam"`
	Confidence         float64      `json:"confidence"`
	ScamType           ScamType     `json:"scam_type"`
	ExtractedEntities  Intelligence `json:"extracted_entities"`
	AgentMessage       string       `json:"agent_message"`
	Phase              Phase        `json:"phase"`
	Persona            Persona      `json:"persona,omitempty"`
	TurnCount          int          `json:"turn_count"`
	DetectedIndicators []string     `json:"detected_indicators"`
	ThreatLevel        ThreatLevel  `json:"threat_level"`
	ResponseTier       ResponseTier `json:"response_tier"`
	LatencyMS          int64        `json:"latency_ms"`
}
