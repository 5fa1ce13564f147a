package models

import "time"

// Phase is a state in the conversation's forward-only engagement
// state machine. Transitions never move backward.
type Phase string

const (
	PhaseInitialContact  Phase = "initial_contact"
	PhaseBuildingTrust   Phase = "building_trust"
	PhasePlayingDumb     Phase = "playing_dumb"
	PhaseExtractingIntel Phase = "extracting_intel"
	PhaseClosing         Phase = "closing"
)

// rank orders phases for the monotonicity invariant
func (p Phase) rank() int {
	switch p {
	case PhaseInitialContact:
		return 0
	case PhaseBuildingTrust:
		return 1
	case PhasePlayingDumb:
		return 2
	case PhaseExtractingIntel:
		return 3
	case PhaseClosing:
		return 4
	}
	return -1
}

// Before reports whether p precedes other in the state machine
func (p Phase) Before(other Phase) bool {
	return p.rank() < other.rank()
}

// PhaseEvidence is the per-turn evidence the transition function
// evaluates, computed after the turn's history and intelligence
// updates have been applied.
type PhaseEvidence struct {
	ScamDetected       bool
	TurnCount          int
	PaymentIdentifiers int
	PhoneNumbers       int
}

// NextPhase is the pure transition function. Evaluated once per turn;
// at most one step forward, never backward.
func NextPhase(p Phase, ev PhaseEvidence) Phase {
	switch p {
	case PhaseInitialContact:
		if ev.ScamDetected {
			return PhaseBuildingTrust
		}
	case PhaseBuildingTrust:
		if ev.TurnCount >= 4 {
			return PhasePlayingDumb
		}
	case PhasePlayingDumb:
		if ev.TurnCount >= 7 {
			return PhaseExtractingIntel
		}
	case PhaseExtractingIntel:
		switch {
		case ev.PaymentIdentifiers >= 2 && ev.PhoneNumbers >= 1 && ev.TurnCount >= 12:
			return PhaseClosing
		case ev.PaymentIdentifiers >= 2 && ev.TurnCount >= 14:
			return PhaseClosing
		case ev.PaymentIdentifiers >= 1 && ev.TurnCount >= 18:
			return PhaseClosing
		}
	}
	return p
}

// Persona is a fixed synthetic victim profile adopted for the
// lifetime of a session.
type Persona string

const (
	PersonaNone            Persona = ""
	PersonaRetired         Persona = "retired_professional"
	PersonaSmallBusiness   Persona = "small_business_owner"
	PersonaAnxiousEmployee Persona = "anxious_professional"
)

// Role identifies the speaker of a conversation turn
type Role string

const (
	RoleScammer Role = "scammer"
	RoleAgent   Role = "agent"
)

// ConversationTurn is a single utterance in the conversation history.
// History is append-only.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// EngagementMetrics holds per-session engagement counters
type EngagementMetrics struct {
	TurnCount     int   `json:"turn_count"`
	LastLatencyMS int64 `json:"last_latency_ms,omitempty"`
}

// Session is the aggregate root for one scammer conversation. It is
// mutated exclusively by the orchestrator's update step and never
// deleted by the core; lifecycle is the store's concern.
type Session struct {
	ID           string             `json:"session_id"`
	CreatedAt    time.Time          `json:"created_at"`
	LastUpdated  time.Time          `json:"last_updated"`
	Phase        Phase              `json:"phase"`
	Persona      Persona            `json:"persona,omitempty"`
	ScamDetected bool               `json:"scam_detected"`
	Detection    *DetectionResult   `json:"detection,omitempty"`
	History      []ConversationTurn `json:"history"`
	Intelligence Intelligence       `json:"intelligence"`
	Metrics      EngagementMetrics  `json:"metrics"`
}

// NewSession synthesizes the default session for an unseen id
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		CreatedAt:   now,
		LastUpdated: now,
		Phase:       PhaseInitialContact,
	}
}

// TurnCount is always derived from history, never stored independently
func (s *Session) TurnCount() int {
	return len(s.History)
}

// AppendTurn appends an utterance to the conversation history
func (s *Session) AppendTurn(role Role, text string, ts time.Time) {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	s.History = append(s.History, ConversationTurn{Role: role, Text: text, Timestamp: ts})
}

// Clone returns a deep copy, used to hand the session to background
// work without racing the next turn
func (s *Session) Clone() *Session {
	c := *s
	if s.Detection != nil {
		det := *s.Detection
		det.DetectedPatterns = append([]string(nil), s.Detection.DetectedPatterns...)
		c.Detection = &det
	}
	c.History = append([]ConversationTurn(nil), s.History...)
	c.Intelligence = Intelligence{
		UPIIDs:       append([]string(nil), s.Intelligence.UPIIDs...),
		BankAccounts: append([]BankAccount(nil), s.Intelligence.BankAccounts...),
		PhoneNumbers: append([]string(nil), s.Intelligence.PhoneNumbers...),
		URLs:         append([]string(nil), s.Intelligence.URLs...),
		Amounts:      append([]string(nil), s.Intelligence.Amounts...),
		Emails:       append([]string(nil), s.Intelligence.Emails...),
	}
	return &c
}

// LastTurns returns up to n most recent turns, oldest first
func (s *Session) LastTurns(n int) []ConversationTurn {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
