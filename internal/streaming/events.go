package streaming

import (
	"time"

	"github.com/google/uuid"

	"sentinel-lab/internal/domain/models"
)

// EventType identifies the kind of engagement event
type EventType string

const (
	EventScamDetected   EventType = "scam_detected"
	EventIntelExtracted EventType = "intel_extracted"
	EventPhaseAdvanced  EventType = "phase_advanced"
)

// EngagementEvent is the wire form of everything noteworthy that
// happens during a turn. Published to NATS, fanned out to websocket
// subscribers and delivered to webhooks.
type EngagementEvent struct {
	ID           string                 `json:"id"`
	Type         EventType              `json:"type"`
	Timestamp    time.Time              `json:"timestamp"`
	SessionID    string                 `json:"session_id"`
	ScamType     models.ScamType        `json:"scam_type,omitempty"`
	Confidence   float64                `json:"confidence,omitempty"`
	ThreatLevel  models.ThreatLevel     `json:"threat_level,omitempty"`
	Phase        models.Phase           `json:"phase,omitempty"`
	Persona      models.Persona         `json:"persona,omitempty"`
	TurnCount    int                    `json:"turn_count,omitempty"`
	EntityCounts map[string]int         `json:"entity_counts,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent creates an event with a fresh id and timestamp
func NewEvent(eventType EventType, sessionID string) *EngagementEvent {
	return &EngagementEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}
