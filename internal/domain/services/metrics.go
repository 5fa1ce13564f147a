package services

import (
	"sync"
	"time"

	"sentinel-lab/internal/domain/models"
)

// MetricsSnapshot is a point-in-time copy of the aggregate counters,
// served by the stats endpoint.
type MetricsSnapshot struct {
	TotalMessages     int64            `json:"total_messages"`
	ScamsDetected     int64            `json:"scams_detected"`
	ScamsByType       map[string]int64 `json:"scams_by_type"`
	EntitiesExtracted map[string]int64 `json:"entities_extracted"`
	TemplateReplies   int64            `json:"template_replies"`
	GeneratedReplies  int64            `json:"generated_replies"`
	AvgLatencyMS      int64            `json:"avg_latency_ms"`
	StartedAt         time.Time        `json:"started_at"`
	UptimeSeconds     int64            `json:"uptime_seconds"`
}

// MetricsCollector accumulates engagement counters across all
// sessions. Safe for concurrent use.
type MetricsCollector struct {
	mu                sync.Mutex
	totalMessages     int64
	scamsDetected     int64
	scamsByType       map[string]int64
	entitiesExtracted map[string]int64
	templateReplies   int64
	generatedReplies  int64
	totalLatencyMS    int64
	startedAt         time.Time
}

// NewMetricsCollector creates a collector anchored at now
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		scamsByType:       make(map[string]int64),
		entitiesExtracted: make(map[string]int64),
		startedAt:         time.Now().UTC(),
	}
}

// RecordTurn folds one completed turn into the counters
func (m *MetricsCollector) RecordTurn(det *models.DetectionResult, newlyDetected bool, delta *models.Intelligence, tier models.ResponseTier, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalMessages++
	m.totalLatencyMS += latency.Milliseconds()

	if newlyDetected && det != nil && det.IsScam {
		m.scamsDetected++
		m.scamsByType[string(det.ScamType)]++
	}

	if delta != nil {
		for kind, n := range delta.Counts() {
			if n > 0 {
				m.entitiesExtracted[kind] += int64(n)
			}
		}
	}

	switch tier {
	case models.TierGenerated:
		m.generatedReplies++
	default:
		m.templateReplies++
	}
}

// Snapshot returns a copy of the current counters
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType := make(map[string]int64, len(m.scamsByType))
	for k, v := range m.scamsByType {
		byType[k] = v
	}
	entities := make(map[string]int64, len(m.entitiesExtracted))
	for k, v := range m.entitiesExtracted {
		entities[k] = v
	}

	var avg int64
	if m.totalMessages > 0 {
		avg = m.totalLatencyMS / m.totalMessages
	}

	now := time.Now().UTC()
	return MetricsSnapshot{
		TotalMessages:     m.totalMessages,
		ScamsDetected:     m.scamsDetected,
		ScamsByType:       byType,
		EntitiesExtracted: entities,
		TemplateReplies:   m.templateReplies,
		GeneratedReplies:  m.generatedReplies,
		AvgLatencyMS:      avg,
		StartedAt:         m.startedAt,
		UptimeSeconds:     int64(now.Sub(m.startedAt).Seconds()),
	}
}
