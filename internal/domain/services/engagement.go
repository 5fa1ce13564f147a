package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/infrastructure/sessionstore"
	"sentinel-lab/internal/streaming"
	"sentinel-lab/pkg/logger"
)

// IntelArchive is the optional durable archive for extracted
// entities. A nil archive disables archival.
type IntelArchive interface {
	SaveRecords(ctx context.Context, sessionID string, scamType models.ScamType, delta models.Intelligence) error
}

// Engine runs the per-turn engagement pipeline: load session, detect,
// extract and respond concurrently, apply the update step, then hand
// persistence and notification off to the background. Only a session
// store failure surfaces as an error; everything downstream degrades.
type Engine struct {
	detector     *Detector
	extractor    *Extractor
	orchestrator *Orchestrator
	sessions     sessionstore.Store
	events       *streaming.EventBus
	webhooks     *WebhookService
	archive      IntelArchive
	metrics      *MetricsCollector
	logger       *logger.Logger
}

// NewEngine wires the engagement pipeline. events, webhooks and
// archive may be nil.
func NewEngine(
	detector *Detector,
	extractor *Extractor,
	orchestrator *Orchestrator,
	sessions sessionstore.Store,
	events *streaming.EventBus,
	webhooks *WebhookService,
	archive IntelArchive,
	metrics *MetricsCollector,
	log *logger.Logger,
) *Engine {
	return &Engine{
		detector:     detector,
		extractor:    extractor,
		orchestrator: orchestrator,
		sessions:     sessions,
		events:       events,
		webhooks:     webhooks,
		archive:      archive,
		metrics:      metrics,
		logger:       log.WithComponent("engagement"),
	}
}

// HandleMessage processes one inbound scammer message and produces
// the agent's reply plus the turn's analysis.
func (e *Engine) HandleMessage(ctx context.Context, msg *models.MessageEvent) (*models.EngageResponse, error) {
	start := time.Now()

	session, err := e.sessions.Load(ctx, msg.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", msg.SessionID, err)
	}

	// Detection runs until the session is flagged; afterwards the
	// stored verdict is reused and the scammer stays engaged even if
	// later messages look benign.
	var det *models.DetectionResult
	newlyDetected := false
	if session.ScamDetected && session.Detection != nil {
		det = session.Detection
	} else {
		result := e.detector.Detect(ctx, msg.Text, session.History)
		det = &result
		if result.IsScam {
			session.ScamDetected = true
			session.Detection = det
			newlyDetected = true
		}
	}

	e.orchestrator.EnsurePersona(session, det)
	session.AppendTurn(models.RoleScammer, msg.Text, msg.Timestamp)

	prevPhase := session.Phase

	var (
		wg    sync.WaitGroup
		reply AgentReply
		delta models.Intelligence
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reply = e.orchestrator.Respond(ctx, session, det)
	}()
	go func() {
		defer wg.Done()
		delta = e.extractor.Extract(ctx, msg.Text)
	}()
	wg.Wait()

	if reply.Message == "" {
		reply = AgentReply{Message: e.orchestrator.FallbackReply(session.Phase), Tier: models.TierTemplate}
	}

	e.orchestrator.UpdateSession(session, delta, reply.Message, time.Since(start))

	e.metrics.RecordTurn(det, newlyDetected, &delta, reply.Tier, time.Since(start))

	go e.finishTurn(session.Clone(), det, newlyDetected, delta, prevPhase)

	return &models.EngageResponse{
		SessionID:          session.ID,
		IsScam:             det.IsScam,
		Confidence:         det.Confidence,
		ScamType:           det.ScamType,
		ExtractedEntities:  session.Intelligence,
		AgentMessage:       reply.Message,
		Phase:              session.Phase,
		Persona:            session.Persona,
		TurnCount:          session.TurnCount(),
		DetectedIndicators: det.DetectedPatterns,
		ThreatLevel:        models.ThreatLevelFor(det.Confidence),
		ResponseTier:       reply.Tier,
		LatencyMS:          time.Since(start).Milliseconds(),
	}, nil
}

// finishTurn persists and fans out after the response is already on
// its way back. Runs on a snapshot so the next turn cannot race it.
func (e *Engine) finishTurn(session *models.Session, det *models.DetectionResult, newlyDetected bool, delta models.Intelligence, prevPhase models.Phase) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.sessions.Save(ctx, session); err != nil {
		e.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to save session")
	}

	if newlyDetected {
		ev := streaming.NewEvent(streaming.EventScamDetected, session.ID)
		ev.ScamType = det.ScamType
		ev.Confidence = det.Confidence
		ev.ThreatLevel = models.ThreatLevelFor(det.Confidence)
		ev.Phase = session.Phase
		ev.Persona = session.Persona
		ev.TurnCount = session.TurnCount()
		e.publish(ctx, ev)
	}

	if !delta.IsEmpty() {
		ev := streaming.NewEvent(streaming.EventIntelExtracted, session.ID)
		ev.ScamType = det.ScamType
		ev.Phase = session.Phase
		ev.TurnCount = session.TurnCount()
		ev.EntityCounts = delta.Counts()
		e.publish(ctx, ev)

		if e.archive != nil {
			if err := e.archive.SaveRecords(ctx, session.ID, det.ScamType, delta); err != nil {
				e.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to archive intel")
			}
		}
	}

	if session.Phase != prevPhase {
		ev := streaming.NewEvent(streaming.EventPhaseAdvanced, session.ID)
		ev.Phase = session.Phase
		ev.Persona = session.Persona
		ev.TurnCount = session.TurnCount()
		ev.Metadata = map[string]interface{}{"previous_phase": string(prevPhase)}
		e.publish(ctx, ev)
	}
}

func (e *Engine) publish(ctx context.Context, ev *streaming.EngagementEvent) {
	if e.events != nil {
		if err := e.events.Publish(ctx, ev); err != nil {
			e.logger.Warn().Err(err).Str("type", string(ev.Type)).Msg("failed to publish event")
		}
	}
	if e.webhooks != nil {
		e.webhooks.Notify(ev)
	}
}

// Session exposes session lookup for the read-side API
func (e *Engine) Session(ctx context.Context, id string) (*models.Session, error) {
	return e.sessions.Load(ctx, id)
}

// Metrics exposes the collector for the stats endpoint
func (e *Engine) Metrics() *MetricsCollector {
	return e.metrics
}
