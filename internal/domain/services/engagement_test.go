package services_test

import (
	"context"
	"testing"
	"time"

	"sentinel-lab/internal/config"
	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/internal/infrastructure/sessionstore"
	"sentinel-lab/pkg/logger"
)

func newEngine(t *testing.T, store sessionstore.Store) *services.Engine {
	t.Helper()
	log := logger.NewDefault()
	detector := services.NewDetector(nil, config.DefaultDetection(), log)
	extractor := services.NewExtractor(nil, log)
	orchestrator := services.NewOrchestrator(nil, fixedSelector{}, log)
	return services.NewEngine(detector, extractor, orchestrator, store, nil, nil, nil, services.NewMetricsCollector(), log)
}

func engage(t *testing.T, e *services.Engine, sessionID, text string) *models.EngageResponse {
	t.Helper()
	resp, err := e.HandleMessage(context.Background(), &models.MessageEvent{
		SessionID: sessionID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	return resp
}

func TestEngineDetectsAndEngages(t *testing.T) {
	e := newEngine(t, sessionstore.NewMemoryStore())

	resp := engage(t, e, "sess_engage_1", "Your SBI account blocked! Complete KYC verification immediately and share your OTP")

	if !resp.IsScam {
		t.Fatal("expected scam verdict")
	}
	if resp.ScamType != models.ScamTypeBankImpersonation {
		t.Errorf("scam type = %q", resp.ScamType)
	}
	if resp.Persona != models.PersonaAnxiousEmployee {
		t.Errorf("persona = %q, want anxious professional", resp.Persona)
	}
	if resp.TurnCount != 2 {
		t.Errorf("turn count = %d, want scammer turn plus agent turn", resp.TurnCount)
	}
	if resp.AgentMessage == "" {
		t.Error("agent reply is empty")
	}
	if resp.ThreatLevel == "" {
		t.Error("threat level not set")
	}
	if resp.ResponseTier != models.TierTemplate {
		t.Errorf("tier = %q, want template without a generator", resp.ResponseTier)
	}
}

func TestEngineReusesStoredVerdict(t *testing.T) {
	e := newEngine(t, sessionstore.NewMemoryStore())
	first := engage(t, e, "sess_sticky", "Congratulations! You won the lottery prize, claim it today")
	if !first.IsScam {
		t.Fatal("expected initial scam verdict")
	}

	// Background save must land before the next turn reloads.
	time.Sleep(50 * time.Millisecond)

	// A benign follow-up keeps the stored verdict; the scammer stays
	// engaged.
	second := engage(t, e, "sess_sticky", "ok thanks, how is the weather")

	if !second.IsScam {
		t.Error("stored verdict was not reused")
	}
	if second.ScamType != first.ScamType {
		t.Errorf("scam type changed from %q to %q", first.ScamType, second.ScamType)
	}
	if second.Persona != first.Persona {
		t.Errorf("persona changed from %q to %q", first.Persona, second.Persona)
	}
	if second.TurnCount != 4 {
		t.Errorf("turn count = %d, want 4 after two round trips", second.TurnCount)
	}
}

func TestEngineAccumulatesIntelligence(t *testing.T) {
	e := newEngine(t, sessionstore.NewMemoryStore())

	first := engage(t, e, "sess_intel", "Pay the verification fee now to verification@paytm or your account is blocked")
	if len(first.ExtractedEntities.UPIIDs) != 1 {
		t.Fatalf("first turn UPIIDs = %v", first.ExtractedEntities.UPIIDs)
	}

	time.Sleep(50 * time.Millisecond)

	second := engage(t, e, "sess_intel", "if that fails call 9876543210 and send Rs. 5000")

	if len(second.ExtractedEntities.UPIIDs) != 1 {
		t.Errorf("cumulative UPIIDs = %v", second.ExtractedEntities.UPIIDs)
	}
	if len(second.ExtractedEntities.PhoneNumbers) != 1 {
		t.Errorf("cumulative phones = %v", second.ExtractedEntities.PhoneNumbers)
	}
	if len(second.ExtractedEntities.Amounts) != 1 {
		t.Errorf("cumulative amounts = %v", second.ExtractedEntities.Amounts)
	}
}

func TestEngineBenignTraffic(t *testing.T) {
	e := newEngine(t, sessionstore.NewMemoryStore())

	resp := engage(t, e, "sess_benign", "hey, are we still on for lunch tomorrow?")

	if resp.IsScam {
		t.Error("benign message flagged as scam")
	}
	if resp.Persona != models.PersonaNone {
		t.Errorf("persona = %q, want none", resp.Persona)
	}
	if resp.Phase != models.PhaseInitialContact {
		t.Errorf("phase = %q, want initial_contact", resp.Phase)
	}
	if resp.AgentMessage == "" {
		t.Error("agent reply is empty")
	}
}

func TestEngineRecordsMetrics(t *testing.T) {
	e := newEngine(t, sessionstore.NewMemoryStore())

	engage(t, e, "sess_metrics", "Your account blocked! Share OTP immediately for KYC verification")
	engage(t, e, "sess_metrics_2", "hello there")

	snap := e.Metrics().Snapshot()
	if snap.TotalMessages != 2 {
		t.Errorf("total messages = %d, want 2", snap.TotalMessages)
	}
	if snap.ScamsDetected != 1 {
		t.Errorf("scams detected = %d, want 1", snap.ScamsDetected)
	}
	if snap.ScamsByType["bank_impersonation"] != 1 {
		t.Errorf("scams by type = %v", snap.ScamsByType)
	}
}
