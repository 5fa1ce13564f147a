package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/pkg/logger"
)

type fixedSelector struct{ index int }

func (s fixedSelector) Pick(n int) int {
	if s.index >= n {
		return n - 1
	}
	return s.index
}

type stubGenerator struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newOrchestrator(t *testing.T, gen services.GenerationService) *services.Orchestrator {
	t.Helper()
	return services.NewOrchestrator(gen, fixedSelector{}, logger.NewDefault())
}

func scamDetection(scamType models.ScamType) *models.DetectionResult {
	return &models.DetectionResult{
		IsScam:     true,
		ScamType:   scamType,
		Confidence: 0.8,
	}
}

func TestEnsurePersonaByScamType(t *testing.T) {
	tests := []struct {
		scamType models.ScamType
		want     models.Persona
	}{
		{models.ScamTypeBankImpersonation, models.PersonaAnxiousEmployee},
		{models.ScamTypeLottery, models.PersonaRetired},
		{models.ScamTypeCourier, models.PersonaRetired},
		{models.ScamTypeInvestment, models.PersonaSmallBusiness},
		{models.ScamTypeGeneral, models.PersonaRetired},
		{models.ScamTypeUnknown, models.PersonaRetired},
	}

	o := newOrchestrator(t, nil)
	for _, tt := range tests {
		t.Run(string(tt.scamType), func(t *testing.T) {
			session := models.NewSession("sess_persona")
			o.EnsurePersona(session, scamDetection(tt.scamType))
			if session.Persona != tt.want {
				t.Errorf("persona = %q, want %q", session.Persona, tt.want)
			}
		})
	}
}

func TestEnsurePersonaLockedAfterFirstPick(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_locked")

	o.EnsurePersona(session, scamDetection(models.ScamTypeLottery))
	o.EnsurePersona(session, scamDetection(models.ScamTypeBankImpersonation))

	if session.Persona != models.PersonaRetired {
		t.Errorf("persona changed to %q after second detection", session.Persona)
	}
}

func TestEnsurePersonaSkipsNonScam(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_benign")

	o.EnsurePersona(session, &models.DetectionResult{IsScam: false, ScamType: models.ScamTypeUnknown})

	if session.Persona != models.PersonaNone {
		t.Errorf("persona = %q, want none for benign traffic", session.Persona)
	}
}

func TestRespondNonScam(t *testing.T) {
	gen := &stubGenerator{reply: "should not be used"}
	o := newOrchestrator(t, gen)
	session := models.NewSession("sess_benign")

	reply := o.Respond(context.Background(), session, &models.DetectionResult{IsScam: false})

	if reply.Tier != models.TierTemplate {
		t.Errorf("tier = %q, want template", reply.Tier)
	}
	if !strings.Contains(reply.Message, "I don't understand") {
		t.Errorf("unexpected non-scam reply %q", reply.Message)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for benign traffic", gen.calls)
	}
}

func TestRespondTemplateExtractionPools(t *testing.T) {
	// Extraction-phase templates follow the gap priority: UPI first,
	// then bank, then phone, then backup methods.
	tests := []struct {
		name  string
		intel models.Intelligence
		want  string
	}{
		{
			name: "missing upi",
			want: "UPI ID",
		},
		{
			name:  "has upi, missing bank",
			intel: models.Intelligence{UPIIDs: []string{"a@upi"}},
			want:  "account number and IFSC",
		},
		{
			name: "has upi and bank, missing phone",
			intel: models.Intelligence{
				UPIIDs:       []string{"a@upi"},
				BankAccounts: []models.BankAccount{{AccountNumber: "123456789"}},
			},
			want: "phone number",
		},
		{
			name: "has everything, asks for backup",
			intel: models.Intelligence{
				UPIIDs:       []string{"a@upi"},
				BankAccounts: []models.BankAccount{{AccountNumber: "123456789"}},
				PhoneNumbers: []string{"9876543210"},
				URLs:         []string{"http://x.test"},
			},
			want: "backup",
		},
	}

	o := newOrchestrator(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := models.NewSession("sess_pools")
			session.ScamDetected = true
			session.Phase = models.PhaseExtractingIntel
			session.Intelligence = tt.intel

			reply := o.Respond(context.Background(), session, scamDetection(models.ScamTypeBankImpersonation))

			if reply.Tier != models.TierTemplate {
				t.Errorf("tier = %q, want template", reply.Tier)
			}
			if !strings.Contains(reply.Message, tt.want) {
				t.Errorf("reply %q does not mention %q", reply.Message, tt.want)
			}
		})
	}
}

func TestRespondTemplatePlayingDumb(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_dumb")
	session.Phase = models.PhasePlayingDumb

	reply := o.Respond(context.Background(), session, scamDetection(models.ScamTypeBankImpersonation))

	if !strings.Contains(reply.Message, "step by step") {
		t.Errorf("unexpected playing-dumb reply %q", reply.Message)
	}
}

func TestRespondGeneratedTier(t *testing.T) {
	gen := &stubGenerator{reply: `"Oh dear, is my account really blocked?"`}
	o := newOrchestrator(t, gen)
	session := models.NewSession("sess_gen")
	session.Persona = models.PersonaRetired
	session.Phase = models.PhaseBuildingTrust
	session.AppendTurn(models.RoleScammer, "your account is blocked", time.Now())

	reply := o.Respond(context.Background(), session, scamDetection(models.ScamTypeBankImpersonation))

	if reply.Tier != models.TierGenerated {
		t.Fatalf("tier = %q, want generated", reply.Tier)
	}
	if reply.Message != "Oh dear, is my account really blocked?" {
		t.Errorf("surrounding quotes not stripped: %q", reply.Message)
	}
	if !strings.Contains(gen.prompt, "Retired Professional") {
		t.Errorf("prompt missing persona: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "BUILDING_TRUST") {
		t.Errorf("prompt missing phase: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "SCAMMER: your account is blocked") {
		t.Errorf("prompt missing history: %q", gen.prompt)
	}
}

func TestRespondGeneratorFailureFallsBackToTemplate(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	o := newOrchestrator(t, gen)
	session := models.NewSession("sess_fail")
	session.Phase = models.PhaseExtractingIntel

	reply := o.Respond(context.Background(), session, scamDetection(models.ScamTypeBankImpersonation))

	if reply.Tier != models.TierTemplate {
		t.Errorf("tier = %q, want template fallback", reply.Tier)
	}
	if reply.Message == "" {
		t.Error("fallback reply is empty")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestFallbackReplyCoversEveryPhase(t *testing.T) {
	o := newOrchestrator(t, nil)
	phases := []models.Phase{
		models.PhaseInitialContact,
		models.PhaseBuildingTrust,
		models.PhasePlayingDumb,
		models.PhaseExtractingIntel,
		models.PhaseClosing,
	}
	for _, p := range phases {
		if o.FallbackReply(p) == "" {
			t.Errorf("no fallback for phase %q", p)
		}
	}
	if o.FallbackReply(models.Phase("bogus")) == "" {
		t.Error("no fallback for unknown phase")
	}
}

func TestUpdateSessionAppendsAndMerges(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_update")
	session.ScamDetected = true
	session.AppendTurn(models.RoleScammer, "send to fraud@upi", time.Now())

	delta := models.Intelligence{UPIIDs: []string{"fraud@upi"}}
	o.UpdateSession(session, delta, "What's your UPI ID?", 40*time.Millisecond)

	if session.TurnCount() != 2 {
		t.Fatalf("turn count = %d, want 2", session.TurnCount())
	}
	last := session.History[len(session.History)-1]
	if last.Role != models.RoleAgent || last.Text != "What's your UPI ID?" {
		t.Errorf("unexpected last turn %+v", last)
	}
	if len(session.Intelligence.UPIIDs) != 1 {
		t.Errorf("delta not merged: %+v", session.Intelligence)
	}
	if session.Metrics.TurnCount != 2 {
		t.Errorf("metrics turn count = %d", session.Metrics.TurnCount)
	}
	if session.Metrics.LastLatencyMS != 40 {
		t.Errorf("latency = %d, want 40", session.Metrics.LastLatencyMS)
	}
}

func TestUpdateSessionAdvancesPhase(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_phase")
	session.ScamDetected = true
	session.Phase = models.PhaseBuildingTrust
	for i := 0; i < 3; i++ {
		session.AppendTurn(models.RoleScammer, "pay now", time.Now())
	}

	// The agent turn appended here makes the fourth, crossing the
	// trust-phase threshold.
	o.UpdateSession(session, models.Intelligence{}, "Can you explain again?", time.Millisecond)

	if session.Phase != models.PhasePlayingDumb {
		t.Errorf("phase = %q, want playing_dumb", session.Phase)
	}
}

func TestUpdateSessionHoldsPhaseWithoutEvidence(t *testing.T) {
	o := newOrchestrator(t, nil)
	session := models.NewSession("sess_hold")
	session.ScamDetected = true
	session.Phase = models.PhaseExtractingIntel
	session.AppendTurn(models.RoleScammer, "pay now", time.Now())

	o.UpdateSession(session, models.Intelligence{}, "What's your UPI ID?", time.Millisecond)

	if session.Phase != models.PhaseExtractingIntel {
		t.Errorf("phase moved to %q with no payment identifiers", session.Phase)
	}
}
