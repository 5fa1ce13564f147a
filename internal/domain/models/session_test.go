package models_test

import (
	"testing"
	"time"

	"sentinel-lab/internal/domain/models"
)

func TestNextPhase(t *testing.T) {
	tests := []struct {
		name string
		from models.Phase
		ev   models.PhaseEvidence
		want models.Phase
	}{
		{
			name: "initial contact holds without detection",
			from: models.PhaseInitialContact,
			ev:   models.PhaseEvidence{TurnCount: 10},
			want: models.PhaseInitialContact,
		},
		{
			name: "detection moves to building trust",
			from: models.PhaseInitialContact,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 1},
			want: models.PhaseBuildingTrust,
		},
		{
			name: "building trust holds below turn four",
			from: models.PhaseBuildingTrust,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 3},
			want: models.PhaseBuildingTrust,
		},
		{
			name: "building trust advances at turn four",
			from: models.PhaseBuildingTrust,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 4},
			want: models.PhasePlayingDumb,
		},
		{
			name: "playing dumb advances at turn seven",
			from: models.PhasePlayingDumb,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 7},
			want: models.PhaseExtractingIntel,
		},
		{
			name: "extraction closes with two payments one phone at twelve",
			from: models.PhaseExtractingIntel,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 12, PaymentIdentifiers: 2, PhoneNumbers: 1},
			want: models.PhaseClosing,
		},
		{
			name: "extraction holds with two payments no phone at twelve",
			from: models.PhaseExtractingIntel,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 12, PaymentIdentifiers: 2},
			want: models.PhaseExtractingIntel,
		},
		{
			name: "extraction closes with two payments at fourteen",
			from: models.PhaseExtractingIntel,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 14, PaymentIdentifiers: 2},
			want: models.PhaseClosing,
		},
		{
			name: "extraction closes with one payment at eighteen",
			from: models.PhaseExtractingIntel,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 18, PaymentIdentifiers: 1},
			want: models.PhaseClosing,
		},
		{
			name: "extraction holds with no payments at eighteen",
			from: models.PhaseExtractingIntel,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 18},
			want: models.PhaseExtractingIntel,
		},
		{
			name: "closing is terminal",
			from: models.PhaseClosing,
			ev:   models.PhaseEvidence{ScamDetected: true, TurnCount: 50, PaymentIdentifiers: 5, PhoneNumbers: 3},
			want: models.PhaseClosing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.NextPhase(tt.from, tt.ev)
			if got != tt.want {
				t.Errorf("NextPhase(%s) = %s, want %s", tt.from, got, tt.want)
			}
		})
	}
}

func TestNextPhaseNeverMovesBackward(t *testing.T) {
	phases := []models.Phase{
		models.PhaseInitialContact,
		models.PhaseBuildingTrust,
		models.PhasePlayingDumb,
		models.PhaseExtractingIntel,
		models.PhaseClosing,
	}
	evidence := []models.PhaseEvidence{
		{},
		{ScamDetected: true},
		{ScamDetected: true, TurnCount: 5},
		{ScamDetected: true, TurnCount: 20, PaymentIdentifiers: 3, PhoneNumbers: 2},
	}

	for _, p := range phases {
		for _, ev := range evidence {
			next := models.NextPhase(p, ev)
			if next.Before(p) {
				t.Errorf("NextPhase(%s, %+v) moved backward to %s", p, ev, next)
			}
		}
	}
}

func TestSessionTurnCountDerivedFromHistory(t *testing.T) {
	s := models.NewSession("sess-1")
	if s.TurnCount() != 0 {
		t.Fatalf("new session turn count = %d, want 0", s.TurnCount())
	}

	s.AppendTurn(models.RoleScammer, "hello", time.Now())
	s.AppendTurn(models.RoleAgent, "who is this?", time.Now())

	if s.TurnCount() != 2 {
		t.Errorf("turn count = %d, want 2", s.TurnCount())
	}
	if s.History[0].Role != models.RoleScammer || s.History[1].Role != models.RoleAgent {
		t.Errorf("history roles out of order: %+v", s.History)
	}
}

func TestSessionLastTurns(t *testing.T) {
	s := models.NewSession("sess-2")
	for i := 0; i < 8; i++ {
		s.AppendTurn(models.RoleScammer, "msg", time.Now())
	}

	if got := len(s.LastTurns(5)); got != 5 {
		t.Errorf("LastTurns(5) returned %d turns, want 5", got)
	}
	if got := len(s.LastTurns(20)); got != 8 {
		t.Errorf("LastTurns(20) returned %d turns, want 8", got)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := models.NewSession("sess-3")
	s.AppendTurn(models.RoleScammer, "original", time.Now())
	s.Intelligence.Merge(models.Intelligence{UPIIDs: []string{"pay@upi"}})

	c := s.Clone()
	c.AppendTurn(models.RoleAgent, "cloned", time.Now())
	c.Intelligence.Merge(models.Intelligence{UPIIDs: []string{"other@upi"}})

	if s.TurnCount() != 1 {
		t.Errorf("clone mutation leaked into original history: %d turns", s.TurnCount())
	}
	if len(s.Intelligence.UPIIDs) != 1 {
		t.Errorf("clone mutation leaked into original intelligence: %v", s.Intelligence.UPIIDs)
	}
}
