package sessionstore_test

import (
	"context"
	"testing"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/infrastructure/sessionstore"
)

func TestMemoryStoreSynthesizesUnseenSession(t *testing.T) {
	store := sessionstore.NewMemoryStore()

	session, err := store.Load(context.Background(), "sess_never_seen")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if session.ID != "sess_never_seen" {
		t.Errorf("id = %q", session.ID)
	}
	if session.Phase != models.PhaseInitialContact {
		t.Errorf("phase = %q, want initial_contact", session.Phase)
	}
	if session.TurnCount() != 0 {
		t.Errorf("turn count = %d, want 0", session.TurnCount())
	}
	if store.Count(context.Background()) != 0 {
		t.Error("synthesized session must not be persisted")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	ctx := context.Background()

	session := models.NewSession("sess_rt")
	session.ScamDetected = true
	session.Phase = models.PhaseBuildingTrust
	session.Persona = models.PersonaRetired
	session.AppendTurn(models.RoleScammer, "your account is blocked", time.Now().UTC())
	session.Intelligence.UPIIDs = []string{"fraud@upi"}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "sess_rt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.ScamDetected || got.Phase != models.PhaseBuildingTrust || got.Persona != models.PersonaRetired {
		t.Errorf("state not preserved: %+v", got)
	}
	if got.TurnCount() != 1 || got.History[0].Text != "your account is blocked" {
		t.Errorf("history not preserved: %+v", got.History)
	}
	if len(got.Intelligence.UPIIDs) != 1 {
		t.Errorf("intelligence not preserved: %+v", got.Intelligence)
	}
	if store.Count(ctx) != 1 {
		t.Errorf("count = %d, want 1", store.Count(ctx))
	}
}

func TestMemoryStoreLoadReturnsIndependentCopy(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	ctx := context.Background()

	session := models.NewSession("sess_copy")
	session.AppendTurn(models.RoleScammer, "original", time.Now().UTC())
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, _ := store.Load(ctx, "sess_copy")
	first.AppendTurn(models.RoleAgent, "mutation", time.Now().UTC())
	first.Intelligence.PhoneNumbers = append(first.Intelligence.PhoneNumbers, "9876543210")

	second, _ := store.Load(ctx, "sess_copy")
	if second.TurnCount() != 1 {
		t.Errorf("turn count = %d, mutation leaked into the store", second.TurnCount())
	}
	if len(second.Intelligence.PhoneNumbers) != 0 {
		t.Errorf("phones = %v, mutation leaked into the store", second.Intelligence.PhoneNumbers)
	}
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	ctx := context.Background()

	session := models.NewSession("sess_ow")
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	session.Phase = models.PhaseClosing
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := store.Load(ctx, "sess_ow")
	if got.Phase != models.PhaseClosing {
		t.Errorf("phase = %q, want closing", got.Phase)
	}
	if store.Count(ctx) != 1 {
		t.Errorf("count = %d, want 1", store.Count(ctx))
	}
}
