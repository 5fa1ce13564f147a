package services_test

import (
	"context"
	"errors"
	"testing"

	"sentinel-lab/internal/config"
	"sentinel-lab/internal/domain/models"
	"sentinel-lab/internal/domain/services"
	"sentinel-lab/pkg/logger"
)

type stubClassifier struct {
	verdict *models.ClassifierVerdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(_ context.Context, _ string, _ []models.ConversationTurn) (*models.ClassifierVerdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func newDetector(t *testing.T, classifier services.ClassificationService) *services.Detector {
	t.Helper()
	return services.NewDetector(classifier, config.DefaultDetection(), logger.NewDefault())
}

func TestDetectRuleOnlyHighConfidence(t *testing.T) {
	d := newDetector(t, nil)

	result := d.Detect(context.Background(), "Your account blocked! Complete KYC verification immediately and share your OTP", nil)

	if !result.IsScam {
		t.Fatal("expected scam detection")
	}
	if result.ScamType != models.ScamTypeBankImpersonation {
		t.Errorf("scam type = %s, want bank_impersonation", result.ScamType)
	}
	if result.Confidence < 0.7 {
		t.Errorf("confidence = %v, want >= 0.7", result.Confidence)
	}

	wantPatterns := map[string]bool{
		"keywords_bank_impersonation": true,
		"urgency_tactics":             true,
		"sensitive_data_request":      true,
	}
	for _, p := range result.DetectedPatterns {
		delete(wantPatterns, p)
	}
	if len(wantPatterns) != 0 {
		t.Errorf("missing patterns %v in %v", wantPatterns, result.DetectedPatterns)
	}
}

func TestDetectBenignMessage(t *testing.T) {
	d := newDetector(t, nil)

	result := d.Detect(context.Background(), "hey, are we still meeting for lunch tomorrow?", nil)

	if result.IsScam {
		t.Errorf("benign message flagged: %+v", result)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
	if len(result.DetectedPatterns) != 0 {
		t.Errorf("patterns = %v, want none", result.DetectedPatterns)
	}
}

func TestDetectPatternFloorWithoutClassifier(t *testing.T) {
	d := newDetector(t, nil)

	// Single keyword category scores 0.3, below the rule-only accept
	// threshold; with no classifier the pattern floor kicks in.
	result := d.Detect(context.Background(), "congratulations, claim it today", nil)

	if !result.IsScam {
		t.Fatal("expected forced scam-positive result")
	}
	if result.Confidence < 0.6 {
		t.Errorf("confidence = %v, want floored to at least 0.6", result.Confidence)
	}
	if result.ScamType != models.ScamTypeLottery {
		t.Errorf("scam type = %s, want lottery", result.ScamType)
	}
}

func TestDetectBlendsExternalVerdict(t *testing.T) {
	stub := &stubClassifier{verdict: &models.ClassifierVerdict{
		IsScam:     true,
		ScamType:   models.ScamTypeInvestment,
		Confidence: 0.9,
		Reasoning:  "promises guaranteed profit",
	}}
	d := newDetector(t, stub)

	result := d.Detect(context.Background(), "double your money with crypto", nil)

	if stub.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", stub.calls)
	}
	if !result.IsScam {
		t.Fatal("expected blended scam-positive result")
	}
	// 0.3 rule * 0.4 + 0.9 external * 0.6
	if result.Confidence < 0.65 || result.Confidence > 0.67 {
		t.Errorf("blended confidence = %v, want ~0.66", result.Confidence)
	}
	if result.ScamType != models.ScamTypeInvestment {
		t.Errorf("scam type = %s, want external verdict preferred", result.ScamType)
	}
	if result.Reasoning != "promises guaranteed profit" {
		t.Errorf("reasoning = %q, want external reasoning", result.Reasoning)
	}
}

func TestDetectClassifierFailureDegrades(t *testing.T) {
	stub := &stubClassifier{err: errors.New("upstream timeout")}
	d := newDetector(t, stub)

	result := d.Detect(context.Background(), "double your money with crypto", nil)

	if stub.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", stub.calls)
	}
	// Blend collapses to rule * 0.4 = 0.12, below the final threshold.
	if result.IsScam {
		t.Errorf("degraded blend should not flag: %+v", result)
	}
	if result.Confidence > 0.13 {
		t.Errorf("confidence = %v, want rule share only", result.Confidence)
	}
}

func TestDetectSkipsClassifierAbovePrimaryThreshold(t *testing.T) {
	stub := &stubClassifier{verdict: &models.ClassifierVerdict{IsScam: false, Confidence: 0}}
	d := newDetector(t, stub)

	d.Detect(context.Background(), "Your account blocked! Complete KYC immediately, share OTP now", nil)

	if stub.calls != 0 {
		t.Errorf("classifier called %d times above primary threshold, want 0", stub.calls)
	}
}

func TestDetectSkipsClassifierWithoutAnySignal(t *testing.T) {
	stub := &stubClassifier{verdict: &models.ClassifierVerdict{IsScam: true, Confidence: 0.9}}
	d := newDetector(t, stub)

	result := d.Detect(context.Background(), "see you at the gym later", nil)

	if stub.calls != 0 {
		t.Errorf("classifier called %d times below secondary threshold, want 0", stub.calls)
	}
	if result.IsScam {
		t.Errorf("clean message flagged: %+v", result)
	}
}

func TestDetectURLAndPhoneSignals(t *testing.T) {
	d := newDetector(t, nil)

	result := d.Detect(context.Background(), "visit https://secure-verify.example/form or call 9876543210", nil)

	var hasURL, hasPhone bool
	for _, p := range result.DetectedPatterns {
		switch p {
		case "contains_url":
			hasURL = true
		case "contains_phone":
			hasPhone = true
		}
	}
	if !hasURL || !hasPhone {
		t.Errorf("patterns = %v, want url and phone signals", result.DetectedPatterns)
	}
	// Patterns matched, so the floor applies even at low rule score.
	if !result.IsScam {
		t.Error("pattern floor should flag URL+phone message")
	}
}
