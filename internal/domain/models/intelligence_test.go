package models_test

import (
	"reflect"
	"testing"

	"sentinel-lab/internal/domain/models"
)

func TestMergeUnionsScalarKinds(t *testing.T) {
	var intel models.Intelligence
	intel.Merge(models.Intelligence{
		UPIIDs:       []string{"a@paytm", "b@ybl"},
		PhoneNumbers: []string{"9876543210"},
	})
	intel.Merge(models.Intelligence{
		UPIIDs:       []string{"b@ybl", "c@oksbi"},
		PhoneNumbers: []string{"9876543210"},
		URLs:         []string{"http://scam.example"},
	})

	wantUPI := []string{"a@paytm", "b@ybl", "c@oksbi"}
	if !reflect.DeepEqual(intel.UPIIDs, wantUPI) {
		t.Errorf("UPIIDs = %v, want %v", intel.UPIIDs, wantUPI)
	}
	if len(intel.PhoneNumbers) != 1 {
		t.Errorf("PhoneNumbers = %v, want single entry", intel.PhoneNumbers)
	}
	if len(intel.URLs) != 1 {
		t.Errorf("URLs = %v, want single entry", intel.URLs)
	}
}

func TestMergeBankAccountsFirstOccurrenceWins(t *testing.T) {
	var intel models.Intelligence
	intel.Merge(models.Intelligence{
		BankAccounts: []models.BankAccount{
			{AccountNumber: "123456789", IFSC: "SBIN0001234", BankName: "SBI"},
		},
	})
	intel.Merge(models.Intelligence{
		BankAccounts: []models.BankAccount{
			{AccountNumber: "123456789", BankName: "HDFC"},
			{AccountNumber: "987654321012", BankName: "AXIS"},
		},
	})

	if len(intel.BankAccounts) != 2 {
		t.Fatalf("bank accounts = %d, want 2", len(intel.BankAccounts))
	}
	if intel.BankAccounts[0].BankName != "SBI" || intel.BankAccounts[0].IFSC != "SBIN0001234" {
		t.Errorf("first occurrence lost: %+v", intel.BankAccounts[0])
	}
}

func TestMergeAmountsNeverDeduplicated(t *testing.T) {
	var intel models.Intelligence
	delta := models.Intelligence{Amounts: []string{"Rs 5000"}}
	intel.Merge(delta)
	intel.Merge(delta)

	if len(intel.Amounts) != 2 {
		t.Errorf("amounts = %v, want repeated demand preserved", intel.Amounts)
	}
}

func TestMergeIdempotentForNonAmountKinds(t *testing.T) {
	delta := models.Intelligence{
		UPIIDs:       []string{"pay@upi"},
		PhoneNumbers: []string{"9123456780"},
		BankAccounts: []models.BankAccount{{AccountNumber: "111122223333"}},
		URLs:         []string{"http://x.example"},
		Emails:       []string{"a@b.com"},
	}

	var intel models.Intelligence
	intel.Merge(delta)
	intel.Merge(delta)

	if len(intel.UPIIDs) != 1 || len(intel.PhoneNumbers) != 1 ||
		len(intel.BankAccounts) != 1 || len(intel.URLs) != 1 || len(intel.Emails) != 1 {
		t.Errorf("double merge not idempotent: %+v", intel)
	}
}

func TestPaymentIdentifiers(t *testing.T) {
	intel := models.Intelligence{
		UPIIDs:       []string{"a@upi", "b@upi"},
		BankAccounts: []models.BankAccount{{AccountNumber: "123456789"}},
	}
	if got := intel.PaymentIdentifiers(); got != 3 {
		t.Errorf("PaymentIdentifiers() = %d, want 3", got)
	}
}

func TestThreatLevelFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       models.ThreatLevel
	}{
		{0.95, models.ThreatLevelHigh},
		{0.7, models.ThreatLevelHigh},
		{0.69, models.ThreatLevelMedium},
		{0.4, models.ThreatLevelMedium},
		{0.39, models.ThreatLevelLow},
		{0.0, models.ThreatLevelLow},
	}
	for _, tt := range tests {
		if got := models.ThreatLevelFor(tt.confidence); got != tt.want {
			t.Errorf("ThreatLevelFor(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}
