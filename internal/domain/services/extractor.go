package services

import (
	"context"
	"regexp"
	"strings"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// ExtractionService is the optional assisted extractor. A nil service
// means pattern-only extraction.
type ExtractionService interface {
	Extract(ctx context.Context, text string) (*models.AssistExtraction, error)
}

var (
	upiPattern     = regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z]{3,}\b`)
	phonePattern   = regexp.MustCompile(`\b(?:\+91|0)?[6-9]\d{9}\b`)
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	ifscPattern    = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	urlPattern     = regexp.MustCompile(`https?://[^\s<>"]+`)
	amountPattern  = regexp.MustCompile(`(?:Rs\.?|₹|INR)\s*[\d,]+(?:\.\d{1,2})?`)
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	upiLocalPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
	ifscExact       = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// bankBrands is checked in order against the lowercased message; the
// first hit names the account.
var bankBrands = []struct {
	Name    string
	Pattern *regexp.Regexp
}{
	{"SBI", regexp.MustCompile(`\bsbi\b|state bank`)},
	{"HDFC", regexp.MustCompile(`\bhdfc\b`)},
	{"ICICI", regexp.MustCompile(`\bicici\b`)},
	{"AXIS", regexp.MustCompile(`\baxis\b`)},
	{"PAYTM", regexp.MustCompile(`\bpaytm\b`)},
	{"PHONEPE", regexp.MustCompile(`\bphonepe\b`)},
	{"GPAY", regexp.MustCompile(`\bgpay\b|google pay`)},
	{"KOTAK", regexp.MustCompile(`\bkotak\b`)},
}

// Extractor pulls actionable intelligence out of scammer messages.
// The pattern pass is authoritative; the assisted pass only adds what
// the patterns missed, and everything is validated before it is
// allowed into a session.
type Extractor struct {
	assist ExtractionService
	logger *logger.Logger
}

// NewExtractor creates an extractor. assist may be nil.
func NewExtractor(assist ExtractionService, log *logger.Logger) *Extractor {
	return &Extractor{
		assist: assist,
		logger: log.WithComponent("extractor"),
	}
}

// Extract runs the full pipeline on a single message: pattern pass,
// assisted pass, merge, validate. Extraction is deterministic for the
// pattern pass, so feeding the same message twice yields the same
// entities only once at the session level after merging.
func (e *Extractor) Extract(ctx context.Context, text string) models.Intelligence {
	result := e.patternPass(text)

	if e.assist != nil {
		assisted, err := e.assist.Extract(ctx, text)
		if err != nil {
			e.logger.Warn().Err(err).Msg("assisted extraction degraded")
		} else {
			result.Merge(assisted.Entities)
		}
	}

	return e.validate(result)
}

// patternPass applies every regex family to the raw message. An email
// address also yields a UPI-shaped match on its local part and domain;
// both captures are kept, validation sorts out unusable ones.
func (e *Extractor) patternPass(text string) models.Intelligence {
	var intel models.Intelligence

	intel.UPIIDs = append(intel.UPIIDs, upiPattern.FindAllString(text, -1)...)
	intel.PhoneNumbers = append(intel.PhoneNumbers, phonePattern.FindAllString(text, -1)...)
	intel.URLs = append(intel.URLs, urlPattern.FindAllString(text, -1)...)
	intel.Amounts = append(intel.Amounts, amountPattern.FindAllString(text, -1)...)
	intel.Emails = append(intel.Emails, emailPattern.FindAllString(text, -1)...)

	accounts := accountPattern.FindAllString(text, -1)
	if len(accounts) > 0 {
		// The first IFSC-shaped token attaches to every candidate run;
		// phone-shaped runs also match the account regex and must not
		// absorb it away from the real account.
		ifsc := ""
		if ifscCodes := ifscPattern.FindAllString(text, -1); len(ifscCodes) > 0 {
			ifsc = ifscCodes[0]
		}
		bankName := detectBankName(text)
		for _, acct := range accounts {
			intel.BankAccounts = append(intel.BankAccounts, models.BankAccount{
				AccountNumber: acct,
				IFSC:          ifsc,
				BankName:      bankName,
			})
		}
	}

	return intel
}

func detectBankName(text string) string {
	lower := strings.ToLower(text)
	for _, b := range bankBrands {
		if b.Pattern.MatchString(lower) {
			return b.Name
		}
	}
	return "unknown"
}

// validate filters every entity through its format rule and then
// deduplicates a second time: the assisted pass can surface variants
// that only collide after normalization. Amounts are passed through
// untouched, repeated demands are signal.
func (e *Extractor) validate(in models.Intelligence) models.Intelligence {
	var out models.Intelligence

	for _, id := range in.UPIIDs {
		if validUPI(id) {
			out.UPIIDs = append(out.UPIIDs, id)
		}
	}
	for _, ph := range in.PhoneNumbers {
		if n, ok := normalizePhone(ph); ok {
			out.PhoneNumbers = append(out.PhoneNumbers, n)
		}
	}
	for _, ba := range in.BankAccounts {
		if validBankAccount(ba) {
			out.BankAccounts = append(out.BankAccounts, ba)
		}
	}
	out.URLs = append(out.URLs, in.URLs...)
	out.Emails = append(out.Emails, in.Emails...)
	out.Amounts = append(out.Amounts, in.Amounts...)

	deduped := models.Intelligence{}
	deduped.Merge(out)
	return deduped
}

func validUPI(id string) bool {
	parts := strings.Split(id, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	return upiLocalPattern.MatchString(local) && len(domain) >= 3
}

// normalizePhone strips the +91 or trunk-zero prefix and returns the
// bare ten-digit number, so the same phone reported in different forms
// collapses to one entry.
func normalizePhone(ph string) (string, bool) {
	n := strings.TrimPrefix(ph, "+91")
	n = strings.TrimPrefix(n, "0")
	if len(n) != 10 || !digitsPattern.MatchString(n) {
		return "", false
	}
	if n[0] < '6' || n[0] > '9' {
		return "", false
	}
	return n, true
}

func validBankAccount(ba models.BankAccount) bool {
	if len(ba.AccountNumber) < 9 || len(ba.AccountNumber) > 18 || !digitsPattern.MatchString(ba.AccountNumber) {
		return false
	}
	if ba.IFSC != "" && !ifscExact.MatchString(ba.IFSC) {
		return false
	}
	return true
}
