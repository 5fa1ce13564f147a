package models

// ScamType categorizes the fraud scheme behind a message
type ScamType string

const (
	ScamTypeBankImpersonation ScamType = "bank_impersonation"
	ScamTypeLottery           ScamType = "lottery"
	ScamTypeCourier           ScamType = "courier"
	ScamTypeTaxRefund         ScamType = "tax_refund"
	ScamTypeInvestment        ScamType = "investment"
	ScamTypeRomance           ScamType = "romance"
	ScamTypeOther             ScamType = "other"
	ScamTypeGeneral           ScamType = "general"
	ScamTypeUnknown           ScamType = "unknown"
)

// DetectionResult is the outcome of classifying a single message.
// It is immutable once produced for a turn; the first scam-positive
// result is cached on the session so later turns skip re-detection.
type DetectionResult struct {
	IsScam           bool     `json:"is_scam"`
	ScamType         ScamType `json:"scam_type"`
	Confidence       float64  `json:"confidence"`
	DetectedPatterns []string `json:"detected_patterns"`
	Reasoning        string   `json:"reasoning"`
}

// ThreatLevel buckets a detection confidence for reporting
type ThreatLevel string

const (
	ThreatLevelHigh   ThreatLevel = "high"
	ThreatLevelMedium ThreatLevel = "medium"
	ThreatLevelLow    ThreatLevel = "low"
)

// ThreatLevelFor buckets a [0,1] confidence on a 10-point scale:
// >=7 high, >=4 medium, else low.
func ThreatLevelFor(confidence float64) ThreatLevel {
	score := confidence * 10
	switch {
	case score >= 7:
		return ThreatLevelHigh
	case score >= 4:
		return ThreatLevelMedium
	default:
		return ThreatLevelLow
	}
}
