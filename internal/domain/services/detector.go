package services

import (
	"context"
	"regexp"
	"strings"

	"sentinel-lab/internal/config"
	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// ClassificationService is the optional external classifier. A nil
// service means rule-only detection.
type ClassificationService interface {
	Classify(ctx context.Context, text string, history []models.ConversationTurn) (*models.ClassifierVerdict, error)
}

// scamCategory pairs a scam type with its keyword vocabulary. The
// slice is ordered: when several categories match, the last one wins
// the scam_type slot.
type scamCategory struct {
	Type     models.ScamType
	Keywords []string
}

var scamCategories = []scamCategory{
	{models.ScamTypeBankImpersonation, []string{
		"kyc", "account blocked", "verify account", "update kyc",
		"suspend account", "bank verification", "rbi", "reserve bank",
	}},
	{models.ScamTypeLottery, []string{
		"congratulations", "lottery", "prize", "winner", "jackpot",
		"lucky draw", "won", "claim prize",
	}},
	{models.ScamTypeCourier, []string{
		"fedex", "dhl", "courier", "parcel", "package", "customs",
		"clearance fee", "delivery pending",
	}},
	{models.ScamTypeTaxRefund, []string{
		"tax refund", "income tax", "gst refund", "refund pending",
		"tax department", "refund amount",
	}},
	{models.ScamTypeInvestment, []string{
		"investment opportunity", "guaranteed returns", "profit",
		"trading", "crypto", "bitcoin", "stock market tip",
	}},
}

var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`immediately`),
	regexp.MustCompile(`within \d+ hours?`),
	regexp.MustCompile(`urgent`),
	regexp.MustCompile(`asap`),
	regexp.MustCompile(`right now`),
	regexp.MustCompile(`before \d+`),
	regexp.MustCompile(`will be (blocked|suspended|closed)`),
	regexp.MustCompile(`expire[sd]? (soon|today|tomorrow)`),
}

var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`otp`),
	regexp.MustCompile(`password`),
	regexp.MustCompile(`pin`),
	regexp.MustCompile(`cvv`),
	regexp.MustCompile(`card number`),
	regexp.MustCompile(`account number`),
	regexp.MustCompile(`aadhar`),
	regexp.MustCompile(`pan card`),
}

var (
	detectURLPattern   = regexp.MustCompile(`https?://\S+`)
	detectPhonePattern = regexp.MustCompile(`\b(?:\+91|0)?[6-9]\d{9}\b`)
)

// Detector turns free-text messages into confidence-scored scam
// classifications. The rule pass always runs and is pure string and
// regex matching; the external classifier is consulted only inside
// the narrow band the decision policy defines.
type Detector struct {
	classifier ClassificationService
	cfg        config.DetectionConfig
	logger     *logger.Logger
}

// NewDetector creates a detector. classifier may be nil.
func NewDetector(classifier ClassificationService, cfg config.DetectionConfig, log *logger.Logger) *Detector {
	return &Detector{
		classifier: classifier,
		cfg:        cfg,
		logger:     log.WithComponent("detector"),
	}
}

// Detect classifies a message given the conversation so far.
//
// Decision policy: rule evidence above the primary threshold is
// accepted as-is. Below it, the external classifier is blended in when
// available and the rule score clears the secondary threshold. If no
// external call qualified but any rule pattern hit, the result is
// forced scam-positive with a confidence floor: the system is biased
// toward over-flagging borderline cases rather than missing live
// fraud. The thresholds are empirically tuned; see config.
func (d *Detector) Detect(ctx context.Context, text string, history []models.ConversationTurn) models.DetectionResult {
	rule := d.ruleDetect(text)

	if rule.Confidence > d.cfg.PrimaryThreshold {
		d.logger.Debug().Float64("confidence", rule.Confidence).Msg("rule-based detection accepted")
		return rule
	}

	if d.classifier != nil && rule.Confidence > d.cfg.SecondaryThreshold {
		verdict := d.classify(ctx, text, history)

		blended := rule.Confidence*d.cfg.RuleWeight + verdict.Confidence*d.cfg.ExternalWeight

		scamType := rule.ScamType
		if verdict.ScamType != "" && verdict.ScamType != models.ScamTypeUnknown {
			scamType = verdict.ScamType
		}
		reasoning := verdict.Reasoning
		if reasoning == "" {
			reasoning = "Hybrid detection"
		}

		return models.DetectionResult{
			IsScam:           blended > d.cfg.BlendThreshold,
			ScamType:         scamType,
			Confidence:       blended,
			DetectedPatterns: rule.DetectedPatterns,
			Reasoning:        reasoning,
		}
	}

	if len(rule.DetectedPatterns) > 0 {
		rule.IsScam = true
		if rule.Confidence < d.cfg.PatternFloor {
			rule.Confidence = d.cfg.PatternFloor
		}
		return rule
	}

	return rule
}

// classify wraps the external call; any failure collapses to a
// zero-confidence verdict annotated with the reason, never an error.
func (d *Detector) classify(ctx context.Context, text string, history []models.ConversationTurn) models.ClassifierVerdict {
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	verdict, err := d.classifier.Classify(ctx, text, history)
	if err != nil {
		d.logger.Warn().Err(err).Msg("external classification degraded")
		return models.ClassifierVerdict{
			IsScam:     false,
			ScamType:   models.ScamTypeUnknown,
			Confidence: 0,
			Reasoning:  "classifier degraded: " + err.Error(),
		}
	}
	return *verdict
}

// ruleDetect is the deterministic rule pass: four independent signal
// families accumulate into a capped score.
func (d *Detector) ruleDetect(text string) models.DetectionResult {
	lower := strings.ToLower(text)
	var patterns []string
	scamType := models.ScamTypeUnknown
	score := 0.0

	for _, cat := range scamCategories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				patterns = append(patterns, "keywords_"+string(cat.Type))
				score += 0.3
				scamType = cat.Type
				break
			}
		}
	}

	for _, p := range urgencyPatterns {
		if p.MatchString(lower) {
			patterns = append(patterns, "urgency_tactics")
			score += 0.2
			break
		}
	}

	for _, p := range sensitiveDataPatterns {
		if p.MatchString(lower) {
			patterns = append(patterns, "sensitive_data_request")
			score += 0.25
			break
		}
	}

	if detectURLPattern.MatchString(text) {
		patterns = append(patterns, "contains_url")
		score += 0.15
	}

	if detectPhonePattern.MatchString(text) {
		patterns = append(patterns, "contains_phone")
		score += 0.1
	}

	confidence := score
	if confidence > 1.0 {
		confidence = 1.0
	}

	if scamType == models.ScamTypeUnknown {
		scamType = models.ScamTypeGeneral
	}

	return models.DetectionResult{
		IsScam:           confidence > 0.5,
		ScamType:         scamType,
		Confidence:       confidence,
		DetectedPatterns: patterns,
		Reasoning:        "Rule-based detection",
	}
}
