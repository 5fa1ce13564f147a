package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// GenerationService is the optional deep-tier response generator. A
// nil service means template responses only.
type GenerationService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Selector picks an index in [0, n). Injected so tests can pin the
// template choice.
type Selector interface {
	Pick(n int) int
}

type randSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSelector returns a seeded pseudo-random selector.
func NewRandSelector(seed int64) Selector {
	return &randSelector{rng: rand.New(rand.NewSource(seed))}
}

func (s *randSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// AgentReply is a generated honeypot utterance plus the tier that
// produced it.
type AgentReply struct {
	Message string
	Tier    models.ResponseTier
}

// intelligenceGaps records what the session is still missing and
// which ask comes next.
type intelligenceGaps struct {
	NeedsUPI   bool
	NeedsBank  bool
	NeedsPhone bool
	NeedsURL   bool
	Priority   string
}

// Orchestrator owns everything the agent says and every mutation of
// session state: persona selection, two-tier response generation and
// the post-turn update step.
type Orchestrator struct {
	generator GenerationService
	selector  Selector
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator. generator may be nil;
// selector falls back to a time-seeded one when nil.
func NewOrchestrator(generator GenerationService, selector Selector, log *logger.Logger) *Orchestrator {
	if selector == nil {
		selector = NewRandSelector(time.Now().UnixNano())
	}
	return &Orchestrator{
		generator: generator,
		selector:  selector,
		logger:    log.WithComponent("orchestrator"),
	}
}

// EnsurePersona locks in a persona the first time a session turns
// scam-positive. The choice never changes afterwards.
func (o *Orchestrator) EnsurePersona(session *models.Session, det *models.DetectionResult) {
	if session.Persona != models.PersonaNone || !det.IsScam {
		return
	}
	persona, ok := personaForScamType[det.ScamType]
	if !ok {
		persona = models.PersonaRetired
	}
	session.Persona = persona
	o.logger.Info().
		Str("session_id", session.ID).
		Str("persona", string(persona)).
		Str("scam_type", string(det.ScamType)).
		Msg("persona selected")
}

// Respond produces the agent's next utterance. Non-scam traffic gets
// a neutral brush-off. Scam traffic goes through the deep tier when a
// generator is wired, with the template tier as fallback. Respond
// never mutates the session.
func (o *Orchestrator) Respond(ctx context.Context, session *models.Session, det *models.DetectionResult) AgentReply {
	if !det.IsScam {
		return AgentReply{Message: nonScamReply, Tier: models.TierTemplate}
	}

	gaps := analyzeGaps(&session.Intelligence)

	if o.generator != nil {
		prompt := o.buildPrompt(session, gaps)
		out, err := o.generator.Generate(ctx, prompt)
		if err == nil {
			return AgentReply{Message: stripQuotes(out), Tier: models.TierGenerated}
		}
		o.logger.Warn().Err(err).
			Str("session_id", session.ID).
			Msg("deep-tier generation failed, using template")
	}

	return AgentReply{Message: o.templateReply(session.Phase, gaps), Tier: models.TierTemplate}
}

// FallbackReply is the last-resort canned line for a phase, used when
// the whole response path fails.
func (o *Orchestrator) FallbackReply(phase models.Phase) string {
	if line, ok := fallbackReplies[phase]; ok {
		return line
	}
	return fallbackReplies[models.PhaseBuildingTrust]
}

// UpdateSession is the single writer for post-turn session state: it
// appends the agent turn, merges extracted intelligence, advances the
// phase and refreshes metrics. Callers must not mutate the session
// concurrently.
func (o *Orchestrator) UpdateSession(session *models.Session, delta models.Intelligence, utterance string, latency time.Duration) {
	now := time.Now().UTC()
	session.AppendTurn(models.RoleAgent, utterance, now)
	session.Intelligence.Merge(delta)

	ev := models.PhaseEvidence{
		ScamDetected:       session.ScamDetected,
		TurnCount:          session.TurnCount(),
		PaymentIdentifiers: session.Intelligence.PaymentIdentifiers(),
		PhoneNumbers:       len(session.Intelligence.PhoneNumbers),
	}
	next := models.NextPhase(session.Phase, ev)
	if next != session.Phase {
		o.logger.Info().
			Str("session_id", session.ID).
			Str("from", string(session.Phase)).
			Str("to", string(next)).
			Int("turn_count", ev.TurnCount).
			Msg("phase advanced")
		session.Phase = next
	}

	session.Metrics.TurnCount = session.TurnCount()
	session.Metrics.LastLatencyMS = latency.Milliseconds()
	session.LastUpdated = now
}

func analyzeGaps(intel *models.Intelligence) intelligenceGaps {
	gaps := intelligenceGaps{
		NeedsUPI:   len(intel.UPIIDs) == 0,
		NeedsBank:  len(intel.BankAccounts) == 0,
		NeedsPhone: len(intel.PhoneNumbers) == 0,
		NeedsURL:   len(intel.URLs) == 0,
	}
	switch {
	case gaps.NeedsUPI:
		gaps.Priority = "upi"
	case gaps.NeedsBank:
		gaps.Priority = "bank"
	case gaps.NeedsPhone:
		gaps.Priority = "phone"
	case gaps.NeedsURL:
		gaps.Priority = "url"
	default:
		gaps.Priority = "backup"
	}
	return gaps
}

// templateReply serves the fast tier. Only the extraction phase keys
// off intelligence gaps; every other phase has a fixed pool or line.
func (o *Orchestrator) templateReply(phase models.Phase, gaps intelligenceGaps) string {
	switch phase {
	case models.PhaseExtractingIntel:
		var pool []string
		switch {
		case gaps.NeedsUPI:
			pool = upiTemplates
		case gaps.NeedsBank:
			pool = bankTemplates
		case gaps.NeedsPhone:
			pool = phoneTemplates
		default:
			pool = backupTemplates
		}
		return pool[o.selector.Pick(len(pool))]
	case models.PhasePlayingDumb:
		return playingDumbTemplates[o.selector.Pick(len(playingDumbTemplates))]
	default:
		return o.FallbackReply(phase)
	}
}

func (o *Orchestrator) buildPrompt(session *models.Session, gaps intelligenceGaps) string {
	profile := personaProfiles[session.Persona]
	strategy := phaseStrategies[session.Phase]

	var history strings.Builder
	turns := session.LastTurns(5)
	for _, t := range turns {
		fmt.Fprintf(&history, "%s: %s\n", strings.ToUpper(string(t.Role)), t.Text)
	}
	historyText := strings.TrimRight(history.String(), "\n")
	if historyText == "" {
		historyText = "Just starting"
	}

	var goals []string
	if gaps.NeedsUPI {
		goals = append(goals, "Get the scammer's UPI ID")
	}
	if gaps.NeedsBank {
		goals = append(goals, "Get the scammer's bank account number and IFSC code")
	}
	goalsText := "Continue engaging naturally"
	if len(goals) > 0 {
		goalsText = strings.Join(goals, ", ")
	}

	return fmt.Sprintf(`You are roleplaying as a %s in a conversation with a suspected scammer.

PERSONA: %s
Speech style: %s

CURRENT PHASE: %s
GOAL: %s

CONVERSATION SO FAR:
%s

WHAT TO DO: %s
INTELLIGENCE GOAL: %s

CRITICAL INSTRUCTIONS:
1. Stay in character - sound like a real %s
2. Keep responses natural, 1-3 sentences
3. If in EXTRACTING_INTEL phase, actively ask for payment details:
   - Ask for UPI ID if you don't have it
   - Ask for bank account + IFSC if UPI doesn't work
   - Ask for phone number "in case there's a problem"
   - Ask for BACKUP payment methods ("what if this doesn't work?")
4. Show willingness to pay but need the details
5. Never break character

Generate ONLY your next response as this character.`,
		profile.Name,
		profile.Description,
		profile.SpeechStyle,
		strings.ToUpper(string(session.Phase)),
		strategy.Goal,
		historyText,
		strategy.Instruction,
		goalsText,
		profile.Name,
	)
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}
