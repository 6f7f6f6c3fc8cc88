package services

import (
	"strings"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// SignalSet holds the boolean flags produced by signal extraction. Flags are
// independent; a text may match several tiers at once.
type SignalSet struct {
	UrgencyCritical bool
	UrgencyHigh     bool
	UrgencyMedium   bool
	UrgencyLow      bool

	ImpactHigh   bool
	ImpactMedium bool
	ImpactLow    bool

	EffortQuick   bool
	EffortMedium  bool
	EffortComplex bool

	HasDependencies bool

	// Confidence grows with text length: min(len/100, 1).
	Confidence float64
}

// SignalDetector extracts scoring signals from task text. The keyword
// implementation below can be swapped for a real model without touching the
// engine.
type SignalDetector interface {
	Detect(t domain.TaskSnapshot) SignalSet
}

// Keyword lexicons. Matching is case-insensitive substring membership; the
// task text is folded once at ingestion.
var (
	urgencyCriticalTerms = []string{"urgent", "asap", "critical", "emergency", "immediately", "right away"}
	urgencyHighTerms     = []string{"important", "priority", "deadline", "due soon", "today"}
	urgencyMediumTerms   = []string{"soon", "this week", "upcoming"}
	urgencyLowTerms      = []string{"whenever", "someday", "eventually", "no rush"}

	impactHighTerms   = []string{"milestone", "launch", "exam", "interview", "presentation", "client", "submit"}
	impactMediumTerms = []string{"meeting", "review", "report", "assignment"}
	impactLowTerms    = []string{"organize", "tidy", "browse", "optional"}

	effortQuickTerms   = []string{"quick", "simple", "easy", "call", "email", "reply", "check"}
	effortMediumTerms  = []string{"draft", "prepare", "update", "plan"}
	effortComplexTerms = []string{"complex", "research", "design", "implement", "analyze", "refactor", "write up", "study"}

	dependencyTerms = []string{"after", "depends on", "blocked", "waiting for", "once", "requires"}
)

// KeywordSignalDetector classifies tasks by keyword-lexicon membership.
type KeywordSignalDetector struct{}

// NewKeywordSignalDetector creates the default detector.
func NewKeywordSignalDetector() *KeywordSignalDetector {
	return &KeywordSignalDetector{}
}

// Detect extracts all signal flags from a task's title and description.
func (d *KeywordSignalDetector) Detect(t domain.TaskSnapshot) SignalSet {
	text := t.Text()

	confidence := float64(len(text)) / 100
	if confidence > 1 {
		confidence = 1
	}

	return SignalSet{
		UrgencyCritical: containsAny(text, urgencyCriticalTerms),
		UrgencyHigh:     containsAny(text, urgencyHighTerms),
		UrgencyMedium:   containsAny(text, urgencyMediumTerms),
		UrgencyLow:      containsAny(text, urgencyLowTerms),

		ImpactHigh:   containsAny(text, impactHighTerms),
		ImpactMedium: containsAny(text, impactMediumTerms),
		ImpactLow:    containsAny(text, impactLowTerms),

		EffortQuick:   containsAny(text, effortQuickTerms),
		EffortMedium:  containsAny(text, effortMediumTerms),
		EffortComplex: containsAny(text, effortComplexTerms),

		HasDependencies: containsAny(text, dependencyTerms),

		Confidence: confidence,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
