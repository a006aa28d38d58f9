// Package classifier assigns a case profile to free-form message text using
// keyword rules. It is a pure function so callers can swap it for a smarter
// classifier without touching ingestion.
package classifier

import (
	"regexp"
	"strings"

	"gitlab.com/migralia/api/expediente-docs-service/internal/model"
)

// ClassifyFunc is the signature ingestion depends on.
type ClassifyFunc func(text string) model.CaseProfile

var keywordPatterns = []struct {
	profile model.CaseProfile
	pattern *regexp.Regexp
}{
	{model.CaseProfileAsylum, regexp.MustCompile(`\basilo\b`)},
	{model.CaseProfileArraigo, regexp.MustCompile(`\barraigo\b`)},
	{model.CaseProfileStudent, regexp.MustCompile(`\bestudiante\b`)},
	{model.CaseProfileIrregular, regexp.MustCompile(`\birregular\b`)},
}

// Classify returns the case profile matching the first keyword found in the
// text, or CaseProfileOther when nothing matches.
func Classify(text string) model.CaseProfile {
	if text == "" {
		return model.CaseProfileOther
	}

	lowered := strings.ToLower(text)
	for _, kp := range keywordPatterns {
		if kp.pattern.MatchString(lowered) {
			return kp.profile
		}
	}
	return model.CaseProfileOther
}
