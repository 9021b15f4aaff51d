package sql

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// checkInjection runs libinjection over string literal contents. The
// structure of the query is already constrained by the other checks, so
// only attacker-controllable literal text needs fingerprinting.
func checkInjection(s *scanResult) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, literal := range s.literals {
		isSQLi, fingerprint := libinjection.IsSQLi(literal)
		if !isSQLi {
			continue
		}
		issues = append(issues, models.ValidationIssue{
			Kind: models.IssueInjectionPattern,
			Message: fmt.Sprintf("string literal %q matches SQL injection fingerprint %s",
				truncateLiteral(literal), string(fingerprint)),
		})
	}
	return issues
}

func truncateLiteral(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
