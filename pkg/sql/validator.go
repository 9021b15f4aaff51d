// Package sql statically validates generated queries before they reach
// the execution gateway: read-only enforcement, multiple statement
// detection, identifier checks against the dataset schema, and
// injection fingerprinting of string literals.
package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

var (
	// forbiddenPattern matches statement keywords that can never appear
	// in a generated query, anywhere, including inside CTEs.
	forbiddenPattern = regexp.MustCompile(`(?i)\b(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE|REPLACE|GRANT|REVOKE)\b`)

	tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	ctePattern      = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_]*)\s+AS\s*\(`)
)

// Validate runs every static check and returns all issues found, so a
// single correction prompt can carry the full picture. A nil schema
// skips identifier checks only.
func Validate(query string, schema *models.SchemaContext) []models.ValidationIssue {
	var issues []models.ValidationIssue

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []models.ValidationIssue{{
			Kind:    models.IssueEmptySQL,
			Message: "generated SQL is empty",
		}}
	}

	scanned := scan(trimmed)

	if issue := checkReadOnly(scanned); issue != nil {
		issues = append(issues, *issue)
	}
	if issue := checkSingleStatement(scanned); issue != nil {
		issues = append(issues, *issue)
	}
	if schema != nil {
		issues = append(issues, checkIdentifiers(scanned, schema)...)
	}
	issues = append(issues, checkInjection(scanned)...)

	return issues
}

// checkReadOnly enforces that the statement starts with SELECT or WITH
// and contains no modifying keyword anywhere outside string literals.
func checkReadOnly(s *scanResult) *models.ValidationIssue {
	normalized := strings.ToUpper(strings.TrimSpace(s.masked))

	if !strings.HasPrefix(normalized, "SELECT") && !strings.HasPrefix(normalized, "WITH") {
		return &models.ValidationIssue{
			Kind:    models.IssueForbiddenStatement,
			Message: "only SELECT statements are allowed (query must start with SELECT or WITH)",
		}
	}

	if kw := forbiddenPattern.FindString(s.masked); kw != "" {
		return &models.ValidationIssue{
			Kind:    models.IssueForbiddenStatement,
			Message: fmt.Sprintf("forbidden keyword %s in query", strings.ToUpper(kw)),
		}
	}

	return nil
}

// checkSingleStatement rejects stacked statements. A trailing semicolon
// with nothing after it is tolerated.
func checkSingleStatement(s *scanResult) *models.ValidationIssue {
	for _, pos := range s.semicolons {
		rest := strings.TrimSpace(s.masked[pos+1:])
		if rest != "" {
			return &models.ValidationIssue{
				Kind:    models.IssueMultipleStatements,
				Message: "multiple SQL statements are not allowed",
			}
		}
	}
	return nil
}

// checkIdentifiers verifies that quoted identifiers and FROM/JOIN
// targets refer to known columns, the dataset table, or CTEs defined in
// the query itself.
func checkIdentifiers(s *scanResult, schema *models.SchemaContext) []models.ValidationIssue {
	known := map[string]bool{strings.ToLower(schema.TableName): true}
	for _, name := range schema.ColumnNames() {
		known[strings.ToLower(name)] = true
	}
	for _, m := range ctePattern.FindAllStringSubmatch(s.masked, -1) {
		known[strings.ToLower(m[1])] = true
	}

	var issues []models.ValidationIssue
	seen := map[string]bool{}

	report := func(name, what string) {
		lower := strings.ToLower(name)
		if known[lower] || seen[lower] {
			return
		}
		seen[lower] = true
		issues = append(issues, models.ValidationIssue{
			Kind:    models.IssueUnknownIdentifier,
			Message: fmt.Sprintf("unknown %s %q (not present in dataset schema)", what, name),
		})
	}

	for _, ident := range s.quotedIdents {
		// Qualified references keep only the final segment.
		if idx := strings.LastIndex(ident, "."); idx != -1 {
			ident = ident[idx+1:]
		}
		report(ident, "identifier")
	}

	for _, m := range tableRefPattern.FindAllStringSubmatch(s.masked, -1) {
		name := m[1]
		if idx := strings.LastIndex(name, "."); idx != -1 {
			name = name[idx+1:]
		}
		report(name, "table")
	}

	return issues
}

// scanResult is the outcome of one quote-aware pass over the query.
type scanResult struct {
	// masked is the query with string literal and quoted identifier
	// contents blanked out, safe for keyword and structure matching.
	masked string
	// literals holds the contents of single-quoted string literals.
	literals []string
	// quotedIdents holds the contents of double-quoted identifiers.
	quotedIdents []string
	// semicolons are byte offsets of statement separators in masked.
	semicolons []int
}

// scan walks the query once, tracking quote and comment state. Escaped
// quotes ('' and "") stay inside their token.
func scan(query string) *scanResult {
	res := &scanResult{}
	var masked strings.Builder
	var token strings.Builder

	const (
		stateNormal = iota
		stateSingle
		stateDouble
		stateLineComment
		stateBlockComment
	)
	state := stateNormal

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch state {
		case stateNormal:
			switch {
			case ch == '\'':
				state = stateSingle
				token.Reset()
				masked.WriteRune(' ')
			case ch == '"':
				state = stateDouble
				token.Reset()
				masked.WriteRune(' ')
			case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
				state = stateLineComment
				masked.WriteRune(' ')
			case ch == '/' && i+1 < len(runes) && runes[i+1] == '*':
				state = stateBlockComment
				masked.WriteRune(' ')
			case ch == ';':
				res.semicolons = append(res.semicolons, masked.Len())
				masked.WriteRune(ch)
			default:
				masked.WriteRune(ch)
			}
		case stateSingle:
			if ch == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					token.WriteRune('\'')
					i++
					continue
				}
				res.literals = append(res.literals, token.String())
				state = stateNormal
			} else {
				token.WriteRune(ch)
			}
			masked.WriteRune(' ')
		case stateDouble:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					token.WriteRune('"')
					i++
					continue
				}
				res.quotedIdents = append(res.quotedIdents, token.String())
				state = stateNormal
			} else {
				token.WriteRune(ch)
			}
			masked.WriteRune(' ')
		case stateLineComment:
			if ch == '\n' {
				state = stateNormal
			}
			masked.WriteRune(' ')
		case stateBlockComment:
			if ch == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				state = stateNormal
				i++
				masked.WriteRune(' ')
			}
			masked.WriteRune(' ')
		}
	}

	res.masked = masked.String()
	return res
}
