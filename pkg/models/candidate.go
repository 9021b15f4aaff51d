package models

// ValidationIssueKind classifies a static validation failure.
type ValidationIssueKind string

const (
	IssueEmptySQL           ValidationIssueKind = "empty_sql"
	IssueForbiddenStatement ValidationIssueKind = "forbidden_statement"
	IssueMultipleStatements ValidationIssueKind = "multiple_statements"
	IssueUnknownIdentifier  ValidationIssueKind = "unknown_identifier"
	IssueInjectionPattern   ValidationIssueKind = "injection_pattern"
)

// ValidationIssue is one static validation failure on a candidate query.
type ValidationIssue struct {
	Kind    ValidationIssueKind `json:"kind"`
	Message string              `json:"message"`
}

// CandidateQuery is one attempt at the final SQL. Mutated only within
// the generation stage's retry loop; the accepted candidate becomes
// immutable input to later stages.
type CandidateQuery struct {
	SQL     string `json:"sql"`
	Attempt int    `json:"attempt"`

	ValidationErrors []ValidationIssue `json:"validation_errors,omitempty"`

	// Result is set when the candidate executed successfully. A result
	// with zero rows is still an accepted terminal state.
	Result *ResultSet `json:"result,omitempty"`

	// ExecErr holds the database error message when execution failed.
	ExecErr string `json:"execution_error,omitempty"`
}

// Accepted reports whether this candidate passed validation and
// executed without error.
func (c *CandidateQuery) Accepted() bool {
	return len(c.ValidationErrors) == 0 && c.ExecErr == "" && c.Result != nil
}

// FailureMessage returns the error text to feed back into the
// correction prompt. Validation errors take precedence over execution
// errors when both apply.
func (c *CandidateQuery) FailureMessage() string {
	if len(c.ValidationErrors) > 0 {
		msg := c.ValidationErrors[0].Message
		for _, issue := range c.ValidationErrors[1:] {
			msg += "; " + issue.Message
		}
		return msg
	}
	return c.ExecErr
}

// ColumnInfo describes a result column with its database type name.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultSet holds the rows returned by the execution gateway.
type ResultSet struct {
	Columns   []ColumnInfo     `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
	ElapsedMs int64            `json:"elapsed_ms"`
}

// Empty reports whether the query succeeded but matched no rows.
func (r *ResultSet) Empty() bool {
	return r != nil && r.RowCount == 0
}
