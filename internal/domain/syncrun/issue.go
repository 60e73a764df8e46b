package syncrun

import "fmt"

// Issue kinds recorded against individual rows
const (
	IssueRowSkipped            = "ROW_SKIPPED"
	IssueRowError              = "ROW_ERROR"
	IssueBarcodeConflict       = "BARCODE_CONFLICT"
	IssueReferentialProtection = "REFERENTIAL_PROTECTION"
	IssueMultiValueBarcode     = "MULTI_VALUE_BARCODE"
	IssueDuplicateRow          = "DUPLICATE_ROW"
)

// DefaultMaxIssues caps the issues kept per run when no limit is configured
const DefaultMaxIssues = 100

// Issue is a non-fatal finding about one row or item
type Issue struct {
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// String formats the issue for logs
func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d, code '%s': %s", i.Line, i.Code, i.Message)
	}
	return fmt.Sprintf("code '%s': %s", i.Code, i.Message)
}

// IssueLog keeps the first issues of a run and counts the rest
type IssueLog struct {
	issues     []Issue
	maxIssues  int
	totalCount int
}

// NewIssueLog creates an IssueLog keeping at most maxIssues entries
func NewIssueLog(maxIssues int) *IssueLog {
	if maxIssues <= 0 {
		maxIssues = DefaultMaxIssues
	}
	return &IssueLog{
		issues:    make([]Issue, 0),
		maxIssues: maxIssues,
	}
}

// Add records an issue
func (l *IssueLog) Add(issue Issue) {
	l.totalCount++
	if len(l.issues) < l.maxIssues {
		l.issues = append(l.issues, issue)
	}
}

// Addf records an issue with a formatted message
func (l *IssueLog) Addf(line int, code, kind, format string, args ...any) {
	l.Add(Issue{Line: line, Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// mark returns the log position for a later rewind
func (l *IssueLog) mark() (kept, total int) {
	return len(l.issues), l.totalCount
}

// rewind drops every issue recorded after mark
func (l *IssueLog) rewind(kept, total int) {
	if kept < len(l.issues) {
		l.issues = l.issues[:kept]
	}
	l.totalCount = total
}

// Issues returns the kept issues
func (l *IssueLog) Issues() []Issue {
	return l.issues
}

// TotalCount returns the number of issues including those not kept
func (l *IssueLog) TotalCount() int {
	return l.totalCount
}

// IsTruncated reports whether issues were dropped due to the limit
func (l *IssueLog) IsTruncated() bool {
	return l.totalCount > l.maxIssues
}

// Summary counts kept issues by kind
func (l *IssueLog) Summary() map[string]int {
	summary := make(map[string]int)
	for _, issue := range l.issues {
		summary[issue.Kind]++
	}
	return summary
}
