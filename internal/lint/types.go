// Package lint validates source documents before a publish cycle: metadata
// headers, Markdown links between documents, and optionally the generated
// output tree.
package lint

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityWarning indicates issues worth fixing that do not block a publish.
	SeverityWarning Severity = iota
	// SeverityError indicates issues that make the document unpublishable.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single problem found in a document or output file.
type Issue struct {
	Path     string   `json:"path"`
	Severity Severity `json:"-"`
	Level    string   `json:"level"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// Result collects all issues found during a lint run.
type Result struct {
	Issues     []Issue `json:"issues"`
	FilesTotal int     `json:"files_total"`
}

func (r *Result) add(issue Issue) {
	issue.Level = issue.Severity.String()
	r.Issues = append(r.Issues, issue)
}

// HasErrors reports whether any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}
