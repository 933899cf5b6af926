package lint

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format writes a lint result in the requested format ("text" or "json").
// Quiet suppresses warnings in text output.
func Format(w io.Writer, result *Result, format string, quiet bool) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, issue := range result.Issues {
		if quiet && issue.Severity != SeverityError {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s [%s] %s\n", issue.Severity, issue.Path, issue.Rule, issue.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d files checked, %d errors, %d warnings\n",
		result.FilesTotal, result.ErrorCount(), result.WarningCount())
	return err
}
