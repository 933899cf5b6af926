package lint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func issuesByRule(result *Result, rule string) []Issue {
	var out []Issue
	for _, issue := range result.Issues {
		if issue.Rule == rule {
			out = append(out, issue)
		}
	}
	return out
}

func TestLinter_CleanTree(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "---\ntitle: A\ndate: 2024-01-01\ntags: [x]\n---\nSee [b](b.md).\n")
	writeDoc(t, dir, "b.md", "---\ntitle: B\ndate: 2024-01-02\n---\nBody.\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesTotal)
	require.Empty(t, result.Issues)
}

func TestLinter_MissingHeaderIsWarning(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "bare.md", "# Just text\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	require.False(t, result.HasErrors())
	require.True(t, result.HasWarnings())
	require.Len(t, issuesByRule(result, RuleHeader), 1)
}

func TestLinter_UnterminatedHeaderIsError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "broken.md", "---\ntitle: Broken\n# never closed\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	require.Len(t, issuesByRule(result, RuleHeader), 1)
}

func TestLinter_MissingTitleAndDate(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "note.md", "---\ntags: [misc]\n---\nBody.\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	require.False(t, result.HasErrors())
	require.Len(t, issuesByRule(result, RuleTitle), 1)
	require.Len(t, issuesByRule(result, RuleDate), 1)
}

func TestLinter_BrokenInternalLink(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "posts/a.md", "---\ntitle: A\ndate: 2024-01-01\n---\n[gone](missing.md) and [up](../b.md)\n")
	writeDoc(t, dir, "b.md", "---\ntitle: B\ndate: 2024-01-01\n---\nok\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	links := issuesByRule(result, RuleInternalLinks)
	require.Len(t, links, 1)
	require.Contains(t, links[0].Message, "missing.md")
	require.Equal(t, filepath.Join("posts", "a.md"), links[0].Path)
}

func TestLinter_ExternalLinksIgnored(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md",
		"---\ntitle: A\ndate: 2024-01-01\n---\n[ext](https://example.com/x.md) [anchor](#top) ![img](logo.png)\n")

	result, err := NewLinter(dir).Run()
	require.NoError(t, err)
	require.Empty(t, issuesByRule(result, RuleInternalLinks))
}

func TestLinter_CheckOutput(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"),
		[]byte(`<a href="/posts/hello/">hello</a><a href="/gone/">gone</a>`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(out, "posts", "hello"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(out, "posts", "hello", "index.html"), []byte("<p>hi</p>"), 0o600))

	result, err := NewLinter("").CheckOutput(out)
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	require.Len(t, issuesByRule(result, RuleOutputLinks), 1)
	require.Contains(t, result.Issues[0].Message, "/gone/")
}

func TestFormat_Text(t *testing.T) {
	result := &Result{FilesTotal: 3}
	result.add(Issue{Path: "a.md", Severity: SeverityError, Rule: RuleHeader, Message: "bad header"})
	result.add(Issue{Path: "b.md", Severity: SeverityWarning, Rule: RuleDate, Message: "missing date"})

	var sb strings.Builder
	require.NoError(t, Format(&sb, result, "text", false))
	out := sb.String()
	require.Contains(t, out, "ERROR: a.md")
	require.Contains(t, out, "WARNING: b.md")
	require.Contains(t, out, "3 files checked, 1 errors, 1 warnings")

	sb.Reset()
	require.NoError(t, Format(&sb, result, "text", true))
	require.NotContains(t, sb.String(), "WARNING")
}

func TestFormat_JSON(t *testing.T) {
	result := &Result{FilesTotal: 1}
	result.add(Issue{Path: "a.md", Severity: SeverityError, Rule: RuleTags, Message: "empty tag entry"})

	var sb strings.Builder
	require.NoError(t, Format(&sb, result, "json", false))
	require.Contains(t, sb.String(), `"rule": "metadata-tags"`)
	require.Contains(t, sb.String(), `"level": "ERROR"`)
}
