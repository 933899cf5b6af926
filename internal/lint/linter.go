package lint

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepub/internal/content"
	"git.home.luguber.info/inful/sitepub/internal/frontmatter"
	"git.home.luguber.info/inful/sitepub/internal/linkcheck"
	"git.home.luguber.info/inful/sitepub/internal/markdown"
)

const (
	RuleHeader        = "metadata-header"
	RuleTitle         = "metadata-title"
	RuleDate          = "metadata-date"
	RuleTags          = "metadata-tags"
	RuleInternalLinks = "internal-links"
	RuleOutputLinks   = "output-links"
)

// Linter checks a content tree for publish-blocking problems.
type Linter struct {
	contentDir string
}

func NewLinter(contentDir string) *Linter {
	return &Linter{contentDir: contentDir}
}

// Run lints every document under the content tree.
func (l *Linter) Run() (*Result, error) {
	docs, err := content.Scan(l.contentDir)
	if err != nil {
		return nil, err
	}

	result := &Result{FilesTotal: len(docs)}
	exists := make(map[string]bool, len(docs))
	for _, d := range docs {
		exists[filepath.ToSlash(d.RelativePath)] = true
	}

	for _, d := range docs {
		l.checkHeader(result, d)
		l.checkLinks(result, d, exists)
	}
	return result, nil
}

// CheckOutput scans a generated output tree for broken internal links. Run
// this after a build to catch links the generator rewrote into nothing.
func (l *Linter) CheckOutput(outputDir string) (*Result, error) {
	broken, err := linkcheck.ScanOutputTree(outputDir)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	for _, b := range broken {
		result.add(Issue{
			Path:     b.Source,
			Severity: SeverityError,
			Rule:     RuleOutputLinks,
			Message:  fmt.Sprintf("broken internal link %q", b.Target),
		})
	}
	return result, nil
}

func (l *Linter) checkHeader(result *Result, d content.Document) {
	if d.HeaderErr != nil {
		result.add(Issue{
			Path:     d.RelativePath,
			Severity: SeverityError,
			Rule:     RuleHeader,
			Message:  d.HeaderErr.Error(),
		})
		return
	}

	// The scanner falls back to a filename-derived title; a real header
	// title is still expected.
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		result.add(Issue{Path: d.RelativePath, Severity: SeverityError, Rule: RuleHeader, Message: err.Error()})
		return
	}
	header, _, had, err := frontmatter.Split(raw)
	if err != nil || !had {
		result.add(Issue{
			Path:     d.RelativePath,
			Severity: SeverityWarning,
			Rule:     RuleHeader,
			Message:  "document has no metadata header",
		})
		return
	}
	meta, err := frontmatter.Parse(header)
	if err != nil {
		result.add(Issue{Path: d.RelativePath, Severity: SeverityError, Rule: RuleHeader, Message: err.Error()})
		return
	}

	if strings.TrimSpace(meta.Title) == "" {
		result.add(Issue{
			Path:     d.RelativePath,
			Severity: SeverityWarning,
			Rule:     RuleTitle,
			Message:  "missing title, falling back to filename",
		})
	}
	if meta.Date.IsZero() {
		result.add(Issue{
			Path:     d.RelativePath,
			Severity: SeverityWarning,
			Rule:     RuleDate,
			Message:  "missing or unparseable date",
		})
	}
	for _, tag := range meta.Tags {
		if strings.TrimSpace(tag) == "" {
			result.add(Issue{
				Path:     d.RelativePath,
				Severity: SeverityError,
				Rule:     RuleTags,
				Message:  "empty tag entry",
			})
		}
	}
}

func (l *Linter) checkLinks(result *Result, d content.Document, exists map[string]bool) {
	links, err := markdown.ExtractLinks(d.Body)
	if err != nil {
		result.add(Issue{Path: d.RelativePath, Severity: SeverityError, Rule: RuleInternalLinks, Message: err.Error()})
		return
	}

	for _, link := range links {
		target, ok := relativeDocTarget(link)
		if !ok {
			continue
		}
		resolved := resolveLink(d.RelativePath, target)
		if !exists[resolved] {
			result.add(Issue{
				Path:     d.RelativePath,
				Severity: SeverityError,
				Rule:     RuleInternalLinks,
				Message:  fmt.Sprintf("link target %q does not exist", target),
			})
		}
	}
}

// relativeDocTarget filters out external, anchor-only, and non-document links.
func relativeDocTarget(link markdown.Link) (string, bool) {
	if link.Kind == markdown.LinkKindAuto {
		return "", false
	}
	dest := link.Destination
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	if u, err := url.Parse(dest); err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	dest, _, _ = strings.Cut(dest, "#")
	ext := strings.ToLower(filepath.Ext(dest))
	if ext != ".md" && ext != ".markdown" {
		return "", false
	}
	return dest, true
}

func resolveLink(fromRel, target string) string {
	if strings.HasPrefix(target, "/") {
		return filepath.ToSlash(filepath.Clean(strings.TrimPrefix(target, "/")))
	}
	return filepath.ToSlash(filepath.Clean(filepath.Join(filepath.Dir(fromRel), target)))
}
