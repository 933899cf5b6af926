// Package content walks the content tree and builds the document model the
// pipeline reports and lints against. The pipeline never mutates the content
// tree; it is authored externally.
package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitepub/internal/frontmatter"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// Document is a single source document with its parsed metadata header.
type Document struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the content directory
	Title        string
	Date         time.Time
	Tags         []string
	Draft        bool
	Body         []byte
	HeaderErr    error // Non-nil when the header failed to parse; document still listed
}

// markdownExtensions are the file extensions treated as documents.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

var titleCaser = cases.Title(language.English)

// Scan walks dir and returns all documents in deterministic (path) order.
// Header parse failures are recorded on the document rather than aborting the
// scan, so lint can report every problem in one pass.
func Scan(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", dir)
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.git, .obsidian, ...) are not content.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !markdownExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		doc, loadErr := load(path, rel)
		if loadErr != nil {
			return loadErr
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan content tree: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	slog.Debug("Content tree scanned", logfields.Path(dir), slog.Int("documents", len(docs)))
	return docs, nil
}

func load(path, rel string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document %s: %w", rel, err)
	}

	doc := Document{Path: path, RelativePath: rel}

	header, body, had, err := frontmatter.Split(raw)
	if err != nil {
		doc.Body = raw
		doc.HeaderErr = err
		doc.Title = TitleFromFilename(rel)
		slog.Warn("Malformed document header", logfields.Document(rel), logfields.Error(err))
		return doc, nil
	}
	doc.Body = body
	if had {
		meta, parseErr := frontmatter.Parse(header)
		if parseErr != nil {
			doc.HeaderErr = parseErr
			slog.Warn("Malformed document header", logfields.Document(rel), logfields.Error(parseErr))
		} else {
			doc.Title = meta.Title
			doc.Date = meta.Date
			doc.Tags = meta.Tags
			doc.Draft = meta.Draft
		}
	}
	if doc.Title == "" {
		doc.Title = TitleFromFilename(rel)
	}
	return doc, nil
}

// TitleFromFilename derives a display title from a document path:
// "posts/my-first-post.md" becomes "My First Post".
func TitleFromFilename(rel string) string {
	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(base)
}

// Summary aggregates counts used by the status command.
type Summary struct {
	Documents int
	Drafts    int
	Tags      map[string]int
}

// Summarize computes aggregate counts over a scanned document set.
func Summarize(docs []Document) Summary {
	s := Summary{Tags: map[string]int{}}
	for _, d := range docs {
		s.Documents++
		if d.Draft {
			s.Drafts++
		}
		for _, tag := range d.Tags {
			s.Tags[tag]++
		}
	}
	return s
}
