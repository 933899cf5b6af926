// Package linkcheck scans generated HTML artifacts for internal links that do
// not resolve inside the output tree.
package linkcheck

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is a reference extracted from a generated HTML artifact.
type Link struct {
	URL       string // href/src value as written
	Tag       string // HTML tag (a, img, script, link)
	Attribute string // attribute containing the reference
	Internal  bool   // true when the link targets the site itself
}

// linkAttributes maps tags to the attribute carrying their reference.
var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
}

// ExtractLinks parses an HTML document and returns all link references.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttributes[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key != attr || a.Val == "" {
						continue
					}
					links = append(links, Link{
						URL:       a.Val,
						Tag:       n.Data,
						Attribute: attr,
						Internal:  isInternal(a.Val),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func isInternal(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "" || u.Host != "" {
		return false
	}
	// Pure fragments reference the current page.
	return u.Path != ""
}

// Broken describes an internal link whose target does not exist in the
// output tree.
type Broken struct {
	Source string // artifact containing the link, relative to the output tree
	Target string // link destination as written
}

// htmlExtensions are artifact extensions scanned for links.
var htmlExtensions = map[string]bool{".html": true, ".htm": true}

// ScanOutputTree walks the output tree, extracts internal links from every
// HTML artifact, and reports those that do not resolve to a file or
// directory inside the tree.
func ScanOutputTree(outputDir string) ([]Broken, error) {
	var broken []Broken
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !htmlExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		f, openErr := os.Open(filepath.Clean(path))
		if openErr != nil {
			return openErr
		}
		links, parseErr := ExtractLinks(f)
		_ = f.Close()
		if parseErr != nil {
			return fmt.Errorf("%s: %w", path, parseErr)
		}
		rel, relErr := filepath.Rel(outputDir, path)
		if relErr != nil {
			return relErr
		}
		for _, l := range links {
			if !l.Internal {
				continue
			}
			if !resolves(outputDir, filepath.Dir(path), l.URL) {
				broken = append(broken, Broken{Source: rel, Target: l.URL})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan output tree: %w", err)
	}
	return broken, nil
}

// resolves reports whether an internal link target exists under the output
// tree, either as a file or as a directory (pretty URLs map to dir/index.html).
func resolves(outputDir, sourceDir, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := u.Path
	var candidate string
	if strings.HasPrefix(p, "/") {
		candidate = filepath.Join(outputDir, filepath.FromSlash(p))
	} else {
		candidate = filepath.Join(sourceDir, filepath.FromSlash(p))
	}
	info, err := os.Stat(candidate)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(candidate, "index.html"))
		return err == nil
	}
	return true
}
