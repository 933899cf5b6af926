// Package frontmatter splits and parses the YAML metadata header carried at
// the top of every content document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// header delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

var delimiter = []byte("---")

// Split separates the `---` delimited YAML header from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := append(append([]byte{}, delimiter...), nl...)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty header block.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := append(append(append([]byte{}, nl...), delimiter...), nl...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	header = rest[:idx+len(nl)]
	body = rest[idx+len(closeSeq):]
	return header, body, true, nil
}

// Meta is the typed metadata carried by a document header. Fields the
// pipeline does not interpret are preserved in Extra.
type Meta struct {
	Title string
	Date  time.Time
	Tags  []string
	Draft bool
	Extra map[string]any
}

// Known header keys interpreted by Parse.
const (
	keyTitle = "title"
	keyDate  = "date"
	keyTags  = "tags"
	keyDraft = "draft"
)

// dateLayouts are accepted header date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse decodes raw YAML header bytes (without delimiters) into Meta.
func Parse(header []byte) (Meta, error) {
	meta := Meta{Extra: map[string]any{}}
	if len(header) == 0 {
		return meta, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return meta, fmt.Errorf("parse header: %w", err)
	}

	for k, v := range fields {
		switch k {
		case keyTitle:
			if s, ok := v.(string); ok {
				meta.Title = s
			} else {
				return meta, fmt.Errorf("header field %q must be a string, got %T", keyTitle, v)
			}
		case keyDate:
			d, err := parseDate(v)
			if err != nil {
				return meta, err
			}
			meta.Date = d
		case keyTags:
			tags, err := parseTags(v)
			if err != nil {
				return meta, err
			}
			meta.Tags = tags
		case keyDraft:
			if b, ok := v.(bool); ok {
				meta.Draft = b
			} else {
				return meta, fmt.Errorf("header field %q must be a bool, got %T", keyDraft, v)
			}
		default:
			meta.Extra[k] = v
		}
	}
	return meta, nil
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		// yaml.v3 decodes ISO timestamps natively.
		return d, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("header field %q: unrecognized date %q", keyDate, d)
	default:
		return time.Time{}, fmt.Errorf("header field %q must be a date, got %T", keyDate, v)
	}
}

func parseTags(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("header field %q must be a list, got %T", keyTags, v)
	}
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("header field %q entries must be strings, got %T", keyTags, item)
		}
		tags = append(tags, s)
	}
	return tags, nil
}

func detectNewline(content []byte) []byte {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return []byte("\r\n")
		}
		if content[i] == '\n' {
			return []byte("\n")
		}
	}
	return []byte("\n")
}
