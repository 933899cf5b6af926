// Package markdown provides analysis helpers over Markdown bodies. Rendering
// is delegated to the external generator; this package only inspects.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

// Link is a link-like construct found in a Markdown body.
type Link struct {
	Kind        LinkKind
	Destination string
}

// ExtractLinks parses a Markdown body (frontmatter already removed) and
// returns all link destinations in document order.
func ExtractLinks(body []byte) ([]Link, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Reference-style links resolve to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}
