// Package xmltree provides a read-only view over parsed article XML.
//
// A Node wraps one element of an etree document and exposes the three
// capabilities the extraction engine needs: descendant lookup by an
// XPath-like selector, access to an element's own text and attributes,
// and rendering of the full text-fragment sequence of a subtree.
package xmltree

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Node is a read-only handle to one parsed XML subtree, typically the
// element representing a single article. The underlying tree is owned
// by the caller and is never mutated through a Node.
type Node struct {
	el *etree.Element
}

// Parse parses raw XML bytes and returns a Node for the document root.
func Parse(data []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse xml: document has no root element")
	}
	return &Node{el: root}, nil
}

// Wrap wraps an existing etree element. Returns nil for a nil element
// so that chained lookups degrade to "not found" rather than panicking.
func Wrap(el *etree.Element) *Node {
	if el == nil {
		return nil
	}
	return &Node{el: el}
}

// Tag returns the element's local tag name.
func (n *Node) Tag() string {
	return n.el.Tag
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(key string) string {
	return n.el.SelectAttrValue(key, "")
}

// Text returns the element's own leading text: the character data that
// appears before its first child element. Inline markup interrupts this
// text; use RenderedText to recover the full fragment sequence.
func (n *Node) Text() string {
	return n.el.Text()
}

// Find returns the first descendant matching the selector, or nil.
// A malformed selector panics; selectors are part of the program, not
// of the input data.
func (n *Node) Find(selector string) *Node {
	return Wrap(n.el.FindElement(selector))
}

// FindAll returns every descendant matching the selector, in document
// order. The result is empty (never nil-panicking) when nothing matches.
func (n *Node) FindAll(selector string) []*Node {
	els := n.el.FindElements(selector)
	nodes := make([]*Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &Node{el: el})
	}
	return nodes
}

// Children returns the direct child elements in document order.
func (n *Node) Children() []*Node {
	els := n.el.ChildElements()
	nodes := make([]*Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &Node{el: el})
	}
	return nodes
}

// RenderedText returns the space-joined sequence of every text fragment
// in the subtree, in document order, with each fragment trimmed of
// leading and trailing whitespace. Fragments that trim to nothing are
// dropped. This recovers text that inline markup (citation markers,
// italics, formatting spans) splits across element boundaries: a title
// stored as "Intro<xref/>duction" renders as "Intro duction".
func (n *Node) RenderedText() string {
	var fragments []string
	collectFragments(n.el, &fragments)
	return strings.Join(fragments, " ")
}

func collectFragments(el *etree.Element, out *[]string) {
	for _, child := range el.Child {
		switch token := child.(type) {
		case *etree.CharData:
			if text := strings.TrimSpace(token.Data); text != "" {
				*out = append(*out, text)
			}
		case *etree.Element:
			collectFragments(token, out)
		}
	}
}

// String returns the XML serialization of the subtree. Used only for
// debug output; records keep the Node itself for lossless access.
func (n *Node) String() string {
	doc := etree.NewDocument()
	doc.SetRoot(n.el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return fmt.Sprintf("<%s>", n.el.Tag)
	}
	return strings.TrimSpace(s)
}
