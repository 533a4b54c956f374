package document

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/internal/fileutil"
)

// Tree is a parsed XML document. It backs the tree walker and exposes the
// element-level access the verse validator needs.
type Tree struct {
	root *xmlquery.Node
}

// ParseTree parses XML data, accepting the same encodings as the other
// containers.
func ParseTree(data []byte) (*Tree, error) {
	root, err := xmlquery.Parse(strings.NewReader(fileutil.DecodeText(data)))
	if err != nil {
		return nil, &errors.FormatError{Format: "xml", Message: "malformed document", Err: err}
	}
	return &Tree{root: root}, nil
}

// Elements returns the elements whose local name matches tag, in document
// order. Namespace prefixes on the document side are ignored.
func (t *Tree) Elements(tag string) []*Element {
	nodes := xmlquery.Find(t.root, fmt.Sprintf("//*[local-name()='%s']", tag))
	els := make([]*Element, len(nodes))
	for i, n := range nodes {
		els[i] = &Element{node: n}
	}
	return els
}

// Bytes serializes the document.
func (t *Tree) Bytes() ([]byte, error) {
	var sb strings.Builder
	for child := t.root.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(child.OutputXML(true))
	}
	return []byte(sb.String()), nil
}

// Element is one element node of a Tree.
type Element struct {
	node *xmlquery.Node
}

// Attr returns the value of the named attribute, or "". The name matches
// either the local name or the prefixed form, so "xml:id" and "id" both
// reach an xml:id attribute.
func (e *Element) Attr(name string) string {
	for _, a := range e.node.Attr {
		if a.Name.Local == name {
			return a.Value
		}
		if a.Name.Space != "" && a.Name.Space+":"+a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Elements returns the descendant elements whose local name matches tag,
// in document order.
func (e *Element) Elements(tag string) []*Element {
	nodes := xmlquery.Find(e.node, fmt.Sprintf(".//*[local-name()='%s']", tag))
	els := make([]*Element, len(nodes))
	for i, n := range nodes {
		els[i] = &Element{node: n}
	}
	return els
}

// Text returns the concatenated text content of the element, skipping the
// subtrees of any descendant element whose local name is in exclude.
func (e *Element) Text(exclude ...string) string {
	var sb strings.Builder
	collectText(e.node, exclude, &sb)
	return sb.String()
}

func collectText(n *xmlquery.Node, exclude []string, sb *strings.Builder) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode:
			sb.WriteString(child.Data)
		case xmlquery.ElementNode:
			if excluded(child.Data, exclude) {
				continue
			}
			collectText(child, exclude, sb)
		}
	}
}

func excluded(name string, exclude []string) bool {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	for _, x := range exclude {
		if name == x {
			return true
		}
	}
	return false
}

// SetText replaces the element's content with a single text node. Any
// child elements are dropped.
func (e *Element) SetText(text string) {
	tn := &xmlquery.Node{
		Type:   xmlquery.TextNode,
		Data:   text,
		Parent: e.node,
	}
	e.node.FirstChild = tn
	e.node.LastChild = tn
}

// treeWalker walks every text node under the elements matching the target
// tag. Attributes, element structure, and text outside the matched
// elements round-trip unchanged.
type treeWalker struct {
	tree  *Tree
	texts []*xmlquery.Node
}

func newTreeWalker(data []byte) (*treeWalker, error) {
	tree, err := ParseTree(data)
	if err != nil {
		return nil, err
	}
	return &treeWalker{tree: tree}, nil
}

func (w *treeWalker) Extract(target string) ([]TextUnit, error) {
	if target == "" {
		return nil, errors.NewValidation("bodyTagName", "must not be empty")
	}
	els := w.tree.Elements(target)
	if len(els) == 0 {
		return nil, errors.NewFormat("xml", fmt.Sprintf("tag %q", target), "tag not found")
	}

	w.texts = w.texts[:0]
	seen := make(map[*xmlquery.Node]bool)
	var units []TextUnit
	for i, el := range els {
		j := 0
		walkTextNodes(el.node, func(tn *xmlquery.Node) {
			if seen[tn] {
				return
			}
			seen[tn] = true
			j++
			w.texts = append(w.texts, tn)
			units = append(units, TextUnit{
				Location: fmt.Sprintf("tag %q occurrence %d, text %d", target, i+1, j),
				Text:     tn.Data,
			})
		})
	}
	return units, nil
}

func walkTextNodes(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode:
			fn(child)
		case xmlquery.ElementNode:
			walkTextNodes(child, fn)
		}
	}
}

func (w *treeWalker) Reinject(units []TextUnit) error {
	if len(units) != len(w.texts) {
		return errors.NewValidation("units",
			fmt.Sprintf("got %d units for %d text nodes", len(units), len(w.texts)))
	}
	for i, u := range units {
		w.texts[i].Data = u.Text
	}
	return nil
}

func (w *treeWalker) Bytes() ([]byte, error) {
	return w.tree.Bytes()
}
