package parser

import (
	"encoding/json"
	"encoding/xml"
	"strings"
)

// Node is a generic, tagged representation of one XML element and its
// subtree. UniProt's comment/feature/evidence shapes are deeply nested and
// irregular, so rather than modeling every variant with its own struct we
// capture the raw tree once and project it into the JSON blob shape the
// loader stores (spec: tagged variant, not an untyped map).
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []Node     `xml:",any"`
}

// Tag returns the element's local name with any namespace prefix stripped.
func (n Node) Tag() string {
	return n.XMLName.Local
}

// Attr returns the value of the named attribute, ignoring namespace.
func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the element's own character data, trimmed.
func (n Node) Text() string {
	return strings.TrimSpace(n.Content)
}

// DirectChildren returns immediate children whose local name matches tag.
func (n Node) DirectChildren(tag string) []Node {
	var out []Node
	for _, c := range n.Children {
		if c.Tag() == tag {
			out = append(out, c)
		}
	}
	return out
}

// DirectChild returns the first immediate child matching tag, if any.
func (n Node) DirectChild(tag string) (Node, bool) {
	for _, c := range n.Children {
		if c.Tag() == tag {
			return c, true
		}
	}
	return Node{}, false
}

// FindAll recursively collects every descendant (at any depth, including n
// itself's children's children) whose local name matches tag.
func (n Node) FindAll(tag string) []Node {
	var out []Node
	var walk func(Node)
	walk = func(cur Node) {
		for _, c := range cur.Children {
			if c.Tag() == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// jsonNode is the wire shape described by the spec: {"tag", "attributes"?,
// "text"?, "children"?} with empty keys omitted.
type jsonNode struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Children   []jsonNode        `json:"children,omitempty"`
}

func toJSONNode(n Node) jsonNode {
	jn := jsonNode{Tag: n.Tag()}
	if len(n.Attrs) > 0 {
		attrs := make(map[string]string, len(n.Attrs))
		for _, a := range n.Attrs {
			attrs[a.Name.Local] = a.Value
		}
		jn.Attributes = attrs
	}
	if text := n.Text(); text != "" {
		jn.Text = text
	}
	if len(n.Children) > 0 {
		children := make([]jsonNode, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, toJSONNode(c))
		}
		jn.Children = children
	}
	return jn
}

// EncodeNodes renders a list of elements as the compact JSON array the
// loader stores in a *_data column. An empty list serializes as nil (SQL
// NULL), never "[]" — the spec distinguishes "not collected" from "empty".
func EncodeNodes(nodes []Node) (*string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]jsonNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toJSONNode(n))
	}
	buf, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(buf)
	return &s, nil
}
