package lang

import (
	"bytes"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// kindSet is a set of tree-sitter node kinds, used for the acceptable-parent
// and function-family membership tests every handler needs.
type kindSet map[string]bool

func newKindSet(kinds ...string) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// genericHandler implements Handler from per-language configuration. Every
// concrete handler in this package is a genericHandler with a different
// kind set and test/signature strategy; the node-walking logic itself is
// shared.
type genericHandler struct {
	lang             Language
	acceptableParent kindSet
	functionFamily   kindSet
	grammarFn        func() *tree_sitter.Language
	isTestNode       func(node *tree_sitter.Node, source []byte) bool
	bodyFieldNames   []string // field names tried, in order, to locate the body to cut
}

func (h *genericHandler) Language() Language { return h.lang }

func (h *genericHandler) Grammar() (*tree_sitter.Language, error) {
	if h.grammarFn == nil {
		return nil, fmt.Errorf("no grammar binding wired for %s", h.lang)
	}
	return h.grammarFn(), nil
}

func (h *genericHandler) IsAcceptableParent(kind string) bool {
	return h.acceptableParent[kind]
}

func (h *genericHandler) IsTestNode(node *tree_sitter.Node, source []byte) bool {
	if h.isTestNode == nil {
		return false
	}
	return h.isTestNode(node, source)
}

func (h *genericHandler) FindParentFunction(node *tree_sitter.Node) *tree_sitter.Node {
	cur := node.Parent()
	for cur != nil {
		if h.functionFamily[cur.Kind()] {
			return cur
		}
		cur = cur.Parent()
	}
	return nil
}

// SymbolSignature cuts the declaration's text at the first byte of its body
// field (tried in bodyFieldNames order), trimming trailing whitespace and
// the body opener itself. Falls back to a brace/colon/do scan over the raw
// text when the grammar exposes no named body field.
func (h *genericHandler) SymbolSignature(node *tree_sitter.Node, source []byte) (string, bool) {
	full := source[node.StartByte():node.EndByte()]

	for _, field := range h.bodyFieldNames {
		if body := node.ChildByFieldName(field); body != nil {
			cut := int(body.StartByte()) - int(node.StartByte())
			if cut > 0 && cut <= len(full) {
				return trimSignature(full[:cut]), true
			}
		}
	}

	return cutAtFirstOpener(full)
}

func trimSignature(text []byte) string {
	return strings.TrimRight(string(text), " \t\r\n")
}

// cutAtFirstOpener scans raw declaration text for the first top-level body
// opener ('{', ':' followed by newline-indented block, or a bare "do") and
// returns everything before it. Used by languages whose grammar doesn't
// expose a named body field on every acceptable-parent kind.
func cutAtFirstOpener(full []byte) (string, bool) {
	depth := 0
	inString := byte(0)
	for i := 0; i < len(full); i++ {
		c := full[i]
		if inString != 0 {
			if c == inString && (i == 0 || full[i-1] != '\\') {
				inString = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			inString = c
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '{':
			if depth == 0 {
				return trimSignature(full[:i]), true
			}
		case ':':
			if depth == 0 && i+1 < len(full) && full[i+1] == '\n' {
				return trimSignature(full[:i]), true
			}
		}
		if depth == 0 && bytes.HasPrefix(full[i:], []byte(" do\n")) {
			return trimSignature(full[:i]), true
		}
	}
	return trimSignature(full), false
}

// identifierText returns the text of node's "name" field, or its own text
// if it is itself an identifier-shaped leaf.
func identifierText(node *tree_sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return string(source[name.StartByte():name.EndByte()])
	}
	return string(source[node.StartByte():node.EndByte()])
}
