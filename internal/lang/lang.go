// Package lang is the language registry: a static mapping from file
// extension to a LanguageHandler that knows which tree-sitter node kinds
// are extractable blocks, which are test declarations, and how to cut a
// declaration's signature out of its body.
//
// Each language lists its grammar's own node kinds directly (one setup
// function per language) rather than going through a query/capture layer,
// keeping the per-language kind sets as plain kind-set membership tests the
// block resolver needs.
package lang

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language is a registry variant name.
type Language string

const (
	Rust       Language = "rust"
	Go         Language = "go"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Python     Language = "python"
	C          Language = "c"
	CPP        Language = "cpp"
	Java       Language = "java"
	Ruby       Language = "ruby"
	PHP        Language = "php"
	Swift      Language = "swift"
	CSharp     Language = "csharp"
	YAML       Language = "yaml"
)

// Handler is the C2 capability set for one language.
type Handler interface {
	Language() Language

	// Grammar returns the tree-sitter language for this handler, or an
	// error if no grammar binding is wired for it.
	Grammar() (*tree_sitter.Language, error)

	// IsAcceptableParent reports whether a node kind is a container that
	// should be returned as a block.
	IsAcceptableParent(kind string) bool

	// IsTestNode reports whether node (or an ancestor search rooted at it)
	// marks a test declaration by this language's convention.
	IsTestNode(node *tree_sitter.Node, source []byte) bool

	// SymbolSignature returns the declaration text with its body cut off,
	// and whether a signature could be extracted at all.
	SymbolSignature(node *tree_sitter.Node, source []byte) (string, bool)

	// FindParentFunction walks ancestors until reaching a function-family
	// node, or returns nil if none exists.
	FindParentFunction(node *tree_sitter.Node) *tree_sitter.Node
}

var registry = map[Language]Handler{}

func register(h Handler) { registry[h.Language()] = h }

func init() {
	register(newRustHandler())
	register(newGoHandler())
	register(newJavaScriptHandler())
	register(newTypeScriptHandler())
	register(newPythonHandler())
	register(newCHandler())
	register(newCppHandler())
	register(newJavaHandler())
	register(newCSharpHandler())
	register(newPHPHandler())
	register(newRubyHandler())
	register(newSwiftHandler())
	register(newYAMLHandler())
}

// extensionAliases resolves an extension spelling variant to the canonical
// registry key before lookup, e.g. "rs" -> "rust", "jsx" -> "javascript".
var extensionAliases = map[string]Language{
	"rs":    Rust,
	"go":    Go,
	"js":    JavaScript,
	"mjs":   JavaScript,
	"cjs":   JavaScript,
	"jsx":   JavaScript,
	"ts":    TypeScript,
	"tsx":   TypeScript,
	"mts":   TypeScript,
	"py":    Python,
	"pyi":   Python,
	"c":     C,
	"h":     C,
	"cpp":   CPP,
	"cc":    CPP,
	"cxx":   CPP,
	"hpp":   CPP,
	"hh":    CPP,
	"hxx":   CPP,
	"java":  Java,
	"rb":    Ruby,
	"php":   PHP,
	"phtml": PHP,
	"swift": Swift,
	"cs":    CSharp,
	"yaml":  YAML,
	"yml":   YAML,
}

// Resolve maps a lowercased, dot-stripped file extension to its registry
// Language, applying alias resolution first.
func Resolve(extension string) (Language, bool) {
	l, ok := extensionAliases[extension]
	return l, ok
}

// Lookup returns the Handler for extension, or false if the extension is
// not in the registry at all (a genuine C2 lookup miss: UnsupportedLanguage).
func Lookup(extension string) (Handler, bool) {
	l, ok := Resolve(extension)
	if !ok {
		return nil, false
	}
	h, ok := registry[l]
	return h, ok
}
