package lang

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func newRustHandler() Handler {
	return &genericHandler{
		lang: Rust,
		acceptableParent: newKindSet(
			"function_item", "struct_item", "impl_item", "trait_item",
			"enum_item", "mod_item", "const_item", "static_item",
			"type_item", "macro_definition",
		),
		functionFamily: newKindSet("function_item", "closure_expression"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			return rustHasTestAttribute(node, source)
		},
	}
}

// rustHasTestAttribute walks the attribute items directly preceding node and
// each of its ancestors, looking for #[test] or #[cfg(test)].
func rustHasTestAttribute(node *tree_sitter.Node, source []byte) bool {
	for cur := node; cur != nil; cur = cur.Parent() {
		for sibling := cur.PrevSibling(); sibling != nil && sibling.Kind() == "attribute_item"; sibling = sibling.PrevSibling() {
			text := string(source[sibling.StartByte():sibling.EndByte()])
			if strings.Contains(text, "test") {
				return true
			}
		}
	}
	return false
}

func newGoHandler() Handler {
	return &genericHandler{
		lang: Go,
		acceptableParent: newKindSet(
			"function_declaration", "method_declaration", "type_declaration",
			"struct_type", "interface_type", "const_declaration", "var_declaration",
			"type_spec",
		),
		functionFamily: newKindSet("function_declaration", "method_declaration", "func_literal"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			if node.Kind() != "function_declaration" {
				return false
			}
			name := identifierText(node, source)
			return strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Benchmark")
		},
	}
}

func newJavaScriptHandler() Handler {
	return &genericHandler{
		lang: JavaScript,
		acceptableParent: newKindSet(
			"function_declaration", "generator_function_declaration", "method_definition",
			"class_declaration", "arrow_function", "function_expression", "variable_declarator",
		),
		functionFamily: newKindSet(
			"function_declaration", "generator_function_declaration", "method_definition",
			"arrow_function", "function_expression",
		),
		grammarFn: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
		},
		bodyFieldNames: []string{"body"},
		isTestNode:     jsLikeIsTestNode,
	}
}

func newTypeScriptHandler() Handler {
	return &genericHandler{
		lang: TypeScript,
		acceptableParent: newKindSet(
			"function_declaration", "generator_function_declaration", "method_definition",
			"class_declaration", "interface_declaration", "type_alias_declaration",
			"enum_declaration", "arrow_function", "function_expression", "variable_declarator",
		),
		functionFamily: newKindSet(
			"function_declaration", "generator_function_declaration", "method_definition",
			"arrow_function", "function_expression",
		),
		grammarFn: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		},
		bodyFieldNames: []string{"body"},
		isTestNode:     jsLikeIsTestNode,
	}
}

// jsLikeIsTestNode matches call_expression nodes whose callee identifier is
// test/it/describe with a string-literal first argument, per the enclosing
// function (JS/TS test-node convention is attached to the surrounding call,
// not the function node itself, so this checks node's parent chain for such
// a call).
func jsLikeIsTestNode(node *tree_sitter.Node, source []byte) bool {
	for cur := node; cur != nil; cur = cur.Parent() {
		parent := cur.Parent()
		if parent == nil || parent.Kind() != "call_expression" {
			continue
		}
		callee := parent.ChildByFieldName("function")
		if callee == nil {
			continue
		}
		name := string(source[callee.StartByte():callee.EndByte()])
		if name != "test" && name != "it" && name != "describe" {
			continue
		}
		args := parent.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			continue
		}
		first := args.NamedChild(0)
		if first != nil && first.Kind() == "string" {
			return true
		}
	}
	return false
}

func newPythonHandler() Handler {
	return &genericHandler{
		lang:             Python,
		acceptableParent: newKindSet("function_definition", "class_definition"),
		functionFamily:   newKindSet("function_definition"),
		grammarFn: func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_python.Language())
		},
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			name := identifierText(node, source)
			switch node.Kind() {
			case "function_definition":
				return strings.HasPrefix(name, "test_")
			case "class_definition":
				return strings.HasPrefix(name, "Test")
			}
			return false
		},
	}
}

func newCHandler() Handler {
	return &genericHandler{
		lang: C,
		acceptableParent: newKindSet(
			"function_definition", "struct_specifier", "enum_specifier",
			"declaration", "type_definition",
		),
		functionFamily: newKindSet("function_definition"),
		// tree-sitter-c has no standalone Go binding in this module; the C
		// grammar is a strict subset of C++'s, so the cpp grammar parses C
		// sources too.
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		bodyFieldNames: []string{"body"},
	}
}

func newCppHandler() Handler {
	return &genericHandler{
		lang: CPP,
		acceptableParent: newKindSet(
			"function_definition", "class_specifier", "struct_specifier",
			"enum_specifier", "namespace_definition", "template_declaration",
		),
		functionFamily: newKindSet("function_definition", "lambda_expression"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		bodyFieldNames: []string{"body"},
	}
}

func newJavaHandler() Handler {
	return &genericHandler{
		lang: Java,
		acceptableParent: newKindSet(
			"method_declaration", "constructor_declaration", "class_declaration",
			"record_declaration", "interface_declaration", "enum_declaration",
			"field_declaration", "annotation_type_declaration",
		),
		functionFamily: newKindSet("method_declaration", "constructor_declaration", "lambda_expression"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			if node.Kind() != "method_declaration" {
				return false
			}
			modifiers := node.ChildByFieldName("modifiers")
			if modifiers == nil {
				return false
			}
			text := string(source[modifiers.StartByte():modifiers.EndByte()])
			return strings.Contains(text, "@Test")
		},
	}
}

func newCSharpHandler() Handler {
	return &genericHandler{
		lang: CSharp,
		acceptableParent: newKindSet(
			"method_declaration", "constructor_declaration", "class_declaration",
			"interface_declaration", "struct_declaration", "record_declaration",
			"enum_declaration", "property_declaration", "delegate_declaration",
		),
		functionFamily: newKindSet("method_declaration", "constructor_declaration", "local_function_statement"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			if node.Kind() != "method_declaration" {
				return false
			}
			parent := node.Parent()
			if parent == nil {
				return false
			}
			text := string(source[parent.StartByte():node.StartByte()])
			return strings.Contains(text, "[Test]") || strings.Contains(text, "[Fact]") || strings.Contains(text, "[TestMethod]")
		},
	}
}

func newPHPHandler() Handler {
	return &genericHandler{
		lang: PHP,
		acceptableParent: newKindSet(
			"function_definition", "method_declaration", "class_declaration",
			"interface_declaration", "trait_declaration", "enum_declaration",
			"namespace_definition",
		),
		functionFamily: newKindSet("function_definition", "method_declaration", "anonymous_function_creation_expression"),
		grammarFn:      func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		bodyFieldNames: []string{"body"},
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			name := identifierText(node, source)
			return node.Kind() == "method_declaration" && strings.HasPrefix(name, "test")
		},
	}
}

// newRubyHandler, newSwiftHandler and newYAMLHandler register extension
// aliases and acceptable-parent kind sets (for documentation and future use)
// but carry no grammar binding: this module does not vendor a Go tree-sitter
// grammar for Ruby, Swift, or YAML. Grammar() returns an error for these,
// which the block resolver turns into a ParseFailureError fallback
// rather than an UnsupportedLanguageError, since the extension itself is
// recognized by the registry.
func newRubyHandler() Handler {
	return &genericHandler{
		lang:             Ruby,
		acceptableParent: newKindSet("method", "class", "module", "singleton_method"),
		functionFamily:   newKindSet("method", "singleton_method", "block", "lambda"),
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			name := identifierText(node, source)
			return node.Kind() == "method" && strings.HasPrefix(name, "test_")
		},
	}
}

func newSwiftHandler() Handler {
	return &genericHandler{
		lang:             Swift,
		acceptableParent: newKindSet("function_declaration", "class_declaration", "protocol_declaration", "struct_declaration", "enum_declaration"),
		functionFamily:   newKindSet("function_declaration", "lambda_literal"),
		isTestNode: func(node *tree_sitter.Node, source []byte) bool {
			name := identifierText(node, source)
			return node.Kind() == "function_declaration" && strings.HasPrefix(name, "test")
		},
	}
}

func newYAMLHandler() Handler {
	return &genericHandler{
		lang:             YAML,
		acceptableParent: newKindSet("block_mapping_pair", "block_sequence_item", "document"),
		functionFamily:   kindSet{},
	}
}
