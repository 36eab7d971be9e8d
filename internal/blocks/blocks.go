// Package blocks implements the AST block resolver: given a file's
// content, its extension, and a set of lines of interest, it returns the
// smallest syntactically meaningful construct enclosing each line.
//
// Tree-walking follows a deepest-node-by-byte-range lookup with an ancestor
// walk for classification, generalized to the registry-driven
// is_acceptable_parent/is_test_node capability set from internal/lang
// instead of fixed per-language query captures.
package blocks

import (
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/blocksearch/internal/astparse"
	lcierrors "github.com/standardbeagle/blocksearch/internal/errors"
	"github.com/standardbeagle/blocksearch/internal/lang"
	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/semantic"
)

// symbolFuzzyThreshold is the minimum Jaro-Winkler similarity a near-miss
// symbol name must clear to resolve instead of failing outright.
const symbolFuzzyThreshold = 0.85

// Options tunes the resolver's fallback behavior.
type Options struct {
	AllowTests   bool
	ContextLines int // window radius for the literal-line fallback
}

// lineOffsets indexes the byte range of every 1-based line in content, plus
// the total line count, for clamping and byte-range lookups.
type lineOffsets struct {
	starts []int // starts[i] = byte offset of line i+1
	ends   []int // ends[i] = byte offset one past the last byte of line i+1 (before newline)
}

func indexLines(content string) lineOffsets {
	var lo lineOffsets
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lo.starts = append(lo.starts, start)
			lo.ends = append(lo.ends, i)
			start = i + 1
		}
	}
	lo.starts = append(lo.starts, start)
	lo.ends = append(lo.ends, len(content))
	return lo
}

func (lo lineOffsets) lineCount() int { return len(lo.starts) }

// byteRange returns content's byte offsets for 1-based line L, clamping L
// into [1, lineCount] first.
func (lo lineOffsets) byteRange(l int) (start, end, clamped int) {
	clamped = clampLine(l, lo.lineCount())
	return lo.starts[clamped-1], lo.ends[clamped-1], clamped
}

func clampLine(l, lineCount int) int {
	if lineCount == 0 {
		return 1
	}
	if l < 1 {
		return 1
	}
	if l > lineCount {
		return lineCount
	}
	return l
}

func lines(content string) []string {
	return strings.Split(content, "\n")
}

// FindBlocks resolves each line of interest to its enclosing acceptable
// block. A ParseFailureError is returned alongside a single whole-file
// fallback block when the language has no usable grammar binding or the
// parse itself fails; an UnsupportedLanguageError is returned with no
// blocks when the extension is not in the registry at all.
func FindBlocks(filePath, content, extension string, linesOfInterest []int, opts Options) ([]model.CodeBlock, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	handler, ok := lang.Lookup(ext)
	if !ok {
		return nil, lcierrors.NewUnsupportedLanguageError(filePath, ext)
	}

	lo := indexLines(content)
	fileLines := lines(content)

	tree, err := astparse.Parse(ext, []byte(content))
	if err != nil {
		return []model.CodeBlock{wholeFileBlock(filePath, content, lo.lineCount())},
			lcierrors.NewParseFailureError(filePath, err)
	}
	defer tree.Close()

	source := []byte(content)
	root := tree.RootNode()

	ctx := opts.ContextLines
	if ctx <= 0 {
		ctx = 3
	}

	var out []model.CodeBlock
	for _, l := range linesOfInterest {
		start, end, clamped := lo.byteRange(l)
		node := deepestNodeContaining(root, uint(start), uint(end))

		ancestor := findAcceptableAncestor(handler, node)
		if ancestor == nil {
			out = append(out, contextWindowBlock(filePath, fileLines, clamped, ctx))
			continue
		}

		if !opts.AllowTests && isTestAncestor(handler, ancestor, source) {
			continue
		}

		out = append(out, nodeBlock(filePath, source, ancestor, ancestor.Kind(), handler))
	}

	return dedupAndNest(out), nil
}

// ResolveRange implements range mode: union every block overlapping
// [start, end] into one merged block, or a literal-range fallback if none
// overlap.
func ResolveRange(filePath, content, extension string, start, end int, opts Options) (model.CodeBlock, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	lo := indexLines(content)
	s := clampLine(start, lo.lineCount())
	e := clampLine(end, lo.lineCount())
	if e < s {
		s, e = e, s
	}

	interest := make([]int, 0, e-s+1)
	for l := s; l <= e; l++ {
		interest = append(interest, l)
	}

	found, err := FindBlocks(filePath, content, ext, interest, Options{AllowTests: true, ContextLines: opts.ContextLines})
	if err != nil || len(found) == 0 {
		return literalRangeBlock(filePath, lines(content), s, e), nil
	}

	minStart, maxEnd := found[0].StartLine, found[0].EndLine
	for _, b := range found[1:] {
		if b.StartLine < minStart {
			minStart = b.StartLine
		}
		if b.EndLine > maxEnd {
			maxEnd = b.EndLine
		}
	}

	fileLines := lines(content)
	return model.CodeBlock{
		FilePath:  filePath,
		StartLine: minStart,
		EndLine:   maxEnd,
		NodeType:  "merged_ast_range",
		Code:      joinLines(fileLines, minStart, maxEnd),
	}, nil
}

// ResolveSymbol implements symbol mode: scan the tree for the outermost
// acceptable node whose identifier text equals symbolName. When no name
// matches exactly, it falls back to the closest name by Jaro-Winkler
// similarity so a typo or near-miss still resolves instead of erroring.
func ResolveSymbol(filePath, content, extension, symbolName string, opts Options) (model.CodeBlock, bool, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	handler, ok := lang.Lookup(ext)
	if !ok {
		return model.CodeBlock{}, false, lcierrors.NewUnsupportedLanguageError(filePath, ext)
	}

	tree, err := astparse.Parse(ext, []byte(content))
	if err != nil {
		return model.CodeBlock{}, false, lcierrors.NewParseFailureError(filePath, err)
	}
	defer tree.Close()

	source := []byte(content)
	var best *tree_sitter.Node
	var candidates []*tree_sitter.Node

	var walk func(node *tree_sitter.Node)
	walk = func(node *tree_sitter.Node) {
		if node == nil {
			return
		}
		if handler.IsAcceptableParent(node.Kind()) {
			if name := symbolIdentifier(node, source); name != "" {
				if name == symbolName {
					if best == nil || (node.StartByte() <= best.StartByte() && node.EndByte() >= best.EndByte()) {
						best = node
					}
				} else {
					candidates = append(candidates, node)
				}
			}
		}
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			walk(node.Child(i))
		}
	}
	walk(tree.RootNode())

	if best == nil {
		best = fuzzySymbolMatch(symbolName, candidates, source)
	}

	if best == nil {
		return model.CodeBlock{}, false, nil
	}
	return nodeBlock(filePath, source, best, best.Kind(), handler), true, nil
}

// fuzzySymbolMatch returns the candidate whose identifier is the closest
// Jaro-Winkler match to symbolName, or nil if none clears
// symbolFuzzyThreshold.
func fuzzySymbolMatch(symbolName string, candidates []*tree_sitter.Node, source []byte) *tree_sitter.Node {
	if symbolName == "" || len(candidates) == 0 {
		return nil
	}

	matcher := semantic.NewFuzzyMatcher(true, symbolFuzzyThreshold, "jaro-winkler")

	var bestNode *tree_sitter.Node
	bestScore := 0.0
	for _, node := range candidates {
		name := symbolIdentifier(node, source)
		score := matcher.Similarity(symbolName, name)
		if score >= symbolFuzzyThreshold && score > bestScore {
			bestScore = score
			bestNode = node
		}
	}
	return bestNode
}

func symbolIdentifier(node *tree_sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return string(source[name.StartByte():name.EndByte()])
	}
	return ""
}

func deepestNodeContaining(node *tree_sitter.Node, start, end uint) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.StartByte() <= start && end <= child.EndByte() {
			return deepestNodeContaining(child, start, end)
		}
	}
	return node
}

func findAcceptableAncestor(handler lang.Handler, node *tree_sitter.Node) *tree_sitter.Node {
	for cur := node; cur != nil; cur = cur.Parent() {
		if handler.IsAcceptableParent(cur.Kind()) {
			return cur
		}
	}
	return nil
}

func isTestAncestor(handler lang.Handler, node *tree_sitter.Node, source []byte) bool {
	for cur := node; cur != nil; cur = cur.Parent() {
		if handler.IsTestNode(cur, source) {
			return true
		}
	}
	return false
}

func nodeBlock(filePath string, source []byte, node *tree_sitter.Node, nodeType string, handler lang.Handler) model.CodeBlock {
	b := model.CodeBlock{
		FilePath:  filePath,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		NodeType:  nodeType,
		Code:      string(source[node.StartByte():node.EndByte()]),
	}

	if sig, ok := handler.SymbolSignature(node, source); ok {
		b.SymbolSignature = sig
		b.HasSignature = true
	}

	return b
}

func contextWindowBlock(filePath string, fileLines []string, center, ctx int) model.CodeBlock {
	start := center - ctx
	if start < 1 {
		start = 1
	}
	end := center + ctx
	if end > len(fileLines) {
		end = len(fileLines)
	}
	return model.CodeBlock{
		FilePath:  filePath,
		StartLine: start,
		EndLine:   end,
		NodeType:  "context",
		Code:      joinLines(fileLines, start, end),
		Fallback:  true,
	}
}

func literalRangeBlock(filePath string, fileLines []string, start, end int) model.CodeBlock {
	return model.CodeBlock{
		FilePath:  filePath,
		StartLine: start,
		EndLine:   end,
		NodeType:  "literal_range",
		Code:      joinLines(fileLines, start, end),
		Fallback:  true,
	}
}

func wholeFileBlock(filePath, content string, lineCount int) model.CodeBlock {
	return model.CodeBlock{
		FilePath:  filePath,
		StartLine: 1,
		EndLine:   lineCount,
		NodeType:  "file",
		Code:      content,
		Fallback:  true,
	}
}

func joinLines(fileLines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(fileLines) {
		end = len(fileLines)
	}
	if start > end {
		return ""
	}
	return strings.Join(fileLines[start-1:end], "\n")
}

// dedupAndNest sorts blocks by file then by range size descending so outer
// blocks are considered first, drops exact-range duplicates, and drops any
// block nested within an already-kept block in the same file.
func dedupAndNest(blocks []model.CodeBlock) []model.CodeBlock {
	if len(blocks) == 0 {
		return blocks
	}

	sorted := make([]model.CodeBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FilePath != sorted[j].FilePath {
			return sorted[i].FilePath < sorted[j].FilePath
		}
		sizeI := sorted[i].EndLine - sorted[i].StartLine
		sizeJ := sorted[j].EndLine - sorted[j].StartLine
		return sizeI > sizeJ
	})

	var kept []model.CodeBlock
	for _, b := range sorted {
		duplicate := false
		nested := false
		for _, k := range kept {
			if k.FilePath != b.FilePath {
				continue
			}
			if k.StartLine == b.StartLine && k.EndLine == b.EndLine {
				duplicate = true
				break
			}
			if k.StartLine <= b.StartLine && b.EndLine <= k.EndLine {
				nested = true
				break
			}
		}
		if !duplicate && !nested {
			kept = append(kept, b)
		}
	}
	return kept
}
