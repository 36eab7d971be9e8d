package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/blocksearch/internal/model"
)

const goSample = `package sample

func Add(a, b int) int {
	return a + b
}

func TestAdd(t *testing.T) {
	if Add(1, 2) != 3 {
		t.Fail()
	}
}
`

func TestFindBlocks_GoFunction(t *testing.T) {
	blocks, err := FindBlocks("sample.go", goSample, "go", []int{4}, Options{AllowTests: true, ContextLines: 2})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "function_declaration", blocks[0].NodeType)
	assert.Equal(t, 3, blocks[0].StartLine)
	assert.Contains(t, blocks[0].Code, "func Add")
}

func TestFindBlocks_SkipsTestsWhenDisallowed(t *testing.T) {
	blocks, err := FindBlocks("sample.go", goSample, "go", []int{9}, Options{AllowTests: false, ContextLines: 2})
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestFindBlocks_IncludesTestsWhenAllowed(t *testing.T) {
	blocks, err := FindBlocks("sample.go", goSample, "go", []int{9}, Options{AllowTests: true, ContextLines: 2})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Code, "func TestAdd")
}

func TestFindBlocks_UnsupportedExtension(t *testing.T) {
	_, err := FindBlocks("sample.xyz", "hello", "xyz", []int{1}, Options{})
	require.Error(t, err)
}

func TestFindBlocks_GrammarlessLanguageFallsBackToWholeFile(t *testing.T) {
	blocks, err := FindBlocks("sample.rb", "def hello\n  puts 'hi'\nend\n", "rb", []int{2}, Options{AllowTests: true})
	require.Error(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "file", blocks[0].NodeType)
}

func TestResolveRange_MergesOverlappingBlocks(t *testing.T) {
	block, err := ResolveRange("sample.go", goSample, "go", 3, 9, Options{ContextLines: 2})
	require.NoError(t, err)
	assert.Equal(t, "merged_ast_range", block.NodeType)
	assert.LessOrEqual(t, block.StartLine, 3)
	assert.GreaterOrEqual(t, block.EndLine, 9)
}

func TestResolveSymbol_FindsNamedFunction(t *testing.T) {
	block, found, err := ResolveSymbol("sample.go", goSample, "go", "Add", Options{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "function_declaration", block.NodeType)
	assert.Contains(t, block.Code, "func Add")
}

func TestResolveSymbol_NotFound(t *testing.T) {
	_, found, err := ResolveSymbol("sample.go", goSample, "go", "DoesNotExist", Options{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveSymbol_FuzzyFallbackMatchesNearMissName(t *testing.T) {
	block, found, err := ResolveSymbol("sample.go", goSample, "go", "Adds", Options{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "function_declaration", block.NodeType)
	assert.Contains(t, block.Code, "func Add")
}

func TestClampLine(t *testing.T) {
	assert.Equal(t, 1, clampLine(0, 10))
	assert.Equal(t, 10, clampLine(100, 10))
	assert.Equal(t, 5, clampLine(5, 10))
	assert.Equal(t, 1, clampLine(5, 0))
}

func TestDedupAndNest_DropsNestedAndDuplicateBlocks(t *testing.T) {
	outer := model.CodeBlock{FilePath: "a.go", StartLine: 1, EndLine: 10, NodeType: "function_declaration"}
	inner := model.CodeBlock{FilePath: "a.go", StartLine: 3, EndLine: 5, NodeType: "block"}
	dup := model.CodeBlock{FilePath: "a.go", StartLine: 1, EndLine: 10, NodeType: "function_declaration"}

	result := dedupAndNest([]model.CodeBlock{outer, inner, dup})
	require.Len(t, result, 1)
	assert.Equal(t, outer.StartLine, result[0].StartLine)
	assert.Equal(t, outer.EndLine, result[0].EndLine)
}
