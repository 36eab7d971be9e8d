package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/blocksearch/internal/model"
)

func block(path string, start, end int, code string) model.CodeBlock {
	return model.CodeBlock{FilePath: path, StartLine: start, EndLine: end, Code: code}
}

func TestCompute_SameBlockSameFingerprint(t *testing.T) {
	b := block("a.go", 1, 5, "func A() {}")
	assert.Equal(t, Compute(b), Compute(b))
}

func TestCompute_DifferentBlocksDifferentFingerprints(t *testing.T) {
	a := block("a.go", 1, 5, "func A() {}")
	b := block("a.go", 1, 5, "func B() {}")
	assert.NotEqual(t, Compute(a), Compute(b))
}

func TestOpen_EmptyIDDisablesCache(t *testing.T) {
	s, err := Open(t.TempDir(), "", 100, 1000)
	require.NoError(t, err)

	fp := Compute(block("a.go", 1, 5, "x"))
	assert.False(t, s.Seen(fp))
	s.Record(fp)
	assert.False(t, s.Seen(fp))
	require.NoError(t, s.Flush())
}

func TestOpen_NewAlwaysStartsFresh(t *testing.T) {
	dir := t.TempDir()
	fp := Compute(block("a.go", 1, 5, "x"))

	s1, err := Open(dir, "mysession", 100, 1000)
	require.NoError(t, err)
	s1.Record(fp)
	require.NoError(t, s1.Flush())

	s2, err := Open(dir, "new", 100, 1000)
	require.NoError(t, err)
	assert.False(t, s2.Seen(fp))
}

func TestRecordAndFlush_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fp := Compute(block("a.go", 1, 5, "x"))

	s1, err := Open(dir, "mysession", 100, 1000)
	require.NoError(t, err)
	s1.Record(fp)
	require.NoError(t, s1.Flush())

	s2, err := Open(dir, "mysession", 100, 1000)
	require.NoError(t, err)
	assert.True(t, s2.Seen(fp))
}

func TestOpen_CorruptCacheRecoversToFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "probe-sessions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "probe-sessions", "broken.cache"), []byte("not a cache file"), 0o644))

	s, err := Open(dir, "broken", 100, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Warnings())

	fp := Compute(block("a.go", 1, 5, "x"))
	assert.False(t, s.Seen(fp))
}

func TestRecord_CompactsOldestFirstAtCap(t *testing.T) {
	s, err := Open(t.TempDir(), "mysession", 2, 1000)
	require.NoError(t, err)

	fp1 := Compute(block("a.go", 1, 1, "1"))
	fp2 := Compute(block("a.go", 2, 2, "2"))
	fp3 := Compute(block("a.go", 3, 3, "3"))

	s.Record(fp1)
	s.Record(fp2)
	s.Record(fp3)

	assert.False(t, s.Seen(fp1))
	assert.True(t, s.Seen(fp2))
	assert.True(t, s.Seen(fp3))
}

func TestSanitize_StripsPathSeparators(t *testing.T) {
	assert.Equal(t, "foo_bar", sanitize("foo/bar"))
	assert.NotContains(t, sanitize("../../etc"), "..")
}
