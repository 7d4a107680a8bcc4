package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	c := filepath.Join(dir, "c.csv")
	require.NoError(t, os.WriteFile(a, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("other content"), 0o644))

	sumA, err := FileSum(a)
	require.NoError(t, err)
	sumB, err := FileSum(b)
	require.NoError(t, err)
	sumC, err := FileSum(c)
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB, "signature depends on content, not path")
	assert.NotEqual(t, sumA, sumC)
}

func TestFileSumMissing(t *testing.T) {
	t.Parallel()

	_, err := FileSum(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Fields("a", "b"), Fields("a", "b"))
	assert.NotEqual(t, Fields("a", "b"), Fields("a", "c"))
	assert.NotEqual(t, Fields("ab"), Fields("a", "b"), "field boundaries matter")
}
