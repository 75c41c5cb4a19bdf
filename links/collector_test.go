package links

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorMergeWithPriorReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFilename)
	require.NoError(t, os.WriteFile(path, []byte("1\tpA\tlX\n"), 0644))

	c := NewCollector()
	c.Add("1", "pA", "lX")
	c.Add("2", "pB", "lY")

	merged, err := c.MergeAndSave(path)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, Record{"1", "pA", "lX"}, merged[0])
	assert.Equal(t, Record{"2", "pB", "lY"}, merged[1])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\tpA\tlX\n2\tpB\tlY\n", string(data))
}

func TestCollectorSortsBySequenceString(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFilename)

	c := NewCollector()
	c.Add("30", "p30", "l1")
	c.Add("12", "p12", "l2")
	c.Add("12", "p12", "l2") // duplicate tuple collapses

	merged, err := c.MergeAndSave(path)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "12", merged[0].PostSeq)
	assert.Equal(t, "30", merged[1].PostSeq)
}

func TestCollectorEmptyRunDoesNoIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFilename)

	c := NewCollector()
	merged, err := c.MergeAndSave(path)
	require.NoError(t, err)
	assert.Nil(t, merged)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollectorSkipsMalformedPriorRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFilename)
	require.NoError(t, os.WriteFile(path, []byte("not a valid row\n\n5\tpC\tlZ\n"), 0644))

	c := NewCollector()
	c.Add("9", "pD", "lW")

	merged, err := c.MergeAndSave(path)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "5", merged[0].PostSeq)
	assert.Equal(t, "9", merged[1].PostSeq)
}
