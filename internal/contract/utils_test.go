package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOperatorSet(t *testing.T) {
	tests := []struct {
		name     string
		ops      []schema.Operator
		def      schema.Operator
		expected string
	}{
		{"empty set", nil, schema.NoOperator, "none"},
		{"default starred", []schema.Operator{schema.SumOperator, schema.MeanOperator}, schema.MeanOperator, "sum, mean*"},
		{"no default", []schema.Operator{schema.MinOperator, schema.MaxOperator}, schema.NoOperator, "min, max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatOperatorSet(tt.ops, tt.def, false))
		})
	}
}

func TestGetValueTypeLabel(t *testing.T) {
	assert.Contains(t, GetValueTypeLabel(schema.CumulativeValue), "cumulative")
	assert.Contains(t, GetValueTypeLabel(schema.InstantaneousValue), "instantaneous")
	assert.Equal(t, "other", GetValueTypeLabel(schema.ValueType("other")))
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , ,"))
	assert.Equal(t, []string{"P1", "P2"}, SplitList(" P1,P2 ,"))
}

func TestDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	paths := map[string]string{
		".prelev_store.db": GetStoreDBFilePath(),
		".prelev_cache.db": GetCacheDBFilePath(),
		".prelev_runs.db":  GetRunsDBFilePath(),
	}
	for name, path := range paths {
		assert.Contains(t, path, name)
		assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "conducti...", TruncateText("conductivité électrique", 11))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input       string
		expected    bool
		expectError bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCompressRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat(`{"date":"2024-01-01","values":{"value":1.5}}`, 20))

	packed, err := Compress(payload)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(payload))

	unpacked, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, payload, unpacked)

	empty, err := Compress(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Decompress([]byte("not zstd"))
	assert.Error(t, err)
}
