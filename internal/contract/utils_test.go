package contract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldfishcenter/landings/schema"
)

func TestGetPlainChangeLabel(t *testing.T) {
	tests := []struct {
		name   string
		change *schema.PercentChange
		label  string
	}{
		{"nil", nil, NoDataValue},
		{"rising", &schema.PercentChange{Change: 50}, RisingValue},
		{"falling", &schema.PercentChange{Change: -12.5}, FallingValue},
		{"flat", &schema.PercentChange{Change: 0}, FlatValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.label, GetPlainChangeLabel(tt.change))
			// Colored label should contain the plain label
			assert.Contains(t, GetColorChangeLabel(tt.change), tt.label)
		})
	}
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

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cachePath := GetCacheDBFilePath()
	assert.Contains(t, cachePath, ".landings_cache.db")
	assert.True(t, strings.HasPrefix(cachePath, homeDir), "path %s should start with home dir %s", cachePath, homeDir)

	historyPath := GetHistoryDBFilePath()
	assert.Contains(t, historyPath, ".landings_history.db")
	assert.NotEqual(t, cachePath, historyPath)
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"connectivity", fmt.Errorf("%w: health returned 503", ErrConnectivity), "service unavailable"},
		{"format", fmt.Errorf("failed to fetch: %w: not an array", ErrFormat), "unexpected data"},
		{"timeout", fmt.Errorf("%w: after 10s", ErrTimeout), "request timed out"},
		{"deadline", context.DeadlineExceeded, "request timed out"},
		{"not implemented", fmt.Errorf("revenue data %w", ErrNotImplemented), "revenue data not yet implemented"},
		{"missing dataset", fmt.Errorf("%w: data/", ErrDatasetMissing), "dataset not found"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
