// AngelaMos | 2026
// migrate_test.go

package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	entries, err := fs.ReadDir(Files(), ".")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Equal(t, []string{
		"00001_users.sql",
		"00002_refresh_tokens.sql",
		"00003_assets.sql",
		"00004_catalog.sql",
		"00005_profile_update_requests.sql",
	}, names)
}

func TestMigrationsAreReversible(t *testing.T) {
	err := fs.WalkDir(Files(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		body, readErr := fs.ReadFile(Files(), path)
		require.NoError(t, readErr)

		text := string(body)
		assert.True(t, strings.HasPrefix(text, "-- +goose Up"), path)
		assert.Contains(t, text, "-- +goose Down", path)
		return nil
	})
	require.NoError(t, err)
}

func TestSchemaCoversTables(t *testing.T) {
	var all strings.Builder
	entries, err := fs.ReadDir(Files(), ".")
	require.NoError(t, err)
	for _, e := range entries {
		body, readErr := fs.ReadFile(Files(), e.Name())
		require.NoError(t, readErr)
		all.Write(body)
	}

	for _, table := range []string{
		"users",
		"refresh_tokens",
		"assets",
		"asset_categories",
		"departments",
		"profile_update_requests",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}

	assert.Contains(t, all.String(), "WHERE status = 'pending'")
}
