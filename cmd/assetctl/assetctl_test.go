// AngelaMos | 2026
// assetctl_test.go

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/asset-manager/internal/migrate"
	"github.com/carterperez-dev/templates/asset-manager/internal/stats"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"create-admin"},
		{"keygen"},
		{"stats"},
		{"tokens", "prune"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestKeygen(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "keys", "private.pem")
	pub := filepath.Join(dir, "keys", "public.pem")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"keygen", "--private", priv, "--public", pub})

	require.NoError(t, root.ExecuteContext(t.Context()))

	for _, p := range []string{priv, pub} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, out.String(), "wrote")
}

func TestCreateAdminRequiresEmail(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"create-admin"})

	err := root.ExecuteContext(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email is required")
}

func TestRenderDashboard(t *testing.T) {
	d := &stats.Dashboard{
		Summary: &stats.Summary{
			TotalAssets:    3,
			TotalValue:     stats.Money{Decimal: decimal.RequireFromString("1450.5")},
			RecentActivity: 1,
		},
		TotalUsers:      4,
		TotalCategories: 2,
		TopCategories: []stats.TopEntry{
			{Name: "Laptops", Count: 2, Percent: 67},
			{Name: "Monitors", Count: 1, Percent: 33},
		},
	}

	var out bytes.Buffer
	renderDashboard(&out, d)

	text := out.String()
	assert.Contains(t, text, "1450.50")
	assert.Contains(t, text, "Laptops")
	assert.Contains(t, text, "67%")
	assert.NotContains(t, text, "Top departments")
}

func TestRenderMigrations(t *testing.T) {
	applied := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var out bytes.Buffer
	renderMigrations(&out, []migrate.Migration{
		{Version: 1, Name: "00001_users.sql", Applied: true, AppliedAt: applied},
		{Version: 2, Name: "00002_refresh_tokens.sql"},
	})

	text := out.String()
	assert.Contains(t, text, "00001_users.sql")
	assert.Contains(t, text, "2026-01-02 03:04:05")
	assert.Contains(t, text, "pending")
}
