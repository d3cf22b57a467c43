package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taomall/marketplace-backend/pkg/config"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"*_create_products_table.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"CREATE TABLE IF NOT EXISTS product_tiers",
			"CREATE TABLE IF NOT EXISTS product_models",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_product_models_tier_key",
		},
		"*_create_vouchers_table.sql": {
			"CREATE TABLE IF NOT EXISTS vouchers",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_vouchers_code",
		},
		"*_create_cart_items_table.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_line",
		},
		"*_create_orders_table.sql": {
			"CREATE TABLE IF NOT EXISTS orders",
			"CREATE TABLE IF NOT EXISTS order_items",
			"amount_due bigint NOT NULL CHECK (amount_due >= 0)",
		},
		"*_create_outbox_events_table.sql": {
			"CREATE TABLE IF NOT EXISTS outbox_events",
		},
		"*_add_maintenance_indexes.sql": {
			"idx_outbox_events_published_at",
			"idx_vouchers_active_expiry",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		for _, sub := range checks {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s: missing %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "  Add Shop Banner! ", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20260301090000_add_shop_banner.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = createAt(dir, "add shop banner", now)
	require.ErrorContains(t, err, "already exists")

	_, err = createAt(dir, "!!!", now)
	require.Error(t, err)
	_, err = createAt("", "x", now)
	require.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	write := func(dir, name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	ok := "-- +goose Up\n-- +goose StatementBegin\n-- +goose StatementEnd\n-- +goose Down\n"

	dir := t.TempDir()
	write(dir, "bad-name.sql", ok)
	require.ErrorContains(t, ValidateDir(dir), "invalid migration filename")

	dir = t.TempDir()
	write(dir, "20260101000000_a.sql", ok)
	write(dir, "20260101000000_b.sql", ok)
	require.ErrorContains(t, ValidateDir(dir), "duplicate migration version")

	dir = t.TempDir()
	write(dir, "20260101000000_a.sql", "-- +goose Up\n")
	require.ErrorContains(t, ValidateDir(dir), "goose Down")

	dir = t.TempDir()
	write(dir, "20260101000000_a.sql", "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")
	require.ErrorContains(t, ValidateDir(dir), "StatementBegin")
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260301090000")
	require.NoError(t, err)
	require.EqualValues(t, 20260301090000, v)

	for _, bad := range []string{"", "2026", "2026030109000x"} {
		_, err := ParseVersion(bad)
		require.Error(t, err, bad)
	}
}

func TestShouldAutoRun(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev
	require.False(t, ShouldAutoRun(cfg))

	cfg.FeatureFlags.AutoMigrate = true
	require.True(t, ShouldAutoRun(cfg))

	cfg.App.Env = config.AppEnvProd
	require.False(t, ShouldAutoRun(cfg))
	require.False(t, ShouldAutoRun(nil))
}
