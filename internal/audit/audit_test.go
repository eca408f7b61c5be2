package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graylogic-labs/knxnetip/config"
	"github.com/graylogic-labs/knxnetip/internal/db"
	"github.com/graylogic-labs/knxnetip/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	conn, err := db.Open(config.AuditConfig{Path: path, WALMode: true, BusyTimeout: 5})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Migrate(ctx, migrations.All))

	return NewSQLiteRepository(conn.DB)
}

func TestCreateAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Event{
		Action: "lost_message", Transport: "routing", SiteID: "site-001",
		Details: map[string]any{"lost_count": 3},
	}))
	require.NoError(t, repo.Create(ctx, &Event{
		Action: "queue_overflow", Transport: "routing", SiteID: "site-001",
	}))

	result, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	require.Len(t, result.Events, 2)
	// most recent first
	require.Equal(t, "queue_overflow", result.Events[0].Action)

	filtered, err := repo.List(ctx, Filter{Action: "lost_message"})
	require.NoError(t, err)
	require.Equal(t, 1, filtered.Total)
	require.Equal(t, 3, int(filtered.Events[0].Details["lost_count"].(float64)))
}

func TestListAppliesLimitAndOffset(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &Event{Action: "error", Transport: "tunnel", SiteID: "site-001"}))
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Len(t, page.Events, 2)
	require.Equal(t, 2, page.Limit)
	require.Equal(t, 1, page.Offset)
}
