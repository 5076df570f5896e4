package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/lvs-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
)

func TestRepository_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "saga.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := New(ctx, db)
	require.NoError(t, err)

	started := sagalog.NewEntry(ctx, "run-1", sagalog.StatusStarted, "")
	started.Payload = `{"orderId":"ORD-100001"}`
	failed := sagalog.NewEntry(ctx, "run-1", sagalog.StatusFailed, "Clear_Cart_Step")
	failed.Errors = []string{"step Clear_Cart_Step: boom"}
	require.NoError(t, repo.Save(ctx, started))
	require.NoError(t, repo.Save(ctx, failed))
	require.NoError(t, repo.Save(ctx, sagalog.NewEntry(ctx, "run-2", sagalog.StatusStarted, "")))

	latest, err := repo.GetLatest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sagalog.StatusFailed, latest.Status)
	assert.Equal(t, "Clear_Cart_Step", latest.Step)
	assert.Equal(t, []string{"step Clear_Cart_Step: boom"}, latest.Errors)
	assert.Empty(t, latest.Payload)
	assert.True(t, failed.At.Equal(latest.At))

	history, err := repo.History(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, `{"orderId":"ORD-100001"}`, history[0].Payload)
	assert.Empty(t, history[0].Errors)

	_, err = repo.GetLatest(ctx, "missing")
	assert.Error(t, err)
}
