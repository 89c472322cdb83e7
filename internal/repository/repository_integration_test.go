//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockfeed/internal/db"
	"stockfeed/internal/model"
)

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

func TestProductRepositoryInsertAndRead(t *testing.T) {
	url := testDatabaseURL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := &ProductRepository{DB: pool}
	require.NoError(t, repo.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, "TRUNCATE products RESTART IDENTITY")
	require.NoError(t, err)

	rows := []model.ProductVariant{
		{ProductID: "10", Name: "Body Lina", Category: "Body", Price: 29.9, Stock: 4, Color: "Noir", Size: "S", Reference: "BL-N-S"},
		{ProductID: "10", Name: "Body Lina", Category: "Body", Price: 29.9, Stock: 2, Color: "Noir", Size: "M", Reference: "BL-N-M"},
		{ProductID: "20", Name: "Bas Voile", Category: "Bas", Price: 9.5, Stock: 11, Color: "Chair", Size: "2", Reference: "BV-2"},
	}

	inserted, err := repo.InsertMany(ctx, rows)
	require.NoError(t, err)
	require.EqualValues(t, 3, inserted)

	inserted, err = repo.InsertMany(ctx, rows)
	require.NoError(t, err)
	require.Zero(t, inserted, "identical rows are skipped")

	all, err := repo.Find(ctx, model.ProductFilter{}, model.Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "BL-N-S", all[0].Reference)

	page, err := repo.Find(ctx, model.ProductFilter{Category: "Body"}, model.Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "BL-N-M", page[0].Reference)

	n, err := repo.Count(ctx, model.ProductFilter{ProductID: "10"})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Bas", "Body"}, categories)
}

func TestRunRepositoryLifecycle(t *testing.T) {
	url := testDatabaseURL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := &RunRepository{DB: sqlDB}
	require.NoError(t, repo.EnsureSchema(ctx))

	run, err := repo.Start(ctx, model.RunImport)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, model.RunRunning, run.Status)

	run.Status = model.RunSucceeded
	run.RowsRead = 12
	run.RowsInserted = 7
	require.NoError(t, repo.Finish(ctx, run))

	recent, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	var found *model.ImportRun
	for i := range recent {
		if recent[i].ID == run.ID {
			found = &recent[i]
		}
	}
	require.NotNil(t, found)
	require.Equal(t, model.RunSucceeded, found.Status)
	require.EqualValues(t, 7, found.RowsInserted)
	require.NotNil(t, found.FinishedAt)
}
