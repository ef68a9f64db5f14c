package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/cityweather/db"
	"github.com/ceyewan/cityweather/testkit"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	database, err := db.New(testkit.NewSQLiteConnector(t), &db.Config{Silent: true})
	require.NoError(t, err)

	repo := NewGormRepository(database)
	require.NoError(t, repo.AutoMigrate(context.Background()))
	return repo
}

func TestGormRepository_FindByCity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.Upsert(ctx, Record{City: "Paris", Description: "Sunny", Icon: "weather-sunny"}))

	rec, err := repo.FindByCity(ctx, "Paris")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Sunny", rec.Description)

	rec, err = repo.FindByCity(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGormRepository_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.Upsert(ctx, Record{City: "Lima", Description: "Cloudy"}))
	require.NoError(t, repo.Upsert(ctx, Record{City: "Lima", Description: "Rainy", Icon: "weather-rainy"}))
	require.NoError(t, repo.Upsert(ctx))

	rec, err := repo.FindByCity(ctx, "Lima")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Rainy", rec.Description)
	assert.Equal(t, "weather-rainy", rec.Icon)
}
