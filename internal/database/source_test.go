package database_test

import (
	"context"
	"testing"
	"time"

	"ml-training/internal/core/types"
	"ml-training/internal/database"
	"ml-training/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	var count int64
	require.NoError(t, db.Model(&database.TrainingData{}).Count(&count).Error)
	return count
}

func TestEnsureSchemaAndSeedIsIdempotent(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	seeded, err := database.EnsureSchemaAndSeed(ctx, db)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, int64(8), countRows(t, db))

	seeded, err = database.EnsureSchemaAndSeed(ctx, db)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, int64(8), countRows(t, db))
}

func TestSeedLabelDistribution(t *testing.T) {
	counts := map[string]int{}
	for _, row := range database.SeedRows() {
		assert.True(t, row.IsActive)
		counts[row.Sentiment]++
	}
	assert.Equal(t, map[string]int{
		types.SentimentPositive: 3,
		types.SentimentNegative: 3,
		types.SentimentNeutral:  2,
	}, counts)
}

func TestEnsureSchemaSkipsExistingTable(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.Migrator().CreateTable(&database.TrainingData{}))

	seeded, err := database.EnsureSchemaAndSeed(context.Background(), db)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, int64(0), countRows(t, db))
}

func TestFetchActiveTrainingRows(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.Migrator().CreateTable(&database.TrainingData{}))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []database.TrainingData{
		{Text: "oldest", Sentiment: types.SentimentPositive, IsActive: true, CreatedAt: base},
		{Text: "newest", Sentiment: types.SentimentNegative, IsActive: true, CreatedAt: base.Add(2 * time.Hour)},
		{Text: "retired", Sentiment: types.SentimentNeutral, IsActive: false, CreatedAt: base.Add(3 * time.Hour)},
		{Text: "middle", Sentiment: types.SentimentNeutral, IsActive: true, CreatedAt: base.Add(time.Hour)},
	}
	require.NoError(t, db.Create(&rows).Error)

	fetched, err := database.NewSource(db).FetchActiveTrainingRows(context.Background())
	require.NoError(t, err)

	texts := make([]string, 0, len(fetched))
	for _, row := range fetched {
		assert.True(t, row.IsActive)
		texts = append(texts, row.Text)
	}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, texts)
}

func TestInactiveRowsAreStoredInactive(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.Migrator().CreateTable(&database.TrainingData{}))

	row := database.TrainingData{Text: "retired", Sentiment: types.SentimentNeutral, IsActive: false}
	require.NoError(t, db.Create(&row).Error)

	var stored database.TrainingData
	require.NoError(t, db.First(&stored, row.Id).Error)
	assert.False(t, stored.IsActive)

	fetched, err := database.NewSource(db).FetchActiveTrainingRows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fetched)
}

func TestIsActiveColumnDefaultsToTrue(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.Migrator().CreateTable(&database.TrainingData{}))

	require.NoError(t, db.Exec("INSERT INTO training_data (text, sentiment) VALUES (?, ?)", "inserted elsewhere", types.SentimentPositive).Error)

	fetched, err := database.NewSource(db).FetchActiveTrainingRows(context.Background())
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.True(t, fetched[0].IsActive)
	assert.Equal(t, "inserted elsewhere", fetched[0].Text)
}

func TestFetchOrdersTiesByInsertion(t *testing.T) {
	db := createDB(t)
	require.NoError(t, db.Migrator().CreateTable(&database.TrainingData{}))

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []database.TrainingData{
		{Text: "a", Sentiment: "positive", IsActive: true, CreatedAt: now},
		{Text: "b", Sentiment: "positive", IsActive: true, CreatedAt: now},
		{Text: "c", Sentiment: "positive", IsActive: true, CreatedAt: now},
	}
	require.NoError(t, db.Create(&rows).Error)

	source := database.NewSource(db)
	first, err := source.FetchActiveTrainingRows(context.Background())
	require.NoError(t, err)
	second, err := source.FetchActiveTrainingRows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "c", first[0].Text)
	assert.Equal(t, "a", first[2].Text)
}

func TestFetchWithoutTableIsDataSourceError(t *testing.T) {
	db := createDB(t)

	_, err := database.NewSource(db).FetchActiveTrainingRows(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.DataSource))
}
