package database

import (
	"context"
	"fmt"
	"log/slog"

	"ml-training/internal/core/types"
	"ml-training/internal/errs"

	"gorm.io/gorm"
)

type seedRow struct {
	text      string
	sentiment string
}

var seedData = []seedRow{
	{"This movie is amazing and wonderful!", types.SentimentPositive},
	{"I love this product, it's fantastic!", types.SentimentPositive},
	{"Great service and excellent quality", types.SentimentPositive},
	{"This is terrible and awful", types.SentimentNegative},
	{"I hate this, it's so bad", types.SentimentNegative},
	{"Poor quality and bad service", types.SentimentNegative},
	{"It's okay, not great but not bad", types.SentimentNeutral},
	{"Average product with decent features", types.SentimentNeutral},
}

// SeedRows returns the sample rows inserted when the training table is first created.
func SeedRows() []TrainingData {
	rows := make([]TrainingData, 0, len(seedData))
	for _, row := range seedData {
		rows = append(rows, TrainingData{Text: row.text, Sentiment: row.sentiment, IsActive: true})
	}
	return rows
}

// EnsureSchemaAndSeed creates the training table and inserts the seed rows, but
// only when the table does not exist yet. An existing table is never written
// to, whatever it contains. Reports whether the seed was inserted.
func EnsureSchemaAndSeed(ctx context.Context, db *gorm.DB) (bool, error) {
	seeded := false

	err := db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if txn.Migrator().HasTable(&TrainingData{}) {
			return nil
		}

		if err := txn.Migrator().CreateTable(&TrainingData{}); err != nil {
			return fmt.Errorf("error creating %s table: %w", TrainingDataTable, err)
		}

		rows := SeedRows()
		if err := txn.Create(&rows).Error; err != nil {
			return fmt.Errorf("error inserting sample training data: %w", err)
		}

		seeded = true
		return nil
	})
	if err != nil {
		slog.Error("failed to ensure sample training data", "error", err)
		return false, errs.E(errs.DataSource, "database.EnsureSchemaAndSeed", err)
	}

	if seeded {
		slog.Info("created sample training data", "table", TrainingDataTable, "rows", len(seedData))
	}

	return seeded, nil
}

type Source struct {
	db *gorm.DB
}

func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

func (s *Source) EnsureSchemaAndSeed(ctx context.Context) (bool, error) {
	return EnsureSchemaAndSeed(ctx, s.db)
}

// FetchActiveTrainingRows returns the active rows newest first. Rows sharing a
// created_at are ordered by descending id so the sequence is reproducible.
func (s *Source) FetchActiveTrainingRows(ctx context.Context) ([]types.TrainingRow, error) {
	var records []TrainingData
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		slog.Error("failed to load training data", "error", err)
		return nil, errs.E(errs.DataSource, "database.FetchActiveTrainingRows", fmt.Errorf("error querying %s: %w", TrainingDataTable, err))
	}

	rows := make([]types.TrainingRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, types.TrainingRow{
			Text:      record.Text,
			Sentiment: record.Sentiment,
			IsActive:  record.IsActive,
			CreatedAt: record.CreatedAt,
		})
	}

	slog.Info("loaded training samples", "count", len(rows))
	return rows, nil
}
