package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ml-training/internal/core/types"
	"ml-training/internal/errs"

	"github.com/google/uuid"
)

type Trainer struct {
	MaxFeatures int
	TestSize    float64
	Seed        uint64

	Now   func() time.Time
	NewId func() uuid.UUID
}

func NewTrainer() *Trainer {
	return &Trainer{
		MaxFeatures: DefaultMaxFeatures,
		TestSize:    DefaultTestSize,
		Seed:        DefaultRandomSeed,
		Now:         time.Now,
		NewId:       uuid.New,
	}
}

// FitAndEvaluate fits a fresh pipeline on the train partition of rows and
// scores it on the test partition. Inactive rows are ignored. The retrain flag
// is only recorded in the logs: every call is a full fit from scratch.
func (t *Trainer) FitAndEvaluate(rows []types.TrainingRow, retrain bool) (*Pipeline, types.ModelRecord, error) {
	const op = "core.FitAndEvaluate"

	texts := make([]string, 0, len(rows))
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		texts = append(texts, row.Text)
		labels = append(labels, row.Sentiment)
	}

	slog.Info("training sentiment model", "samples", len(texts), "retrain", retrain)

	if len(texts) == 0 {
		return nil, types.ModelRecord{}, errs.Ef(errs.Training, op, "no training data available")
	}
	if n := len(uniqueSorted(labels)); n < 2 {
		return nil, types.ModelRecord{}, errs.Ef(errs.Training, op, "training data has %d distinct label(s), at least 2 are required", n)
	}

	split, err := TrainTestSplit(len(texts), t.TestSize, t.Seed)
	if err != nil {
		return nil, types.ModelRecord{}, errs.E(errs.Training, op, err)
	}

	trainTexts, trainLabels := gather(texts, labels, split.Train)
	testTexts, testLabels := gather(texts, labels, split.Test)

	pipeline := &Pipeline{
		Vectorizer: NewTfidfVectorizer(t.MaxFeatures),
		Classifier: NewLogisticRegression(),
	}

	x, err := pipeline.Vectorizer.FitTransform(trainTexts)
	if err != nil {
		return nil, types.ModelRecord{}, errs.E(errs.Training, op, err)
	}

	if err := pipeline.Classifier.Fit(x, trainLabels); err != nil {
		if errors.Is(err, ErrSingleClass) {
			err = fmt.Errorf("train partition of %d samples: %w", len(trainTexts), err)
		}
		return nil, types.ModelRecord{}, errs.E(errs.Training, op, err)
	}

	accuracy, err := pipeline.Accuracy(testTexts, testLabels)
	if err != nil {
		return nil, types.ModelRecord{}, errs.E(errs.Training, op, err)
	}

	now := t.Now()
	record := types.ModelRecord{
		ModelId:   t.NewId(),
		Accuracy:  accuracy,
		Version:   types.FormatVersion(now),
		CreatedAt: types.FormatCreatedAt(now),
	}

	slog.Info("trained sentiment model", "model_id", record.ModelId, "version", record.Version, "accuracy", accuracy,
		"train_size", len(trainTexts), "test_size", len(testTexts), "vocabulary", len(pipeline.Vectorizer.Terms), "iterations", pipeline.Classifier.Iters)

	return pipeline, record, nil
}

func gather(texts, labels []string, idx []int) ([]string, []string) {
	outTexts := make([]string, len(idx))
	outLabels := make([]string, len(idx))
	for i, j := range idx {
		outTexts[i] = texts[j]
		outLabels[i] = labels[j]
	}
	return outTexts, outLabels
}
