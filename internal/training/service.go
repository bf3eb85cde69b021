package training

import (
	"context"
	"log/slog"
	"time"

	"ml-training/internal/core"
	"ml-training/internal/core/types"
	"ml-training/internal/errs"
	"ml-training/internal/messaging"
	"ml-training/internal/storage"

	"github.com/google/uuid"
)

type RowSource interface {
	FetchActiveTrainingRows(ctx context.Context) ([]types.TrainingRow, error)
}

type ModelTrainer interface {
	FitAndEvaluate(rows []types.TrainingRow, retrain bool) (*core.Pipeline, types.ModelRecord, error)
}

type MetadataStore interface {
	RecordWriter
	GetLatestModelRecord(ctx context.Context) (*types.ModelRecord, error)
	GetModelRecord(ctx context.Context, id uuid.UUID) (*types.ModelRecord, error)
	ListModelRecords(ctx context.Context) ([]types.ModelRecord, error)
	PredictionMetrics(ctx context.Context) (types.PredictionMetrics, error)
}

// DefaultPublishTimeout bounds the model trained publish after a model is stored.
const DefaultPublishTimeout = 5 * time.Second

type Service struct {
	// PublishTimeout bounds PublishModelTrained. Zero disables the bound.
	PublishTimeout time.Duration

	source    RowSource
	trainer   ModelTrainer
	records   MetadataStore
	persister *Persister
	publisher messaging.Publisher
}

// NewService wires the training workflow. publisher may be nil, in which case
// no model trained events are sent.
func NewService(source RowSource, trainer ModelTrainer, objects storage.ObjectStore, records MetadataStore, publisher messaging.Publisher) *Service {
	return &Service{
		PublishTimeout: DefaultPublishTimeout,

		source:    source,
		trainer:   trainer,
		records:   records,
		persister: NewPersister(objects, records),
		publisher: publisher,
	}
}

// wrap tags err with op while keeping the kind assigned by the component that
// detected it. Errors without a kind get fallback.
func wrap(fallback errs.Kind, op string, err error) error {
	kind := errs.KindOf(err)
	if kind == errs.Unknown {
		kind = fallback
	}
	return errs.E(kind, op, err)
}

// Train runs one full training: fetch the active rows, fit and evaluate a new
// pipeline, store its artifact and then its record. Every call fits from
// scratch; retrain is only logged.
func (s *Service) Train(ctx context.Context, retrain bool) (types.ModelRecord, error) {
	const op = "training.Train"

	slog.Info("starting model training", "retrain", retrain)

	rows, err := s.source.FetchActiveTrainingRows(ctx)
	if err != nil {
		return types.ModelRecord{}, wrap(errs.DataSource, op, err)
	}

	pipeline, record, err := s.trainer.FitAndEvaluate(rows, retrain)
	if err != nil {
		return types.ModelRecord{}, wrap(errs.Training, op, err)
	}

	location, err := s.persister.Persist(ctx, pipeline, record)
	if err != nil {
		return types.ModelRecord{}, wrap(errs.Persistence, op, err)
	}

	slog.Info("model training complete", "model_id", record.ModelId, "version", record.Version, "accuracy", record.Accuracy, "location", location)

	s.publishModelTrained(ctx, record, location)

	return record, nil
}

// publishModelTrained sends the event for a stored model. Failures are only
// logged since the model and its record already exist.
func (s *Service) publishModelTrained(ctx context.Context, record types.ModelRecord, location string) {
	if s.publisher == nil {
		return
	}

	if s.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.PublishTimeout)
		defer cancel()
	}

	payload := messaging.ModelTrainedPayload{
		ModelId:      record.ModelId,
		Version:      record.Version,
		Accuracy:     record.Accuracy,
		CreatedAt:    record.CreatedAt,
		ArtifactPath: location,
	}
	if err := s.publisher.PublishModelTrained(ctx, payload); err != nil {
		slog.Warn("error publishing model trained event", "model_id", record.ModelId, "error", err)
	}
}

// CurrentModelInfo returns the most recently created record, or nil if no
// model has been trained.
func (s *Service) CurrentModelInfo(ctx context.Context) (*types.ModelRecord, error) {
	record, err := s.records.GetLatestModelRecord(ctx)
	if err != nil {
		return nil, wrap(errs.MetadataStore, "training.CurrentModelInfo", err)
	}
	return record, nil
}

// ListModels returns records newest first, at most limit of them when limit is
// positive.
func (s *Service) ListModels(ctx context.Context, limit int) ([]types.ModelRecord, error) {
	records, err := s.records.ListModelRecords(ctx)
	if err != nil {
		return nil, wrap(errs.MetadataStore, "training.ListModels", err)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Service) GetModel(ctx context.Context, id uuid.UUID) (*types.ModelRecord, error) {
	record, err := s.records.GetModelRecord(ctx, id)
	if err != nil {
		return nil, wrap(errs.MetadataStore, "training.GetModel", err)
	}
	return record, nil
}

func (s *Service) PredictionMetrics(ctx context.Context) (types.PredictionMetrics, error) {
	metrics, err := s.records.PredictionMetrics(ctx)
	if err != nil {
		return types.PredictionMetrics{}, wrap(errs.MetadataStore, "training.PredictionMetrics", err)
	}
	return metrics, nil
}

// LoadModel decodes the artifact behind a stored record.
func (s *Service) LoadModel(ctx context.Context, record types.ModelRecord) (*core.Pipeline, error) {
	return s.persister.Load(ctx, record.Version)
}
