package training

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ml-training/internal/core"
	"ml-training/internal/core/types"
	"ml-training/internal/errs"
	"ml-training/internal/storage"
)

// ArtifactKey is the storage key of the artifact trained at version.
func ArtifactKey(version string) string {
	return fmt.Sprintf("sentiment_model_%s.gob", version)
}

type RecordWriter interface {
	PutModelRecord(ctx context.Context, record types.ModelRecord) error
}

// Persister stores a fitted pipeline and then its metadata record. A record is
// never written for an artifact that failed to store. If the record write
// fails the artifact is left in place.
type Persister struct {
	objects storage.ObjectStore
	records RecordWriter
}

func NewPersister(objects storage.ObjectStore, records RecordWriter) *Persister {
	return &Persister{objects: objects, records: records}
}

// Persist returns the location of the stored artifact.
func (p *Persister) Persist(ctx context.Context, pipeline *core.Pipeline, record types.ModelRecord) (string, error) {
	const op = "training.Persist"

	key := ArtifactKey(record.Version)
	location := p.objects.Location(key)

	var buf bytes.Buffer
	if err := core.EncodePipeline(&buf, pipeline); err != nil {
		slog.Error("error encoding model artifact", "version", record.Version, "error", err)
		return "", errs.E(errs.Persistence, op, err)
	}

	if err := p.objects.PutObject(ctx, key, &buf); err != nil {
		slog.Error("error writing model artifact", "location", location, "error", err)
		return "", errs.E(errs.Persistence, op, err)
	}

	slog.Info("model artifact saved", "location", location, "version", record.Version)

	if err := p.records.PutModelRecord(ctx, record); err != nil {
		slog.Error("model artifact saved without metadata record", "location", location, "model_id", record.ModelId, "error", err)
		if errs.KindOf(err) == errs.Unknown {
			err = errs.E(errs.MetadataStore, op, err)
		}
		return "", err
	}

	return location, nil
}

// Load decodes the artifact stored for version.
func (p *Persister) Load(ctx context.Context, version string) (*core.Pipeline, error) {
	const op = "training.Load"

	data, err := p.objects.GetObject(ctx, ArtifactKey(version))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, errs.Ef(errs.Persistence, op, "no artifact for version %s: %w", version, err)
		}
		return nil, errs.E(errs.Persistence, op, err)
	}

	pipeline, err := core.DecodePipeline(bytes.NewReader(data))
	if err != nil {
		return nil, errs.E(errs.Persistence, op, err)
	}

	return pipeline, nil
}
