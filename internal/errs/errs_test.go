package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"ml-training/internal/errs"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")

	err := errs.E(errs.DataSource, "database.FetchActiveTrainingRows", base)
	assert.Equal(t, errs.DataSource, errs.KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "database.FetchActiveTrainingRows: connection refused", err.Error())

	wrapped := fmt.Errorf("train: %w", err)
	assert.True(t, errs.Is(wrapped, errs.DataSource))
	assert.False(t, errs.Is(wrapped, errs.Training))

	assert.Equal(t, errs.Unknown, errs.KindOf(base))
	assert.Nil(t, errs.E(errs.Training, "op", nil))
	assert.False(t, errs.Is(nil, errs.Unknown))
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "DataSourceError", errs.DataSource.String())
	assert.Equal(t, "MetadataStoreError", errs.MetadataStore.String())
	assert.Equal(t, "TrainingError", errs.Training.String())
	assert.Equal(t, "PersistenceError", errs.Persistence.String())
	assert.Equal(t, "UnknownError", errs.Unknown.String())
}
