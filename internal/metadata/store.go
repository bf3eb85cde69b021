package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"ml-training/internal/core/types"
	"ml-training/internal/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

const (
	DefaultModelTable      = "ml_models"
	DefaultPredictionTable = "predictions"

	modelKey      = "model_id"
	predictionKey = "prediction_id"

	tableActiveTimeout = 2 * time.Minute
)

type modelItem struct {
	ModelId   string  `dynamodbav:"model_id"`
	Accuracy  float64 `dynamodbav:"accuracy"`
	Version   string  `dynamodbav:"version"`
	CreatedAt string  `dynamodbav:"created_at"`
}

func (item modelItem) record() (types.ModelRecord, error) {
	id, err := uuid.Parse(item.ModelId)
	if err != nil {
		return types.ModelRecord{}, fmt.Errorf("invalid model_id %q: %w", item.ModelId, err)
	}
	return types.ModelRecord{ModelId: id, Accuracy: item.Accuracy, Version: item.Version, CreatedAt: item.CreatedAt}, nil
}

type Store struct {
	client          DynamoAPI
	modelTable      string
	predictionTable string

	// ScanPageSize bounds the items returned per Scan call, 0 leaves it to the server.
	ScanPageSize int32

	now func() time.Time
}

func NewStore(client DynamoAPI, modelTable, predictionTable string) *Store {
	return &Store{
		client:          client,
		modelTable:      modelTable,
		predictionTable: predictionTable,
		now:             time.Now,
	}
}

func (s *Store) ModelTable() string {
	return s.modelTable
}

// EnsureTables creates the model and prediction tables if they do not exist and
// waits for them to become active.
func (s *Store) EnsureTables(ctx context.Context) error {
	const op = "metadata.EnsureTables"

	for _, table := range []struct{ name, key string }{
		{s.modelTable, modelKey},
		{s.predictionTable, predictionKey},
	} {
		if err := s.ensureTable(ctx, table.name, table.key); err != nil {
			slog.Error("error creating metadata table", "table", table.name, "error", err)
			return errs.E(errs.MetadataStore, op, err)
		}
	}

	return nil
}

func (s *Store) ensureTable(ctx context.Context, name, key string) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: ddbtypes.KeyTypeHash},
		},
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *ddbtypes.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
		slog.Info("table already exists", "table", name)
	} else {
		slog.Info("table created", "table", name)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = time.Second
		o.MaxDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, tableActiveTimeout); err != nil {
		return fmt.Errorf("table %s did not become active: %w", name, err)
	}

	return nil
}

// PutModelRecord overwrites any record with the same model_id.
func (s *Store) PutModelRecord(ctx context.Context, record types.ModelRecord) error {
	const op = "metadata.PutModelRecord"

	item, err := attributevalue.MarshalMap(modelItem{
		ModelId:   record.ModelId.String(),
		Accuracy:  record.Accuracy,
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return errs.E(errs.MetadataStore, op, fmt.Errorf("error marshalling model record: %w", err))
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.modelTable), Item: item}); err != nil {
		slog.Error("error saving model record", "model_id", record.ModelId, "error", err)
		return errs.E(errs.MetadataStore, op, fmt.Errorf("error saving model record %s: %w", record.ModelId, err))
	}

	slog.Info("saved model record", "model_id", record.ModelId, "version", record.Version)

	return nil
}

// GetModelRecord returns nil when no record has the given id.
func (s *Store) GetModelRecord(ctx context.Context, id uuid.UUID) (*types.ModelRecord, error) {
	const op = "metadata.GetModelRecord"

	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.modelTable),
		Key: map[string]ddbtypes.AttributeValue{
			modelKey: &ddbtypes.AttributeValueMemberS{Value: id.String()},
		},
	})
	if err != nil {
		slog.Error("error getting model record", "model_id", id, "error", err)
		return nil, errs.E(errs.MetadataStore, op, fmt.Errorf("error getting model record %s: %w", id, err))
	}
	if len(output.Item) == 0 {
		return nil, nil
	}

	var item modelItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, errs.E(errs.MetadataStore, op, fmt.Errorf("error unmarshalling model record: %w", err))
	}
	record, err := item.record()
	if err != nil {
		return nil, errs.E(errs.MetadataStore, op, err)
	}

	return &record, nil
}

// scan visits every item of the table, one page at a time.
func (s *Store) scan(ctx context.Context, table string, visit func(map[string]ddbtypes.AttributeValue) error) error {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if s.ScanPageSize > 0 {
		input.Limit = aws.Int32(s.ScanPageSize)
	}

	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("error scanning table %s: %w", table, err)
		}
		for _, item := range page.Items {
			if err := visit(item); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Store) scanModelRecords(ctx context.Context, visit func(types.ModelRecord)) error {
	return s.scan(ctx, s.modelTable, func(raw map[string]ddbtypes.AttributeValue) error {
		var item modelItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return fmt.Errorf("error unmarshalling model record: %w", err)
		}
		record, err := item.record()
		if err != nil {
			return err
		}
		visit(record)
		return nil
	})
}

// GetLatestModelRecord reads the whole model table and returns the record with
// the greatest created_at, or nil if the table is empty. The cost is linear in
// the number of records.
func (s *Store) GetLatestModelRecord(ctx context.Context) (*types.ModelRecord, error) {
	const op = "metadata.GetLatestModelRecord"

	var latest *types.ModelRecord
	err := s.scanModelRecords(ctx, func(record types.ModelRecord) {
		if latest == nil || record.NewerThan(*latest) {
			latest = &record
		}
	})
	if err != nil {
		slog.Error("error finding latest model record", "error", err)
		return nil, errs.E(errs.MetadataStore, op, err)
	}

	return latest, nil
}

// ListModelRecords returns every record, newest first.
func (s *Store) ListModelRecords(ctx context.Context) ([]types.ModelRecord, error) {
	const op = "metadata.ListModelRecords"

	records := []types.ModelRecord{}
	err := s.scanModelRecords(ctx, func(record types.ModelRecord) {
		records = append(records, record)
	})
	if err != nil {
		slog.Error("error listing model records", "error", err)
		return nil, errs.E(errs.MetadataStore, op, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].NewerThan(records[j])
	})

	return records, nil
}

func (s *Store) PutPredictionRecord(ctx context.Context, record types.PredictionRecord) error {
	const op = "metadata.PutPredictionRecord"

	if record.PredictionId == "" {
		return errs.Ef(errs.MetadataStore, op, "prediction_id is required")
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return errs.E(errs.MetadataStore, op, fmt.Errorf("error marshalling prediction record: %w", err))
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.predictionTable), Item: item}); err != nil {
		slog.Error("error saving prediction record", "prediction_id", record.PredictionId, "error", err)
		return errs.E(errs.MetadataStore, op, fmt.Errorf("error saving prediction record %s: %w", record.PredictionId, err))
	}

	return nil
}

func (s *Store) ListPredictionRecords(ctx context.Context) ([]types.PredictionRecord, error) {
	const op = "metadata.ListPredictionRecords"

	records := []types.PredictionRecord{}
	err := s.scan(ctx, s.predictionTable, func(raw map[string]ddbtypes.AttributeValue) error {
		var record types.PredictionRecord
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return fmt.Errorf("error unmarshalling prediction record: %w", err)
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		slog.Error("error listing prediction records", "error", err)
		return nil, errs.E(errs.MetadataStore, op, err)
	}

	return records, nil
}

// PredictionMetrics summarizes the predictions table: the share of positive
// predictions and the mean confidence over all predictions.
func (s *Store) PredictionMetrics(ctx context.Context) (types.PredictionMetrics, error) {
	records, err := s.ListPredictionRecords(ctx)
	if err != nil {
		return types.PredictionMetrics{}, err
	}

	metrics := types.PredictionMetrics{
		TotalPredictions: len(records),
		Timestamp:        s.now().UTC(),
	}

	positive := 0
	totalConfidence := 0.0
	for _, record := range records {
		if record.Sentiment == types.SentimentPositive {
			positive++
		}
		totalConfidence += record.Confidence
	}

	if metrics.TotalPredictions > 0 {
		metrics.PositiveRatio = float64(positive) / float64(metrics.TotalPredictions)
		metrics.AvgConfidence = totalConfidence / float64(metrics.TotalPredictions)
	}

	return metrics, nil
}
