package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

const (
	// VersionLayout is fixed width so that versions sort lexicographically in
	// creation order.
	VersionLayout = "20060102_150405"

	// CreatedAtLayout always prints six fractional digits, unlike RFC3339Nano,
	// so string order and time order agree.
	CreatedAtLayout = "2006-01-02T15:04:05.000000Z07:00"
)

type TrainingRow struct {
	Text      string
	Sentiment string
	IsActive  bool
	CreatedAt time.Time
}

type ModelRecord struct {
	ModelId   uuid.UUID `json:"model_id"`
	Accuracy  float64   `json:"accuracy"`
	Version   string    `json:"version"`
	CreatedAt string    `json:"created_at"`
}

// NewerThan orders records by created_at, then version, then model_id.
func (r ModelRecord) NewerThan(other ModelRecord) bool {
	if r.CreatedAt != other.CreatedAt {
		return r.CreatedAt > other.CreatedAt
	}
	if r.Version != other.Version {
		return r.Version > other.Version
	}
	return r.ModelId.String() > other.ModelId.String()
}

func FormatVersion(t time.Time) string {
	return t.UTC().Format(VersionLayout)
}

func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

type PredictionRecord struct {
	PredictionId string  `dynamodbav:"prediction_id" json:"prediction_id"`
	Text         string  `dynamodbav:"text" json:"text"`
	Sentiment    string  `dynamodbav:"sentiment" json:"sentiment"`
	Confidence   float64 `dynamodbav:"confidence" json:"confidence"`
	Timestamp    string  `dynamodbav:"timestamp" json:"timestamp"`
}

type PredictionMetrics struct {
	TotalPredictions int       `json:"total_predictions"`
	PositiveRatio    float64   `json:"positive_ratio"`
	AvgConfidence    float64   `json:"avg_confidence"`
	Timestamp        time.Time `json:"timestamp"`
}
