package api

import (
	"time"

	"github.com/google/uuid"
)

type TrainRequest struct {
	Retrain bool `json:"retrain"`
}

type TrainResponse struct {
	ModelId  uuid.UUID `json:"model_id"`
	Accuracy float64   `json:"accuracy"`
	Version  string    `json:"version"`
}

type ModelInfo struct {
	ModelId   uuid.UUID `json:"model_id"`
	Accuracy  float64   `json:"accuracy"`
	Version   string    `json:"version"`
	CreatedAt string    `json:"created_at"`
}

type ListModelsParams struct {
	Limit int `schema:"limit"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type PredictionMetrics struct {
	TotalPredictions int       `json:"total_predictions"`
	PositiveRatio    float64   `json:"positive_ratio"`
	AvgConfidence    float64   `json:"avg_confidence"`
	Timestamp        time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}
