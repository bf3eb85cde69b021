package api

import (
	"ml-training/internal/core/types"
	"ml-training/pkg/api"
)

func convertModel(m types.ModelRecord) api.ModelInfo {
	return api.ModelInfo{
		ModelId:   m.ModelId,
		Accuracy:  m.Accuracy,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
	}
}

func convertModels(ms []types.ModelRecord) []api.ModelInfo {
	models := make([]api.ModelInfo, 0, len(ms))
	for _, m := range ms {
		models = append(models, convertModel(m))
	}
	return models
}

func convertPredictionMetrics(m types.PredictionMetrics) api.PredictionMetrics {
	return api.PredictionMetrics{
		TotalPredictions: m.TotalPredictions,
		PositiveRatio:    m.PositiveRatio,
		AvgConfidence:    m.AvgConfidence,
		Timestamp:        m.Timestamp,
	}
}
