package api

import (
	"net/http"

	"ml-training/internal/training"
	"ml-training/pkg/api"

	"github.com/go-chi/chi/v5"
)

const ServiceName = "ml-training"

type BackendService struct {
	training *training.Service
}

func NewBackendService(service *training.Service) *BackendService {
	return &BackendService{training: service}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Post("/train", RestHandler(s.Train))
	r.Get("/model/info", RestHandler(s.ModelInfo))
	r.Route("/models", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListModels))
		r.Get("/{model_id}", RestHandler(s.GetModel))
	})
	r.Get("/metrics/predictions", RestHandler(s.PredictionMetrics))
}

func (s *BackendService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "healthy", Service: ServiceName}, nil
}

func (s *BackendService) Train(r *http.Request) (any, error) {
	req, err := ParseRequest[api.TrainRequest](r)
	if err != nil {
		return nil, err
	}

	record, err := s.training.Train(r.Context(), req.Retrain)
	if err != nil {
		return nil, err
	}

	return api.TrainResponse{ModelId: record.ModelId, Accuracy: record.Accuracy, Version: record.Version}, nil
}

// ModelInfo responds with null when no model has been trained yet.
func (s *BackendService) ModelInfo(r *http.Request) (any, error) {
	record, err := s.training.CurrentModelInfo(r.Context())
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	info := convertModel(*record)
	return &info, nil
}

func (s *BackendService) ListModels(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListModelsParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must be non-negative")
	}

	records, err := s.training.ListModels(r.Context(), params.Limit)
	if err != nil {
		return nil, err
	}

	return convertModels(records), nil
}

func (s *BackendService) GetModel(r *http.Request) (any, error) {
	modelId, err := URLParamUUID(r, "model_id")
	if err != nil {
		return nil, err
	}

	record, err := s.training.GetModel(r.Context(), modelId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, CodedErrorf(http.StatusNotFound, "model %s not found", modelId)
	}

	return convertModel(*record), nil
}

func (s *BackendService) PredictionMetrics(r *http.Request) (any, error) {
	metrics, err := s.training.PredictionMetrics(r.Context())
	if err != nil {
		return nil, err
	}
	return convertPredictionMetrics(metrics), nil
}
