package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ml-training/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func TestClient(t *testing.T) {
	modelId := uuid.New()
	info := api.ModelInfo{ModelId: modelId, Accuracy: 0.5, Version: "20250301_123045", CreatedAt: "2025-03-01T12:30:45.000000Z"}
	trained := false

	mux := http.NewServeMux()
	mux.HandleFunc("POST /train", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req api.TrainRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.True(t, req.Retrain)
		trained = true
		writeJSON(w, http.StatusOK, api.TrainResponse{ModelId: modelId, Accuracy: info.Accuracy, Version: info.Version})
	})
	mux.HandleFunc("GET /model/info", func(w http.ResponseWriter, r *http.Request) {
		if !trained {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
	mux.HandleFunc("GET /models", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []api.ModelInfo{info})
	})
	mux.HandleFunc("GET /models/{model_id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("model_id") != modelId.String() {
			writeJSON(w, http.StatusNotFound, api.ErrorResponse{Detail: "model not found"})
			return
		}
		writeJSON(w, http.StatusOK, info)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.HealthResponse{Status: "healthy", Service: "ml-training"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, 10*time.Second)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	current, err := c.ModelInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	res, err := c.Train(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, modelId, res.ModelId)

	current, err = c.ModelInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, info, *current)

	models, err := c.ListModels(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []api.ModelInfo{info}, models)

	got, err := c.GetModel(ctx, modelId)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	_, err = c.GetModel(ctx, uuid.New())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "model not found", apiErr.Detail)
}

func TestClientTrainFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Detail: "training.Train: no training data available", Kind: "TrainingError"})
	}))
	defer server.Close()

	_, err := New(server.URL, 10*time.Second).Train(context.Background(), false)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "TrainingError", apiErr.Kind)
	assert.Contains(t, apiErr.Error(), "no training data available")
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, time.Second).Health(context.Background())
	assert.Error(t, err)
}
