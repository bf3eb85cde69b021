// Package client is a thin HTTP client for the training service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ml-training/pkg/api"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type APIError struct {
	StatusCode int
	Detail     string
	Kind       string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("request failed with status %d (%s): %s", e.StatusCode, e.Kind, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	client *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) do(req *resty.Request, method, endpoint string, out any) error {
	res, err := req.Execute(method, endpoint)
	if err != nil {
		return fmt.Errorf("error calling %s %s: %w", method, endpoint, err)
	}

	if !res.IsSuccess() {
		apiErr := &APIError{StatusCode: res.StatusCode()}
		var body api.ErrorResponse
		if err := json.Unmarshal(res.Body(), &body); err == nil && body.Detail != "" {
			apiErr.Detail, apiErr.Kind = body.Detail, body.Kind
		} else {
			apiErr.Detail = res.String()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("error parsing response from %s %s: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) Train(ctx context.Context, retrain bool) (api.TrainResponse, error) {
	var res api.TrainResponse
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(api.TrainRequest{Retrain: retrain})
	err := c.do(req, http.MethodPost, "/train", &res)
	return res, err
}

// ModelInfo returns nil if the service has not trained a model yet.
func (c *Client) ModelInfo(ctx context.Context) (*api.ModelInfo, error) {
	var res *api.ModelInfo
	if err := c.do(c.client.R().SetContext(ctx), http.MethodGet, "/model/info", &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) ListModels(ctx context.Context, limit int) ([]api.ModelInfo, error) {
	req := c.client.R().SetContext(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var res []api.ModelInfo
	if err := c.do(req, http.MethodGet, "/models", &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) GetModel(ctx context.Context, id uuid.UUID) (api.ModelInfo, error) {
	var res api.ModelInfo
	req := c.client.R().SetContext(ctx).SetPathParam("model_id", id.String())
	err := c.do(req, http.MethodGet, "/models/{model_id}", &res)
	return res, err
}

func (c *Client) PredictionMetrics(ctx context.Context) (api.PredictionMetrics, error) {
	var res api.PredictionMetrics
	err := c.do(c.client.R().SetContext(ctx), http.MethodGet, "/metrics/predictions", &res)
	return res, err
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var res api.HealthResponse
	err := c.do(c.client.R().SetContext(ctx), http.MethodGet, "/health", &res)
	return res, err
}
