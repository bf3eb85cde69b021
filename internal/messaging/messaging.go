package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ModelTrainedQueue = "model_trained_queue"
	RetryDelay        = 5 * time.Second
	MaxConnectRetry   = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// ModelTrainedPayload announces a model whose artifact and metadata have both
// been written.
type ModelTrainedPayload struct {
	ModelId      uuid.UUID `json:"model_id"`
	Version      string    `json:"version"`
	Accuracy     float64   `json:"accuracy"`
	CreatedAt    string    `json:"created_at"`
	ArtifactPath string    `json:"artifact_path"`
}

type Publisher interface {
	PublishModelTrained(ctx context.Context, payload ModelTrainedPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
