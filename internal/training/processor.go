package training

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ml-training/internal/core"
	"ml-training/internal/messaging"
)

// EventProcessor consumes model trained events and checks that each announced
// model can be loaded back from its stored record and artifact.
type EventProcessor struct {
	service  *Service
	reciever messaging.Reciever
}

func NewEventProcessor(service *Service, reciever messaging.Reciever) *EventProcessor {
	return &EventProcessor{service: service, reciever: reciever}
}

// Start processes tasks until the receiver is closed.
func (proc *EventProcessor) Start() {
	slog.Info("starting model trained event processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *EventProcessor) Stop() {
	slog.Info("stopping model trained event processor")

	proc.reciever.Close()
}

func (proc *EventProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	if task.Type() != messaging.ModelTrainedQueue {
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var payload messaging.ModelTrainedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling model trained event", "error", err)
		if err := task.Reject(); err != nil { // Discard malformed message
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if _, err := proc.VerifyModelTrained(ctx, payload); err != nil {
		slog.Error("error verifying trained model", "model_id", payload.ModelId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
		return
	}

	slog.Info("verified trained model", "model_id", payload.ModelId, "version", payload.Version)
	if err := task.Ack(); err != nil {
		slog.Error("error acknowledging message from queue", "error", err)
	}
}

// VerifyModelTrained loads the model an event announces. The stored record must
// exist and agree with the event.
func (proc *EventProcessor) VerifyModelTrained(ctx context.Context, payload messaging.ModelTrainedPayload) (*core.Pipeline, error) {
	record, err := proc.service.GetModel(ctx, payload.ModelId)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("model %s has no stored record", payload.ModelId)
	}
	if record.Version != payload.Version {
		return nil, fmt.Errorf("model %s is stored with version %s, event has %s", payload.ModelId, record.Version, payload.Version)
	}

	return proc.service.LoadModel(ctx, *record)
}
