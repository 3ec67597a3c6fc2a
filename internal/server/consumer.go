package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/async"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

// Topics maps NSQ topics to the job kind their messages start.
var Topics = map[string]constants.JobKind{
	"ingest.resume":      constants.JobKindResume,
	"ingest.archive":     constants.JobKindArchive,
	"ingest.spreadsheet": constants.JobKindSpreadsheet,
}

// TriggerMessage is the body of an ingest message.
type TriggerMessage struct {
	JobID         string `json:"job_id"`
	Filename      string `json:"filename"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NSQHandler turns messages on one topic into jobs.
type NSQHandler struct {
	kind   constants.JobKind
	queue  async.Queue
	logger *slog.Logger
}

func NewNSQHandler(kind constants.JobKind, queue async.Queue, logger *slog.Logger) *NSQHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NSQHandler{kind: kind, queue: queue, logger: logger}
}

// HandleMessage enqueues the job. Malformed messages are dropped rather than requeued.
func (h *NSQHandler) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var msg TriggerMessage
	err := json.Unmarshal(m.Body, &msg)

	requestID := msg.CorrelationID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx := common.WithRequestID(context.Background(), requestID)

	if err != nil {
		h.logger.ErrorContext(ctx, "invalid message format", "kind", h.kind, "error", err)
		return nil
	}
	id, err := uuid.Parse(msg.JobID)
	if err != nil || msg.Filename == "" {
		h.logger.ErrorContext(ctx, "missing required fields, dropping", "kind", h.kind, "job_id", msg.JobID, "filename", msg.Filename)
		return nil
	}

	err = h.queue.Enqueue(ctx, entity.Job{ID: id, Kind: h.kind, Filename: msg.Filename})
	if errors.Is(err, async.ErrShuttingDown) {
		// Requeue so another instance picks it up.
		return err
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "job rejected, dropping", "kind", h.kind, "job_id", id, "error", err)
	}
	return nil
}

// NSQConsumers subscribes one consumer per topic.
type NSQConsumers struct {
	consumers []*nsq.Consumer
	logger    *slog.Logger
}

// StartNSQConsumers connects to lookupd and starts consuming every ingest topic on channel.
func StartNSQConsumers(lookupd, channel string, queue async.Queue, logger *slog.Logger) (*NSQConsumers, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &NSQConsumers{logger: logger}
	for topic, kind := range Topics {
		cfg := nsq.NewConfig()
		cfg.MaxInFlight = 8
		consumer, err := nsq.NewConsumer(topic, channel, cfg)
		if err != nil {
			c.Stop()
			return nil, fmt.Errorf("nsq consumer %s: %w", topic, err)
		}
		consumer.SetLogger(nil, nsq.LogLevelError)
		consumer.AddHandler(NewNSQHandler(kind, queue, logger))
		if err := consumer.ConnectToNSQLookupd(lookupd); err != nil {
			consumer.Stop()
			c.Stop()
			return nil, fmt.Errorf("nsq connect %s: %w", topic, err)
		}
		c.consumers = append(c.consumers, consumer)
		logger.Info("nsq consumer started", "topic", topic, "channel", channel)
	}
	return c, nil
}

// Stop stops every consumer and waits for in-flight handlers.
func (c *NSQConsumers) Stop() {
	for _, consumer := range c.consumers {
		consumer.Stop()
	}
	for _, consumer := range c.consumers {
		<-consumer.StopChan
	}
}
