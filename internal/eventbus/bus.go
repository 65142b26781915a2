// Package eventbus connects the engine to NATS: a durable JetStream work
// queue for inbound task requests and a plain subject stream for outbound
// task events.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
)

const (
	taskStream      = "APPFORGE_TASKS"
	taskSubject     = "appforge.tasks"
	eventSubjectFmt = "appforge.events.%s"
	consumerName    = "ai-engine"
)

// Bus is the NATS connection shared by the consumer and the publisher.
// One instance per process, injected where needed.
type Bus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// Connect dials NATS and provisions the task stream
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	// Idempotent: AddStream succeeds if the stream already exists with
	// the same config.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      taskStream,
		Subjects:  []string{taskSubject},
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("provision task stream: %w", err)
	}

	logger.Info("connected to nats", zap.String("url", url))
	return &Bus{nc: nc, js: js, logger: logger}, nil
}

// SubscribeTasks attaches a durable consumer to the task queue. The handler
// owns acknowledgement: ack only after the task is safely handed to the
// pipeline, so an engine crash redelivers the message.
func (b *Bus) SubscribeTasks(handler func(req models.TaskRequest, ack func())) (*nats.Subscription, error) {
	sub, err := b.js.Subscribe(taskSubject, func(msg *nats.Msg) {
		var req models.TaskRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			b.logger.Error("discarding malformed task message", zap.Error(err))
			// Poison message: ack so the broker stops redelivering it
			msg.Ack()
			return
		}
		handler(req, func() {
			if err := msg.Ack(); err != nil {
				b.logger.Warn("task ack failed", zap.String("task_id", req.TaskID), zap.Error(err))
			}
		})
	}, nats.Durable(consumerName), nats.ManualAck(), nats.AckWait(2*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("subscribe to task queue: %w", err)
	}
	return sub, nil
}

// PublishTask enqueues a task request. Used by the HTTP front door and by
// tests that drive the queue end to end.
func (b *Bus) PublishTask(req models.TaskRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode task request: %w", err)
	}
	if _, err := b.js.Publish(taskSubject, payload); err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	return nil
}

// PublishEvent emits a task event on the per-task subject. Event publishing
// is best effort; a lost progress event must not fail the task.
func (b *Bus) PublishEvent(event models.TaskEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("encode task event", zap.Error(err))
		return
	}
	subject := fmt.Sprintf(eventSubjectFmt, event.TaskID)
	if err := b.nc.Publish(subject, payload); err != nil {
		b.logger.Warn("publish task event failed",
			zap.String("task_id", event.TaskID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Close drains the connection so in-flight messages settle
func (b *Bus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn("nats drain failed", zap.Error(err))
		b.nc.Close()
	}
}
