package syncqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"pos_terminal_backend/internal/models"
	"pos_terminal_backend/internal/repositories"
	"pos_terminal_backend/pkg/utils"
)

// Publisher drains the outbound sync queue into Kafka. It runs beside
// the HTTP server and never blocks a local transaction: rows are written
// by the services, picked up here in batches, and retried until the
// broker accepts them. Messages are keyed by table and record id so the
// remote consumer can collapse repeated snapshots of the same row.
type Publisher struct {
	syncRepo  repositories.SyncRepository
	writer    *kafka.Writer
	interval  time.Duration
	batchSize int
}

// NewPublisher creates a Publisher over the given broker and topic.
func NewPublisher(syncRepo repositories.SyncRepository, brokerAddr, topic string, interval time.Duration, batchSize int) *Publisher {
	return &Publisher{
		syncRepo: syncRepo,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokerAddr),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
		},
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run drains the queue on a fixed interval until the context is
// cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.writer.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				utils.LogError(err, "sync publisher: drain failed")
			}
		}
	}
}

// drainOnce publishes one batch. A broker failure marks the whole batch
// for retry; partial batches are fine because the consumer is idempotent
// on (table_name, record_id).
func (p *Publisher) drainOnce(ctx context.Context) error {
	records, err := p.syncRepo.FetchUnpublished(p.batchSize)
	if err != nil {
		return fmt.Errorf("fetching unpublished rows: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, kafka.Message{
			Key:   []byte(messageKey(record)),
			Value: record.Payload,
			Headers: []kafka.Header{
				{Key: "operation", Value: []byte(record.Operation)},
				{Key: "table", Value: []byte(record.TableName)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		for _, record := range records {
			if incErr := p.syncRepo.IncrementAttempts(record.ID); incErr != nil {
				utils.LogError(incErr, fmt.Sprintf("sync publisher: incrementing attempts for row %d", record.ID))
			}
		}
		return fmt.Errorf("writing %d message(s): %w", len(messages), err)
	}

	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	if err := p.syncRepo.MarkPublished(ids); err != nil {
		return fmt.Errorf("marking %d row(s) published: %w", len(ids), err)
	}

	utils.LogDebug(fmt.Sprintf("sync publisher: published %d row(s)", len(ids)))
	return nil
}

func messageKey(record models.SyncRecord) string {
	return record.TableName + ":" + utils.Int64ToStr(record.RecordID)
}
