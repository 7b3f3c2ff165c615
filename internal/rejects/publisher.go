package rejects

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"shelfsync/internal/domain"
)

// Publisher mirrors rejection entries onto a Kafka topic so operator tooling
// can subscribe to the feed instead of polling the table. Publishing is
// best-effort: the store row is the record of truth, so the batch never
// fails on a broker error.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher connects a producer to the given brokers. Returns nil when no
// brokers are configured.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// payload is the wire form of a rejection. Field names are part of the
// operator tooling contract.
type payload struct {
	ID            string `json:"id"`
	BatchID       string `json:"batch_id"`
	Reason        string `json:"reason"`
	Detail        string `json:"detail,omitempty"`
	SourceRef     string `json:"source_ref"`
	BorrowerName  string `json:"borrower_name"`
	CategoryCode  string `json:"category_code"`
	LabelRaw      string `json:"label_raw"`
	ActionKeyword string `json:"action_keyword"`
	Notes         string `json:"notes,omitempty"`
	RejectedAt    string `json:"rejected_at"`
}

// Publish sends one rejection to the topic, keyed by source reference so
// redeliveries of the same row land in the same partition.
func (p *Publisher) Publish(ctx context.Context, r domain.Rejection) error {
	value, err := json.Marshal(encode(r))
	if err != nil {
		return fmt.Errorf("marshal rejection: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(r.Row.Ref),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce rejection: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (p *Publisher) Close() {
	p.client.Close()
}

func encode(r domain.Rejection) payload {
	return payload{
		ID:            r.ID,
		BatchID:       r.BatchID,
		Reason:        r.Reason.String(),
		Detail:        r.Detail,
		SourceRef:     r.Row.Ref,
		BorrowerName:  r.Row.BorrowerName,
		CategoryCode:  r.Row.CategoryCode,
		LabelRaw:      r.Row.LabelRaw,
		ActionKeyword: r.Row.ActionKeyword,
		Notes:         r.Row.Notes,
		RejectedAt:    r.At.UTC().Format(time.RFC3339),
	}
}
