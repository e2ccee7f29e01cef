package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/coldreach/email-generator/internal/model"
)

const (
	// StreamName is the name of the audit event stream.
	StreamName = "COLDMAIL"

	// SubjectPrefix is the prefix for all event subjects.
	SubjectPrefix = "coldmail"
)

// subjectToken keeps ids from introducing extra subject levels or wildcards.
var subjectToken = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	js jetstream.JetStream
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{js: client.JetStream()}
}

// EnsureStream ensures the event stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	_, err := m.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = m.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Template and email generation audit events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for an event.
func EventSubject(eventType model.EventType, templateID string) string {
	if templateID == "" {
		templateID = "inline"
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, eventType, subjectToken.Replace(templateID))
}

// TypeFilter returns the filter subject for all events of a type.
func TypeFilter(eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, eventType)
}

// Publish publishes an event to JetStream and returns its stream sequence.
func (m *StreamManager) Publish(ctx context.Context, event *model.Event) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.js.Publish(ctx, EventSubject(event.Type, event.TemplateID), data,
		jetstream.WithMsgID(event.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

// Recent retrieves up to limit events of a type, starting after a sequence.
func (m *StreamManager) Recent(ctx context.Context, eventType model.EventType, afterSequence uint64, limit int) (*model.ListEventsResponse, error) {
	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject:     TypeFilter(eventType),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := m.js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	resp := &model.ListEventsResponse{Events: []model.Event{}}
	for msg := range batch.Messages() {
		var event model.Event
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			event.Sequence = meta.Sequence.Stream
			resp.LastSequence = meta.Sequence.Stream
		}
		resp.Events = append(resp.Events, event)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, fmt.Errorf("batch error: %w", err)
	}

	resp.HasMore = len(resp.Events) == limit
	return resp, nil
}
