// Package kafka adapts Kafka topics to pipeline feed points: a Source
// drives an external input from a topic, a Sink publishes an output's
// values to a topic.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tzeising/taskgraph"
	"github.com/tzeising/taskgraph/serde"
)

// SourceOption configures a Source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	log            *slog.Logger
	group          string
	maxPollRecords int
	maxRecords     int
}

// WithSourceLogger sets the logger for the source's poll loop.
var WithSourceLogger = func(log *slog.Logger) SourceOption {
	return func(c *sourceConfig) {
		c.log = log
	}
}

// WithConsumerGroup joins the given consumer group instead of consuming
// all partitions directly.
var WithConsumerGroup = func(group string) SourceOption {
	return func(c *sourceConfig) {
		c.group = group
	}
}

// WithMaxPollRecords caps the records fetched per poll.
var WithMaxPollRecords = func(n int) SourceOption {
	return func(c *sourceConfig) {
		c.maxPollRecords = n
	}
}

// WithMaxRecords stops the source after n records: it signals the external
// input's last-element marker and returns from Run. Without it the source
// runs until its context is cancelled.
var WithMaxRecords = func(n int) SourceOption {
	return func(c *sourceConfig) {
		c.maxRecords = n
	}
}

// Source feeds one external pipeline input from a Kafka topic. Run it on
// its own goroutine next to the scheduler; when it stops, it signals the
// input as exhausted so the pipeline can terminate.
type Source[T any] struct {
	client *kgo.Client
	topic  string
	deser  serde.Deserializer[T]
	write  taskgraph.WriteFunc[T]
	cfg    sourceConfig
}

func NewSource[T any](brokers []string, topic string, deser serde.Deserializer[T], write taskgraph.WriteFunc[T], opts ...SourceOption) (*Source[T], error) {
	cfg := sourceConfig{
		log:            taskgraph.NullLogger(),
		maxPollRecords: 10000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
	}
	if cfg.group != "" {
		kopts = append(kopts, kgo.ConsumerGroup(cfg.group))
	}

	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("kafka source: %w", err)
	}

	return &Source[T]{
		client: client,
		topic:  topic,
		deser:  deser,
		write:  write,
		cfg:    cfg,
	}, nil
}

// Run polls the topic and pushes each record's value into the external
// input, in partition offset order. It returns when ctx is cancelled or,
// with WithMaxRecords, after the configured record count; either way the
// last-element signal is sent exactly once.
func (s *Source[T]) Run(ctx context.Context) error {
	defer s.write(*new(T), true)

	var consumed int
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fetches := s.client.PollRecords(ctx, s.cfg.maxPollRecords)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		for _, fetchErr := range fetches.Errors() {
			if fetchErr.Err != nil {
				return fmt.Errorf("kafka source: fetch topic %s partition %d: %w", fetchErr.Topic, fetchErr.Partition, fetchErr.Err)
			}
		}

		var recErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if recErr != nil || (s.cfg.maxRecords > 0 && consumed >= s.cfg.maxRecords) {
				return
			}
			value, err := s.deser(record.Value)
			if err != nil {
				recErr = fmt.Errorf("kafka source: deserialize offset %d: %w", record.Offset, err)
				return
			}
			s.write(value, false)
			consumed++
		})
		if recErr != nil {
			return recErr
		}

		s.cfg.log.Debug("Polled records", "topic", s.topic, "total", consumed)

		if s.cfg.maxRecords > 0 && consumed >= s.cfg.maxRecords {
			return nil
		}
	}
}

func (s *Source[T]) Close() error {
	s.client.Close()
	return nil
}
