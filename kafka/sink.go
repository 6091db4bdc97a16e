package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tzeising/taskgraph/serde"
)

type produceResult struct {
	record *kgo.Record
	err    error
}

// Sink publishes every value observed on a pipeline output to a Kafka
// topic. Register its Callback as a listener on the output; produces are
// asynchronous, Flush awaits them and surfaces the first failure.
type Sink[T any] struct {
	client *kgo.Client
	topic  string
	ser    serde.Serializer[T]

	futuresMu sync.Mutex
	futuresWg sync.WaitGroup
	futures   []produceResult
}

func NewSink[T any](brokers []string, topic string, ser serde.Serializer[T]) (*Sink[T], error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("kafka sink: %w", err)
	}
	return &Sink[T]{
		client: client,
		topic:  topic,
		ser:    ser,
	}, nil
}

// Callback returns the listener to register on the output port.
func (s *Sink[T]) Callback() func(T) {
	return func(v T) {
		value, err := s.ser(v)
		if err != nil {
			s.futuresMu.Lock()
			s.futures = append(s.futures, produceResult{err: fmt.Errorf("kafka sink: serialize: %w", err)})
			s.futuresMu.Unlock()
			return
		}

		s.futuresWg.Add(1)
		// Background context: the producing callback may outlive the
		// firing that triggered it.
		s.client.Produce(context.Background(), &kgo.Record{
			Value: value,
			Topic: s.topic,
		}, func(r *kgo.Record, err error) {
			s.futuresMu.Lock()
			s.futures = append(s.futures, produceResult{record: r, err: err})
			s.futuresMu.Unlock()
			s.futuresWg.Done()
		})
	}
}

// Flush waits for all pending produces and checks for errors.
func (s *Sink[T]) Flush(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("kafka sink: flush: %w", err)
	}
	s.futuresWg.Wait()

	s.futuresMu.Lock()
	defer s.futuresMu.Unlock()
	for _, result := range s.futures {
		if result.err != nil {
			return fmt.Errorf("kafka sink: produce failed: %w", result.err)
		}
	}

	// Keep allocated memory, just reset slice
	s.futures = s.futures[:0]

	return nil
}

func (s *Sink[T]) Close() error {
	s.client.Close()
	return nil
}
