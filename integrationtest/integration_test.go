package integrationtest

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tzeising/taskgraph"
	"github.com/tzeising/taskgraph/kafka"
	"github.com/tzeising/taskgraph/serde"
)

type Broker interface {
	Init() error
	Close() error
	BootstrapServers() []string
}

type RedpandaBroker struct {
	RedpandaVersion  string
	bootstrapServers []string
	testcontainer    testcontainers.Container
}

func (b *RedpandaBroker) Init() error {
	ctx := context.Background()
	port, err := GetFreePort()
	if err != nil {
		return err
	}
	req := testcontainers.ContainerRequest{
		Image:      fmt.Sprintf("docker.vectorized.io/vectorized/redpanda:%s", b.RedpandaVersion),
		WaitingFor: wait.ForLog("Successfully started Redpanda!"),
		User:       "root:root",
		Cmd: []string{
			"redpanda",
			"start",
			"--smp", "1",
			"--reserve-memory", "0M",
			"--overprovisioned",
			"--node-id", "0",
			"--kafka-addr", fmt.Sprintf("OUTSIDE://0.0.0.0:%d", port),
		},
	}

	req.ExposedPorts = []string{
		// Fixed port mapping for kafka
		fmt.Sprintf("%d:%d/tcp", port, port),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return err
	}

	hostIP, err := container.Host(ctx)
	if err != nil {
		return err
	}

	mappedPort, err := container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d", port)))
	if err != nil {
		return err
	}

	b.bootstrapServers = []string{fmt.Sprintf("%s:%d", hostIP, mappedPort.Int())}
	b.testcontainer = container

	return nil
}

func (b *RedpandaBroker) Close() error {
	return b.testcontainer.Terminate(context.Background())
}

func (b *RedpandaBroker) BootstrapServers() []string {
	return b.bootstrapServers
}

// GetFreePort asks the kernel for a free open port that is ready to use.
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// TestKafkaRoundTrip drives a topic through a pipeline and back: a Source
// feeds the external input, an uppercase step transforms, a Sink produces
// the results to a second topic.
func TestKafkaRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test requires docker")
	}

	broker := &RedpandaBroker{RedpandaVersion: "latest"}
	assert.NoError(t, broker.Init())
	defer broker.Close()

	bootstrap := broker.BootstrapServers()

	kcl, err := kgo.NewClient(kgo.SeedBrokers(bootstrap...))
	assert.NoError(t, err)
	defer kcl.Close()
	acl := kadm.NewClient(kcl)
	_, err = acl.CreateTopics(context.Background(), 1, 1, map[string]*string{}, "words-in", "words-out")
	assert.NoError(t, err)

	words := []string{"alpha", "beta", "gamma"}
	for _, w := range words {
		pr := kcl.ProduceSync(context.Background(), &kgo.Record{Topic: "words-in", Value: []byte(w)})
		assert.NoError(t, pr.FirstErr())
	}

	p := taskgraph.New()
	cfg := p.MustAdd("upper", taskgraph.Func1x1("in", "out", strings.ToUpper))

	write := taskgraph.MustExternal[string](cfg, "in")
	source, err := kafka.NewSource(bootstrap, "words-in", serde.StringDeserializer, write,
		kafka.WithConsumerGroup("roundtrip"),
		kafka.WithMaxRecords(len(words)))
	assert.NoError(t, err)
	defer source.Close()

	sink, err := kafka.NewSink(bootstrap, "words-out", serde.StringSerializer)
	assert.NoError(t, err)
	defer sink.Close()
	taskgraph.MustListen(cfg, "out", sink.Callback())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sourceDone := make(chan error, 1)
	go func() { sourceDone <- source.Run(ctx) }()

	s := taskgraph.NewScheduler(p, taskgraph.WithWorkers(2))
	assert.NoError(t, s.Run(ctx))
	assert.NoError(t, <-sourceDone)
	assert.NoError(t, sink.Flush(ctx))

	verify, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrap...),
		kgo.ConsumeTopics("words-out"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	assert.NoError(t, err)
	defer verify.Close()

	var got []string
	for len(got) < len(words) {
		fetches := verify.PollFetches(ctx)
		assert.NoError(t, fetches.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			got = append(got, string(r.Value))
		})
	}
	sort.Strings(got)
	assert.Equal(t, []string{"ALPHA", "BETA", "GAMMA"}, got)
}
