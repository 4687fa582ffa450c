//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/storm-impact-etl/internal/adapter/kafka"
	"github.com/couchcryptid/storm-impact-etl/internal/config"
	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/couchcryptid/storm-impact-etl/internal/observability"
	"github.com/couchcryptid/storm-impact-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-resolved-impacts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("storm-impact-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// sinkMessage holds a deserialized message read from the sink topic.
type sinkMessage struct {
	Impact  domain.ResolvedImpact
	Key     string
	Headers map[string]string
}

func readSink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var ri domain.ResolvedImpact
	require.NoError(t, json.Unmarshal(msg.Value, &ri), "unmarshal sink message")
	return sinkMessage{Impact: ri, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestPipelineEndToEnd runs the full pipeline from CSV inputs to both the
// CSV sink and a real Kafka topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}
	src := &csvtable.FileSource{
		TracksPath:   write("tracks.csv", "sid,name,year\nX1,gloria,2000\nX2,idai,2019\n"),
		TriggersPath: write("triggers.csv", "sid,asap0_id,d_thresh,s_thresh\nX1,7,500,0\nX2,170,500,0\n"),
		ImpactsPath: write("emdat.csv", "Dis No,Event Name,Start Year,asap0_id\n"+
			"2000-0001,Gloria,2000,7\n2019-0001,Cyclone 'Idai',2019,170\n2030-0001,,2030,7\n"),
	}
	outPath := filepath.Join(dir, "emdat_with_sid.csv")

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSinkTopic:     testSinkTopic,
		BatchSize:          50,
		BatchFlushInterval: 100 * time.Millisecond,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	fileSink := csvtable.NewSink(outPath, src.OutputColumns)
	t.Cleanup(func() { _ = fileSink.Close() })

	p := pipeline.New(src, nil, []pipeline.Sink{
		{Name: "csv", Loader: fileSink},
		{Name: "kafka", Loader: writer},
	}, pipeline.Options{BatchSize: cfg.BatchSize}, discardLogger(), observability.NewMetricsForTesting())

	summary, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Records)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dis No,Event Name,Start Year,asap0_id,sid,match_outcome,run_id,resolved_at\n")
	assert.Contains(t, string(data), "2000-0001,Gloria,2000,7,X1,matched,"+summary.RunID)

	consumer := newConsumer(t, broker)
	gotKeys := make([]string, 0, 3)
	for range 3 {
		m := readSink(ctx, t, consumer)
		gotKeys = append(gotKeys, m.Key)
		assert.Equal(t, summary.RunID, m.Headers["run_id"])
		_, err := time.Parse(time.RFC3339, m.Headers["resolved_at"])
		assert.NoError(t, err, "resolved_at should be valid RFC3339")
		assert.Equal(t, string(m.Impact.Outcome), m.Headers["match_outcome"])
	}
	assert.ElementsMatch(t, []string{"X1", "X2", kafka.UnresolvedKey}, gotKeys)
}
