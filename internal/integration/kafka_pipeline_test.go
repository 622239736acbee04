//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-track-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-analysis/internal/config"
	"github.com/couchcryptid/storm-track-analysis/internal/domain"
	"github.com/couchcryptid/storm-track-analysis/internal/observability"
	"github.com/couchcryptid/storm-track-analysis/internal/pipeline"
	"github.com/couchcryptid/storm-track-analysis/internal/store"
	"github.com/couchcryptid/storm-track-analysis/internal/track"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// --- helpers ---

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tracks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stormEventPayload(t *testing.T, id string, lon, lat float64, at time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(domain.StormEvent{
		ID:           id,
		EventType:    "hail",
		Geo:          domain.Geo{Lat: lat, Lon: lon},
		Magnitude:    1.75,
		Unit:         "in",
		Severity:     "severe",
		BeginTime:    at,
		SourceOffice: "TSA",
		ProcessedAt:  at.Add(time.Minute),
	})
	require.NoError(t, err)
	return data
}

// summaryMessage holds a deserialized message read from the sink topic.
type summaryMessage struct {
	Summary domain.TrackSummary
	Key     string
	Headers map[string]string
}

func readSummary(ctx context.Context, t *testing.T, consumer *kafkago.Reader) summaryMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var summary domain.TrackSummary
	require.NoError(t, json.Unmarshal(msg.Value, &summary), "unmarshal sink message")

	return summaryMessage{Summary: summary, Key: string(msg.Key), Headers: headers}
}

func newTestPipeline(t *testing.T, cfg *config.Config) (*pipeline.Pipeline, *kafka.Reader, *kafka.Writer) {
	t.Helper()
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	asm := pipeline.NewAssembler(openTestStore(t), track.DefaultConfig(), discardLogger(), metrics)
	return pipeline.New(reader, asm, writer, discardLogger(), metrics, 50), reader, writer
}

// --- tests ---

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (publisher) correctly round-trip messages through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	base := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	payload := stormEventPayload(t, "evt-1", -95.9, 36.1, base)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("evt-1"),
		Value: payload,
		Time:  base,
	}))

	// Extract via kafka.Reader. Retry because the consumer group may need
	// time to rebalance before partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("evt-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Parse and publish a summary via kafka.Writer.
	point, err := domain.ParseTrackPoint(raw)
	require.NoError(t, err)
	tracks := track.NewAssembler(track.Config{MinPoints: 1}).Assemble([]domain.TrackPoint{point})
	require.Len(t, tracks, 1)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.PublishBatch(ctx, []domain.TrackSummary{tracks[0].Summary()}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readSummary(ctx, t, consumer)
	assert.Equal(t, tracks[0].ID, sm.Key)
	assert.Equal(t, "hail", sm.Headers["event_type"])
	_, err = time.Parse(time.RFC3339, sm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")
	assert.Equal(t, "hail", sm.Summary.EventType)
	assert.Equal(t, "TSA", sm.Summary.SourceOffice)
	assert.Equal(t, 1, sm.Summary.PointCount)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Assembler → Writer)
// with real Kafka and verifies that storm reports become track summaries.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// Three hail reports from the same office and day tracing one cell,
	// plus a poison pill that must be skipped.
	base := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{"), Time: base},
		kafkago.Message{Key: []byte("evt-1"), Value: stormEventPayload(t, "evt-1", -95.90, 36.10, base), Time: base},
		kafkago.Message{Key: []byte("evt-2"), Value: stormEventPayload(t, "evt-2", -95.80, 36.15, base.Add(20*time.Minute)), Time: base},
		kafkago.Message{Key: []byte("evt-3"), Value: stormEventPayload(t, "evt-3", -95.70, 36.20, base.Add(40*time.Minute)), Time: base},
	))

	p, _, _ := newTestPipeline(t, cfg)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	// Depending on how the fetches batch up, the track may be published once
	// or be re-published as later points arrive. The last summary seen within
	// the window is the complete track.
	var last summaryMessage
	seen := 0
	deadline := time.After(60 * time.Second)
	for seen == 0 || last.Summary.PointCount < 3 {
		select {
		case <-deadline:
			t.Fatalf("timed out: saw %d summaries, last point_count=%d", seen, last.Summary.PointCount)
		default:
		}
		last = readSummary(ctx, t, consumer)
		seen++
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, "hail", last.Summary.EventType)
	assert.Equal(t, "TSA", last.Summary.SourceOffice)
	assert.Equal(t, "2026-05-10", last.Summary.Day)
	assert.Equal(t, 3, last.Summary.PointCount)
	assert.Greater(t, last.Summary.LengthMeters, 0.0)
	assert.InDelta(t, 2400, last.Summary.DurationSecs, 1)
	assert.Equal(t, "hail", last.Headers["event_type"])
}
