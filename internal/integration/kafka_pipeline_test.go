//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/carwash-ops/internal/adapter/kafka"
	"github.com/couchcryptid/carwash-ops/internal/config"
	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
	"github.com/couchcryptid/carwash-ops/internal/pipeline"
)

const testReportTopic = "test-reports"

// publishedReport holds a deserialized message read from the report topic.
type publishedReport struct {
	Report  domain.Report
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("carwash-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(kc); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := kc.Brokers(ctx)
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
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readReport reads a single message from the report topic and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal report message")

	return publishedReport{Report: report, Key: string(msg.Key), Headers: headers}
}

func washTable() domain.Table {
	rows := [][]string{
		{"2024-06-03 09:05", "$20.00", "ABC123", "Member"},
		{"2024-06-03 09:40", "10", "XYZ789", "Retail"},
		{"2024-06-03 14:15", "10", "ABC123", "Retail"},
		{"2024-06-10 09:20", "18", "JKL555", "Retail"},
	}
	tbl := domain.Table{Header: []string{"time", "total", "licensePlate", "type"}}
	for i, r := range rows {
		tbl.Rows = append(tbl.Rows, domain.Row{Line: i + 2, Values: r})
	}
	return tbl
}

// TestPipelinePublishesReport runs a full planning pass and verifies the
// report lands on the topic keyed by run ID.
func TestPipelinePublishesReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(pipeline.Settings{
		Location:            loc,
		Columns:             domain.DefaultColumnMapping(),
		Thresholds:          domain.DefaultThresholds(),
		Hours:               domain.DefaultOperatingHours(),
		Adjustment:          domain.DefaultAdjustmentParams(),
		MaintenanceHours:    2,
		DefaultTrafficIndex: domain.NeutralTrafficIndex,
		WeatherTimeout:      time.Second,
	}, nil, writer, logger, observability.NewMetricsForTesting())

	report, err := p.Process(ctx, washTable(), pipeline.Options{TargetDate: "2024-06-17"})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testReportTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := readReport(ctx, t, consumer)

	assert.Equal(t, report.RunID.String(), got.Key)
	assert.Equal(t, "2024-06-17", got.Headers["target_date"])
	assert.Equal(t, "degraded", got.Headers["confidence"])
	assert.NotEmpty(t, got.Headers["generated_at"])

	assert.Equal(t, report.RunID, got.Report.RunID)
	assert.Equal(t, report.Summary, got.Report.Summary)
	assert.Equal(t, 4, got.Report.Ingest.Accepted)
	assert.InDelta(t, 1.5, got.Report.Forecast.Hours[9].Demand, 1e-9)
	require.NotNil(t, got.Report.Maintenance)
	assert.Equal(t, 2, got.Report.Maintenance.Duration)
}
