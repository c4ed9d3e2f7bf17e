//go:build integration

package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkaadapter "github.com/tallgrasslabs/weathermate-ingest/internal/adapter/kafka"
	"github.com/tallgrasslabs/weathermate-ingest/internal/adapter/station"
	"github.com/tallgrasslabs/weathermate-ingest/internal/config"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
	"github.com/tallgrasslabs/weathermate-ingest/internal/observability"
	"github.com/tallgrasslabs/weathermate-ingest/internal/pipeline"

	"github.com/jonboulle/clockwork"
)

const testSinkTopic = "test-weather-observations"

const stationResponse = "r1\r\n" +
	"WS=   ,WD=   ,RH=   ,AT=   ,BP=    ,BV=  ,LC=   ,SV=  ,CC=   ,PW=   ,IW=   ,IW=   ,RS=   ,Co=  \r\n" +
	"+000002.20,+000045.32,+000067.00,+000014.30,+001004.02,+000013.66,+000041.88,+000021.12,+000000.00,+000003.90,+000002.00,+000045.32,+000012.20,+000001.00\r\n" +
	"km/h  ,Degs  ,%     ,DegC  ,hPa   ,V     ,mA    ,V     ,mA    ,km/h  ,km/h  ,Degs  ,mm    ,Mins  \r\n" +
	">"

// startFakeStation serves the canned r1 response to every connection.
func startFakeStation(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				if line, err := bufio.NewReader(conn).ReadString('\n'); err != nil || line != "r1\r\n" {
					return
				}
				io.WriteString(conn, stationResponse)
			}()
		}
	}()
	return ln.Addr().String()
}

// TestStationToKafka polls a fake station through the full pipeline and
// verifies the decoded observation lands on the sink topic.
func TestStationToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		StationAddr:    startFakeStation(t),
		StationID:      "wm3000-it",
		StationTimeout: 5 * time.Second,
		StationRetries: 2,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	source := station.NewClient(cfg, discardLogger())
	transformer := pipeline.NewTransformer(domain.DefaultCatalog(), cfg.StationID, discardLogger())
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(source, transformer, writer, discardLogger(),
		observability.NewMetricsForTesting(), clockwork.NewRealClock(), time.Minute)

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

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, []byte("wm3000-it"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "wm3000-it", headers["station"])
	_, err = time.Parse(time.RFC3339, headers["observed_at"])
	assert.NoError(t, err, "observed_at should be valid RFC3339")

	var rec domain.Record
	require.NoError(t, json.Unmarshal(msg.Value, &rec))
	assert.Equal(t, "wm3000-it", rec.Station)

	assert.Equal(t, 2.2, rec.Fields["avg_wind_speed"])
	assert.Equal(t, 45.32, rec.Fields["avg_wind_direction"])
	assert.Equal(t, 14.3, rec.Fields["outTemp"])
	assert.Equal(t, 1004.02, rec.Fields["barometer"])
	assert.Equal(t, 2.0, rec.Fields["windSpeed"])
	assert.Equal(t, 45.32, rec.Fields["windDir"])
	assert.InDelta(t, 1.22, rec.Fields["rain_9am"], 1e-9)
	assert.InDelta(t, 60.0, rec.Fields["communications"], 1e-9)
	assert.InDelta(t, 0.04188, rec.Fields["load_current"], 1e-9)
	assert.Len(t, rec.Fields, 14)
}
