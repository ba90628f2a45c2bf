package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/message"
	"github.com/fayvince/resmeter/internal/session"
)

var (
	broker      = flag.String("broker", "localhost:9092", "Kafka bootstrap broker")
	sampleTopic = flag.String("samples", "resmeter.samples", "Topic for raw samples")
	fixTopic    = flag.String("fixes", "resmeter.fixes", "Topic for location fixes")
	encoding    = flag.String("encoding", string(message.EncodingBinary), "Sample encoding: binary, text or json")
	interval    = flag.Duration("interval", time.Second, "Time between messages")
	coldFixes   = flag.Int("cold-fixes", 3, "Number of (0,0) fixes sent before a real position")
)

// Starting point of the simulated walk.
const (
	baseLatitude  = 47.4979
	baseLongitude = 19.0402
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	enc, err := message.ParseSampleEncoding(*encoding)
	if err != nil {
		sugar.Fatalw("Invalid encoding", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*broker),
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			sugar.Errorw("Error closing kafka writer", zap.Error(err))
		}
	}()
	sugar.Infow("Starting producer", "broker", *broker, "samples", *sampleTopic, "fixes", *fixTopic, "encoding", enc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pos := session.Fix{Latitude: baseLatitude, Longitude: baseLongitude}
	sent := 0

	for {
		select {
		case <-ticker.C:
			sample := uint16(500 + rng.Intn(1500))
			fix := session.Fix{}
			if sent >= *coldFixes {
				pos.Latitude += (rng.Float64() - 0.5) * 1e-4
				pos.Longitude += (rng.Float64() - 0.5) * 1e-4
				fix = pos
			}
			fixBytes, err := json.Marshal(fix)
			if err != nil {
				sugar.Errorw("Error marshalling fix", zap.Error(err))
				continue
			}

			err = writer.WriteMessages(ctx,
				kafka.Message{Topic: *sampleTopic, Value: encodeSample(enc, sample)},
				kafka.Message{Topic: *fixTopic, Value: fixBytes},
			)
			if err != nil {
				if ctx.Err() != nil {
					sugar.Info("Context cancelled, exiting message loop.")
					return
				}
				sugar.Warnw("Error writing messages", zap.Error(err))
				continue
			}
			sent++
			sugar.Debugw("Produced", "sample", sample, "latitude", fix.Latitude, "longitude", fix.Longitude)

		case <-ctx.Done():
			sugar.Info("Producer loop stopped.")
			return
		}
	}
}

func encodeSample(enc message.SampleEncoding, v uint16) []byte {
	switch enc {
	case message.EncodingText:
		return []byte(strconv.Itoa(int(v)))
	case message.EncodingJSON:
		return []byte(`{"value":` + strconv.Itoa(int(v)) + `}`)
	default:
		return message.EncodeFrame(v)
	}
}
