package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/config"
	"github.com/fayvince/resmeter/internal/message"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// SampleSink receives decoded raw samples.
type SampleSink interface {
	OnRawSample(value int)
}

// FixSink receives decoded location fixes.
type FixSink interface {
	OnLocationFix(lat, lon float64)
}

// MessageHandler processes one message payload. A returned error marks the
// message as rejected; consumption continues.
type MessageHandler func(value []byte) error

// SampleHandler decodes payloads with enc and forwards them to sink.
func SampleHandler(enc message.SampleEncoding, sink SampleSink) MessageHandler {
	return func(value []byte) error {
		v, err := message.DecodeSample(enc, value)
		if err != nil {
			return err
		}
		sink.OnRawSample(v)
		return nil
	}
}

// FixHandler decodes JSON fixes and forwards them to sink.
func FixHandler(sink FixSink) MessageHandler {
	return func(value []byte) error {
		lat, lon, err := message.ParseFix(value)
		if err != nil {
			return err
		}
		sink.OnLocationFix(lat, lon)
		return nil
	}
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads messages from a Kafka topic and hands each payload to a handler.
type Consumer struct {
	source string
	reader messageReader
	handle MessageHandler
	logger *zap.Logger
}

// NewConsumer creates a consumer group reader for cfg. source labels the
// consumer in logs and metrics.
func NewConsumer(source string, cfg config.KafkaConfig, handle MessageHandler, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
		// A fresh group joins at the live edge; stale readings are useless.
		StartOffset: kafka.LastOffset,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}
	r := kafka.NewReader(readerCfg)

	logger.Info("Kafka consumer created",
		zap.String("source", source),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
	)
	return newConsumer(source, r, handle, logger), nil
}

func newConsumer(source string, r messageReader, handle MessageHandler, logger *zap.Logger) *Consumer {
	return &Consumer{source: source, reader: r, handle: handle, logger: logger}
}

// Run fetches, handles and commits messages until ctx is cancelled or the
// broker connection fails.
func (c *Consumer) Run(ctx context.Context) error {
	sugar := c.logger.Sugar()
	sugar.Infow("Starting Kafka consumer loop", "source", c.source)

	defer func() {
		if err := c.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", "source", c.source, zap.Error(err))
		}
		sugar.Infow("Kafka consumer loop stopped", "source", c.source)
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return context.Canceled
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		if err := c.handle(m.Value); err != nil {
			messagesRejected.WithLabelValues(c.source).Inc()
			sugar.Warnw("Rejected message, skipping",
				"source", c.source,
				"offset", m.Offset,
				"partition", m.Partition,
				"payload", message.Snippet(m.Value, 64),
				zap.Error(err),
			)
		} else {
			messagesConsumed.WithLabelValues(c.source).Inc()
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			sugar.Warnw("Failed to commit offset", "source", c.source, "offset", m.Offset, zap.Error(err))
		}
	}
}
