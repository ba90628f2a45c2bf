package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/config"
	"github.com/fayvince/resmeter/internal/message"
)

// Session is everything the pipeline feeds and controls.
type Session interface {
	SampleSink
	FixSink
	Controller
}

type component struct {
	name string
	run  func(ctx context.Context) error
}

// Pipeline runs the sample transport, the location source and the HTTP
// server around one session scheduler.
type Pipeline struct {
	components []component
	logger     *zap.Logger
}

// New creates the components selected by cfg. hub must already be
// registered as a publisher on sess.
func New(cfg *config.Config, sess Session, hub *StatusHub, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	var components []component

	switch cfg.Transport.Kind {
	case config.TransportKafka:
		enc, err := message.ParseSampleEncoding(cfg.Transport.Encoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
		}
		c, err := NewConsumer("samples", cfg.Transport.Kafka, SampleHandler(enc, sess), logger.Named("samples"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
		}
		components = append(components, component{name: "samples", run: c.Run})
	case config.TransportSerial:
		r, err := OpenSerial(cfg.Transport.Serial, sess, logger.Named("serial"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
		}
		components = append(components, component{name: "serial", run: r.Run})
	case config.TransportNone:
		initLogger.Info("No sample transport configured; samples come from demo mode only")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport.Kind)
	}

	switch cfg.Location.Kind {
	case config.TransportKafka:
		c, err := NewConsumer("fixes", cfg.Location.Kafka, FixHandler(sess), logger.Named("fixes"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
		}
		components = append(components, component{name: "fixes", run: c.Run})
	case config.TransportNone:
		initLogger.Warn("No location source configured; sessions will wait for a fix indefinitely")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Location.Kind)
	}

	if cfg.Server.ListenAddr != "" {
		srv := NewServer(cfg.Server.ListenAddr, sess, hub, logger.Named("http"))
		components = append(components, component{name: "http", run: srv.Run})
	}

	initLogger.Info("Pipeline instance created", zap.Int("components", len(components)))
	return newPipeline(logger.Named("pipeline"), components...), nil
}

func newPipeline(logger *zap.Logger, components ...component) *Pipeline {
	return &Pipeline{components: components, logger: logger}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails; the others are then cancelled and awaited.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(p.components))

	sugar.Infow("Starting components", "count", len(p.components))
	for _, c := range p.components {
		wg.Add(1)
		go p.runComponent(runCtx, c, &wg, errCh)
	}

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Context cancelled, waiting for components to finish")
		firstErr = ctx.Err()
	case err := <-errCh:
		sugar.Errorw("Component failed, initiating shutdown", zap.Error(err))
		firstErr = err
	}
	cancel()

	wg.Wait()
	sugar.Info("All components finished")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

func (p *Pipeline) runComponent(ctx context.Context, c component, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Component starting", zap.String("component", c.name))
	err := c.run(ctx)
	switch {
	case err == nil:
		p.logger.Debug("Component finished", zap.String("component", c.name))
	case errors.Is(err, context.Canceled):
		p.logger.Debug("Component cancelled", zap.String("component", c.name))
	default:
		p.logger.Error("Component exited with error", zap.String("component", c.name), zap.Error(err))
		errCh <- fmt.Errorf("%w: %s: %w", ErrComponentFailed, c.name, err)
	}
}
