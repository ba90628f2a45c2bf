package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/config"
	"github.com/fayvince/resmeter/internal/message"
)

const serialSource = "serial"

// SerialReader decodes the sensor's 2-byte little-endian frames from a
// serial line.
type SerialReader struct {
	port   io.ReadCloser
	sink   SampleSink
	logger *zap.Logger
}

// OpenSerial opens the configured port in 8N1 mode.
func OpenSerial(cfg config.SerialConfig, sink SampleSink, logger *zap.Logger) (*SerialReader, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSerialOpenFailed, cfg.Port, err)
	}
	logger.Info("Serial port opened", zap.String("port", cfg.Port), zap.Int("baud_rate", cfg.BaudRate))
	return NewSerialReader(port, sink, logger), nil
}

// NewSerialReader reads frames from port. The reader owns port and closes it
// when Run returns.
func NewSerialReader(port io.ReadCloser, sink SampleSink, logger *zap.Logger) *SerialReader {
	return &SerialReader{port: port, sink: sink, logger: logger}
}

// Run forwards every complete frame to the sink until ctx is cancelled or
// the device goes away.
func (r *SerialReader) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		// Unblocks a pending Read.
		_ = r.port.Close()
	})
	defer func() {
		if stop() {
			_ = r.port.Close()
		}
		r.logger.Info("Serial reader stopped")
	}()

	buf := make([]byte, 64)
	frame := make([]byte, 0, message.FrameSize)
	for {
		n, err := r.port.Read(buf)
		for _, b := range buf[:n] {
			frame = append(frame, b)
			if len(frame) == message.FrameSize {
				r.sink.OnRawSample(message.DecodeFrame(frame))
				messagesConsumed.WithLabelValues(serialSource).Inc()
				frame = frame[:0]
			}
		}

		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return context.Canceled
		}
		if len(frame) > 0 {
			messagesRejected.WithLabelValues(serialSource).Inc()
			r.logger.Warn("Discarding partial frame", zap.Int("bytes", len(frame)))
		}
		if errors.Is(err, io.EOF) {
			return ErrSerialDisconnected
		}
		return fmt.Errorf("%w: %w", ErrSerialReadFailed, err)
	}
}
