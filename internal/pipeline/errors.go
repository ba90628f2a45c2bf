package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig     = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed       = errors.New("failed to fetch message from Kafka")
	ErrConsumerCreationFailed = errors.New("failed to create consumer")
	ErrComponentFailed        = errors.New("pipeline component failed")
	ErrSerialOpenFailed       = errors.New("failed to open serial port")
	ErrSerialReadFailed       = errors.New("failed to read from serial port")
	ErrSerialDisconnected     = errors.New("serial device disconnected")
	ErrServerFailed           = errors.New("http server failed")
	ErrUnknownTransport       = errors.New("unknown transport kind")
)
