package config

import "errors"

var (
	ErrReadingConfigFile    = errors.New("failed to read config file")
	ErrUnmarshallingConfig  = errors.New("failed to unmarshal config")
	ErrConfigFileMissing    = errors.New("config file not found")
	ErrEmptyDataDir         = errors.New("session dataDir cannot be empty")
	ErrInvalidUITick        = errors.New("session uiTick must be positive")
	ErrInvalidSaveUnit      = errors.New("session saveUnit must be positive")
	ErrEmptyParamsStoreDir  = errors.New("params storeDir cannot be empty unless inMemory is set")
	ErrInvalidTransportKind = errors.New("transport kind must be kafka, serial or none")
	ErrInvalidLocationKind  = errors.New("location kind must be kafka or none")
	ErrEmptyKafkaBrokers    = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic      = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID    = errors.New("kafka groupID cannot be empty")
	ErrEmptySerialPort      = errors.New("serial port cannot be empty")
	ErrInvalidBaudRate      = errors.New("serial baudRate must be positive")
)
