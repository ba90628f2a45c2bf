package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fayvince/resmeter/internal/message"
)

// Sample transports and location sources.
const (
	TransportKafka  = "kafka"
	TransportSerial = "serial"
	TransportNone   = "none"
)

const (
	defaultDataDir             = "sessions"
	defaultWindowSize          = 10
	defaultSaveInterval        = 5
	defaultUITick              = 1 * time.Second
	defaultSaveUnit            = 1 * time.Second
	defaultParamsStoreDir      = "params"
	defaultTransportKind       = TransportNone
	defaultSampleEncoding      = "binary"
	defaultKafkaGroupID        = "resmeter"
	defaultSampleTopic         = "resmeter.samples"
	defaultFixTopic            = "resmeter.fixes"
	defaultSerialBaudRate      = 9600
	defaultLocationKind        = TransportNone
	defaultServerListenAddr    = ":8080"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultLogFileEnabled      = false
	defaultLogDirectory        = "log"
	defaultLogFilename         = "resmeter.log"
	defaultLogMaxSizeMB        = 100
	defaultLogMaxBackups       = 3
	defaultLogMaxAgeDays       = 7
	defaultLogCompress         = false
	defaultConfigName          = "resmeter"
	defaultSystemConfigDirPath = "/etc/resmeter"

	// Environment variable prefix
	envPrefix = "RESMETER"
)

type Config struct {
	Session   SessionConfig   `mapstructure:"session"`
	Params    ParamsConfig    `mapstructure:"params"`
	Transport TransportConfig `mapstructure:"transport"`
	Location  LocationConfig  `mapstructure:"location"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

type SessionConfig struct {
	DataDir             string        `mapstructure:"dataDir"`
	DefaultWindowSize   int           `mapstructure:"defaultWindowSize"`
	DefaultSaveInterval int           `mapstructure:"defaultSaveInterval"`
	DemoMode            bool          `mapstructure:"demoMode"`
	AutoStart           bool          `mapstructure:"autoStart"`
	UITick              time.Duration `mapstructure:"uiTick"`
	SaveUnit            time.Duration `mapstructure:"saveUnit"` // duration of one unit of B
}

type ParamsConfig struct {
	StoreDir string `mapstructure:"storeDir"`
	InMemory bool   `mapstructure:"inMemory"`
}

type TransportConfig struct {
	Kind     string       `mapstructure:"kind"`     // kafka, serial or none
	Encoding string       `mapstructure:"encoding"` // kafka payloads: binary, text or json
	Kafka    KafkaConfig  `mapstructure:"kafka"`
	Serial   SerialConfig `mapstructure:"serial"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

type SerialConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baudRate"`
}

type LocationConfig struct {
	Kind  string      `mapstructure:"kind"` // kafka or none
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type ServerConfig struct {
	ListenAddr string `mapstructure:"listenAddr"` // empty disables the HTTP server
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// With an empty configPath, resmeter.yaml is looked up in the working
// directory and /etc/resmeter; if neither exists the defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	setDefaults(v)

	if err := readConfigFile(v, configPath != ""); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultSystemConfigDirPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper. Every key
// needs a default so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("session.dataDir", defaultDataDir)
	v.SetDefault("session.defaultWindowSize", defaultWindowSize)
	v.SetDefault("session.defaultSaveInterval", defaultSaveInterval)
	v.SetDefault("session.demoMode", false)
	v.SetDefault("session.autoStart", false)
	v.SetDefault("session.uiTick", defaultUITick)
	v.SetDefault("session.saveUnit", defaultSaveUnit)
	v.SetDefault("params.storeDir", defaultParamsStoreDir)
	v.SetDefault("params.inMemory", false)
	v.SetDefault("transport.kind", defaultTransportKind)
	v.SetDefault("transport.encoding", defaultSampleEncoding)
	v.SetDefault("transport.kafka.brokers", []string{})
	v.SetDefault("transport.kafka.topic", defaultSampleTopic)
	v.SetDefault("transport.kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("transport.serial.port", "")
	v.SetDefault("transport.serial.baudRate", defaultSerialBaudRate)
	v.SetDefault("location.kind", defaultLocationKind)
	v.SetDefault("location.kafka.brokers", []string{})
	v.SetDefault("location.kafka.topic", defaultFixTopic)
	v.SetDefault("location.kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("server.listenAddr", defaultServerListenAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
// A missing file is only an error when it was named explicitly.
func readConfigFile(v *viper.Viper, required bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var configFileNotFoundError viper.ConfigFileNotFoundError
	if errors.As(err, &configFileNotFoundError) {
		if required {
			return ErrConfigFileMissing
		}
		return nil
	}
	if required && errors.Is(err, fs.ErrNotExist) {
		return ErrConfigFileMissing
	}
	return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
}

func validateConfig(cfg *Config) error {
	if cfg.Session.DataDir == "" {
		return ErrEmptyDataDir
	}
	if cfg.Session.UITick <= 0 {
		return ErrInvalidUITick
	}
	if cfg.Session.SaveUnit <= 0 {
		return ErrInvalidSaveUnit
	}
	if !cfg.Params.InMemory && cfg.Params.StoreDir == "" {
		return ErrEmptyParamsStoreDir
	}

	switch cfg.Transport.Kind {
	case TransportKafka:
		if err := validateKafka(cfg.Transport.Kafka); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
		if _, err := message.ParseSampleEncoding(cfg.Transport.Encoding); err != nil {
			return fmt.Errorf("transport: %w", err)
		}
	case TransportSerial:
		if cfg.Transport.Serial.Port == "" {
			return ErrEmptySerialPort
		}
		if cfg.Transport.Serial.BaudRate <= 0 {
			return ErrInvalidBaudRate
		}
	case TransportNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTransportKind, cfg.Transport.Kind)
	}

	switch cfg.Location.Kind {
	case TransportKafka:
		// Fixes usually travel through the same cluster as samples.
		if len(cfg.Location.Kafka.Brokers) == 0 {
			cfg.Location.Kafka.Brokers = cfg.Transport.Kafka.Brokers
		}
		if err := validateKafka(cfg.Location.Kafka); err != nil {
			return fmt.Errorf("location: %w", err)
		}
	case TransportNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLocationKind, cfg.Location.Kind)
	}
	return nil
}

func validateKafka(k KafkaConfig) error {
	if len(k.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if k.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if k.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	return nil
}
