package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of the psid service.
type Config struct {
	Threshold uint            `yaml:"threshold"`
	Listen    ListenConfig    `yaml:"listen"`
	Storage   StorageConfig   `yaml:"storage"`
	Limits    LimitsConfig    `yaml:"limits"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ListenConfig is the configuration of the network listeners.
//
// An empty address disables the listener.
type ListenConfig struct {
	HTTP        string        `yaml:"http"`
	GRPC        string        `yaml:"grpc"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// StorageConfig is the configuration of the storage backend.
type StorageConfig struct {
	Driver         string         `yaml:"driver"`
	KeyspacePrefix string         `yaml:"keyspace_prefix"`
	MaxAttempts    uint           `yaml:"max_attempts"`
	Memory         MemoryConfig   `yaml:"memory"`
	Postgres       PostgresConfig `yaml:"postgres"`
	DynamoDB       DynamoDBConfig `yaml:"dynamodb"`
	Redis          RedisConfig    `yaml:"redis"`
}

// MemoryConfig is the configuration of the in-memory storage driver.
type MemoryConfig struct {
	// RecordTTL is how long a record is held after it is created. Zero means
	// records do not expire.
	RecordTTL time.Duration `yaml:"record_ttl"`
}

// PostgresConfig is the configuration of the PostgreSQL storage driver.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// DynamoDBConfig is the configuration of the DynamoDB storage driver.
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// RedisConfig is the configuration of the Redis storage driver.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// LimitsConfig bounds the size of accepted requests. Zero means unbounded.
type LimitsConfig struct {
	MaxElements      int `yaml:"max_elements"`
	MaxElementLength int `yaml:"max_element_length"`
	MaxSetIDLength   int `yaml:"max_set_id_length"`
}

// TelemetryConfig is the configuration of the OpenTelemetry providers.
type TelemetryConfig struct {
	// Exporter is "none" or "stdout".
	Exporter string `yaml:"exporter"`
}

// LogConfig is the configuration of the process logger.
type LogConfig struct {
	// Mode is "development" or "production".
	Mode string `yaml:"mode"`
}

// Storage driver names.
const (
	MemoryDriver   = "memory"
	PostgresDriver = "postgres"
	DynamoDBDriver = "dynamodb"
	RedisDriver    = "redis"
)

// Default returns the default configuration.
func Default() Config {
	return Config{
		Threshold: 2,
		Listen: ListenConfig{
			HTTP:        ":8081",
			GRPC:        ":8080",
			HTTPTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Driver: MemoryDriver,
			DynamoDB: DynamoDBConfig{
				Table: "psikit",
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Limits: LimitsConfig{
			MaxElements:      100_000,
			MaxElementLength: 1024,
			MaxSetIDLength:   256,
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
		Log: LogConfig{
			Mode: "production",
		},
	}
}

// Load reads the configuration from the YAML file at path, applying it on top
// of the defaults.
//
// If path is empty, it returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read configuration file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("unable to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Parse parses a YAML document, applying it on top of the defaults.
//
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c Config) Validate() error {
	var errs []error

	if c.Threshold == 0 {
		errs = append(errs, errors.New("threshold must be at least 1"))
	}

	if c.Listen.HTTP == "" && c.Listen.GRPC == "" {
		errs = append(errs, errors.New("at least one of listen.http or listen.grpc must be set"))
	}

	switch c.Storage.Driver {
	case MemoryDriver:
	case PostgresDriver:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn must be set when using the postgres driver"))
		}
	case DynamoDBDriver:
		if c.Storage.DynamoDB.Table == "" {
			errs = append(errs, errors.New("storage.dynamodb.table must be set when using the dynamodb driver"))
		}
	case RedisDriver:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr must be set when using the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	if c.Storage.Memory.RecordTTL < 0 {
		errs = append(errs, errors.New("storage.memory.record_ttl must not be negative"))
	}

	if c.Limits.MaxElements < 0 || c.Limits.MaxElementLength < 0 || c.Limits.MaxSetIDLength < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}

	switch c.Telemetry.Exporter {
	case "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter %q is not supported", c.Telemetry.Exporter))
	}

	switch c.Log.Mode {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("log.mode %q is not supported", c.Log.Mode))
	}

	return errors.Join(errs...)
}
