package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// Google Maps web service settings.
	GoogleProtocol  string        `env:"GOOGLE_PROTOCOL" validate:"oneof=http https"`
	GoogleLanguage  string        `env:"GOOGLE_LANGUAGE" validate:"required"`
	GoogleSensor    bool          `env:"GOOGLE_SENSOR"`
	GoogleClientID  string        `env:"GOOGLE_CLIENT_ID" validate:"required_with=GoogleCryptoKey"`
	GoogleCryptoKey string        `env:"GOOGLE_CRYPTO_KEY"`
	GooglePlacesKey string        `env:"GOOGLE_PLACES_KEY"`
	GoogleTimeout   time.Duration `env:"GOOGLE_TIMEOUT" validate:"gt=0"`

	// Batch pipeline settings. Only validated when the pipeline is enabled.
	KafkaEnabled       bool          `env:"KAFKA_ENABLED"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" validate:"required_if=KafkaEnabled true"`
	KafkaSourceTopic   string        `env:"KAFKA_SOURCE_TOPIC" validate:"required_if=KafkaEnabled true"`
	KafkaSinkTopic     string        `env:"KAFKA_SINK_TOPIC" validate:"required_if=KafkaEnabled true"`
	KafkaGroupID       string        `env:"KAFKA_GROUP_ID" validate:"required_if=KafkaEnabled true"`
	BatchSize          int           `env:"BATCH_SIZE"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	googleTimeout, err := parseDuration("GOOGLE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	googleSensor, err := parseBool("GOOGLE_SENSOR", false)
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GoogleProtocol:  sharedcfg.EnvOrDefault("GOOGLE_PROTOCOL", "http"),
		GoogleLanguage:  sharedcfg.EnvOrDefault("GOOGLE_LANGUAGE", "en"),
		GoogleSensor:    googleSensor,
		GoogleClientID:  os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleCryptoKey: os.Getenv("GOOGLE_CRYPTO_KEY"),
		GooglePlacesKey: os.Getenv("GOOGLE_PLACES_KEY"),
		GoogleTimeout:   googleTimeout,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "geocode-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "geocode-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "geocode-lookup"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GeocodeDefaults returns the base geocode query carrying protocol, language
// and enterprise credentials.
func (c *Config) GeocodeDefaults() domain.GeocodeQuery {
	return domain.GeocodeQuery{
		Language:  c.GoogleLanguage,
		Protocol:  c.GoogleProtocol,
		Sensor:    c.GoogleSensor,
		ClientID:  c.GoogleClientID,
		CryptoKey: c.GoogleCryptoKey,
	}
}

// AutocompleteDefaults returns the base autocomplete query carrying protocol,
// language and the Places API key.
func (c *Config) AutocompleteDefaults() domain.AutocompleteQuery {
	return domain.AutocompleteQuery{
		APIKey:   c.GooglePlacesKey,
		Language: c.GoogleLanguage,
		Protocol: c.GoogleProtocol,
		Sensor:   c.GoogleSensor,
	}
}

var validate = newValidator()

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	first := verrs[0]
	switch {
	case first.Field() == "GOOGLE_CLIENT_ID" && first.Tag() == "required_with":
		return errors.New("GOOGLE_CRYPTO_KEY is set but GOOGLE_CLIENT_ID is not")
	case first.Tag() == "required" || first.Tag() == "required_if":
		return fmt.Errorf("%s is required", first.Field())
	default:
		return fmt.Errorf("invalid %s: %q fails %s=%s", first.Field(), fmt.Sprint(first.Value()), first.Tag(), first.Param())
	}
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
