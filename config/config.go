package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Tracker  TrackerConfig  `yaml:"tracker"`
	Input    InputConfig    `yaml:"input"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
}

type TrackerConfig struct {
	APIBase               string `yaml:"api_base"`
	APIMode               string `yaml:"api_mode"` // "http" | "fake"
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	RequestDelayMillis    int    `yaml:"request_delay_ms"`
	MinCodeLength         int    `yaml:"min_code_length"`
	Concurrency           int    `yaml:"concurrency"`
	SnapshotDir           string `yaml:"snapshot_dir"`

	// Status HTTP server (optional). Empty address disables it.
	StatusAddr  string `yaml:"status_addr"`
	SwaggerPath string `yaml:"swagger_path"`
}

type InputConfig struct {
	MinCodeLength int `yaml:"min_code_length"`
}

// Sinks below are optional: an empty host disables the sink.

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	TrackingUpdatedTopicName string `yaml:"tracking_updated_topic_name"`
}

type RedisConfig struct {
	Host                    string `yaml:"host"`
	Port                    int    `yaml:"port"`
	CurrentStatusTTLSeconds int    `yaml:"current_status_ttl_seconds"`
}

func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			APIBase:               "https://www.vaspexpresso.pt/api/TrackAndTrace/?term=",
			APIMode:               "http",
			RequestTimeoutSeconds: 10,
			RequestDelayMillis:    1000,
			MinCodeLength:         5,
			Concurrency:           1,
			SnapshotDir:           "snapshots",
		},
		Input: InputConfig{
			MinCodeLength: 13,
		},
		Kafka: KafkaConfig{
			TrackingUpdatedTopicName: "tracking.updated",
		},
		Redis: RedisConfig{
			CurrentStatusTTLSeconds: 600,
		},
	}
}

// LoadConfig reads the YAML file on top of Default(). An empty filename
// returns the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := Default()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return config, nil
}

func (c TrackerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c TrackerConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMillis) * time.Millisecond
}

func (c RedisConfig) CurrentStatusTTL() time.Duration {
	return time.Duration(c.CurrentStatusTTLSeconds) * time.Second
}
