package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime configuration. Values come from the yaml
// file when one is given, overridable through environment variables.
type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	SQLitePath   string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./relay.db"`
	JWTSecret    string `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"change-me"`
	OTLPEndpoint string `yaml:"otlp-endpoint" env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	Redis        Redis  `yaml:"redis"`
	Relay        Relay  `yaml:"relay"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"true"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Relay struct {
	// EvictEmptyRooms drops a room once its last participant
	// disconnects. Off by default: the reference behavior keeps rooms
	// for the life of the process.
	EvictEmptyRooms bool `yaml:"evict-empty-rooms" env:"RELAY_EVICT_EMPTY_ROOMS" env-default:"false"`
}

// Load reads configuration from path, or from the environment alone
// when path is empty.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read config from environment: %w", err)
		}
		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}
	return config, nil
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
