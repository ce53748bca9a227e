package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

var (
	ErrInvalidPort   = errors.New("invalid port")
	ErrInvalidShards = errors.New("shards must be positive")
	ErrInvalidTTL    = errors.New("durations must not be negative")
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host          string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port          string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password      string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB            int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	OutcomeStream string `yaml:"outcome-stream" env:"REDIS_OUTCOME_STREAM" env-default:"game:outcomes"`
	ChannelPrefix string `yaml:"channel-prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"room:"`
}

type Game struct {
	DefaultProfile  string        `yaml:"default-profile" env:"GAME_DEFAULT_PROFILE" env-default:"classic_15x15"`
	Shards          int           `yaml:"shards" env:"GAME_SHARDS" env-default:"32"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"GAME_CLEANUP_INTERVAL" env-default:"1m"`
	WaitingRoomTTL  time.Duration `yaml:"waiting-room-ttl" env:"GAME_WAITING_ROOM_TTL" env-default:"0s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads config.yml and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) Validate() error {
	for name, port := range map[string]string{
		"http-port":   that.HTTPPort,
		"socket-port": that.SocketPort,
		"redis.port":  that.Redis.Port,
	} {
		if err := validatePort(port); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if that.Game.Shards <= 0 {
		return ErrInvalidShards
	}

	if that.Game.CleanupInterval < 0 || that.Game.WaitingRoomTTL < 0 {
		return ErrInvalidTTL
	}

	if _, err := that.Game.Profile(); err != nil {
		return err
	}

	return nil
}

func validatePort(port string) error {
	number, err := strconv.Atoi(port)
	if err != nil || number <= 0 || number > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}

	return nil
}

// Profile - resolves the configured default board profile.
func (that *Game) Profile() (entity.BoardProfile, error) {
	profile, err := entity.ProfileByName(that.DefaultProfile)
	if err != nil {
		return entity.BoardProfile{}, fmt.Errorf("default-profile: %w", err)
	}

	return profile, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
