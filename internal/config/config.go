package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jaminalder/tictactoe-rounds/internal/domain"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr string `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	HTTP     HTTP   `yaml:"http"`
	Game     Game   `yaml:"game"`
	Stream   Stream `yaml:"stream"`
}

type HTTP struct {
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Game struct {
	StartMode               string        `yaml:"start-mode" env:"GAME_START_MODE" env-default:"one player"`
	TransitionTimeout       time.Duration `yaml:"transition-timeout" env:"GAME_TRANSITION_TIMEOUT"`
	ResetScoresOnModeSwitch bool          `yaml:"reset-scores-on-mode-switch" env:"GAME_RESET_SCORES_ON_MODE_SWITCH" env-default:"false"`
}

type Stream struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat-interval" env:"STREAM_HEARTBEAT_INTERVAL" env-default:"15s"`
	SubscriberBuffer  int           `yaml:"subscriber-buffer" env:"STREAM_SUBSCRIBER_BUFFER"`
}

const (
	defaultReadTimeout       = 10 * time.Second
	defaultTransitionTimeout = 3 * time.Second
	defaultSubscriberBuffer  = 8
)

// newConfig seeds the defaults of fields whose zero value is meaningful, so
// an explicit zero in the file or environment is kept.
func newConfig() *Config {
	return &Config{
		HTTP:   HTTP{ReadTimeout: defaultReadTimeout},
		Game:   Game{TransitionTimeout: defaultTransitionTimeout},
		Stream: Stream{SubscriberBuffer: defaultSubscriberBuffer},
	}
}

// Load reads the YAML file at path with environment overrides. A missing
// file falls back to the environment alone.
func Load(path string) (*Config, error) {
	config := newConfig()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("read config env: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// MustLoad - load all configurations, panicking on error.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

// Validate checks values the tags cannot express.
func (that *Config) Validate() error {
	if _, err := domain.ParseMode(that.Game.StartMode); err != nil {
		return fmt.Errorf("game.start-mode: %w", err)
	}
	if that.Game.TransitionTimeout < 0 {
		return errors.New("game.transition-timeout must not be negative")
	}
	if that.Stream.SubscriberBuffer < 1 {
		return errors.New("stream.subscriber-buffer must be at least 1")
	}
	return nil
}

// Mode returns the configured start mode, one player when invalid.
func (that *Game) Mode() domain.Mode {
	m, err := domain.ParseMode(that.StartMode)
	if err != nil {
		return domain.OnePlayer
	}
	return m
}
