// Package config loads the client's settings from a YAML file, .env and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/braillechain/go/internal/speech"
)

const DefaultPath = "config.yaml"

// Speech engine names
const (
	SpeechEngineGateway = "gateway"
	SpeechEngineCommand = "command"
	SpeechEngineLog     = "log"
)

type KeyboardConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type SpeechConfig struct {
	Engine      string        `yaml:"engine"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	Command     string        `yaml:"command"`
	Args        []string      `yaml:"args"`
}

type LocaleConfig struct {
	Name string `yaml:"name"`
	// File optionally overrides the builtin locale tables.
	File string `yaml:"file"`
}

type GatewayConfig struct {
	Port int `yaml:"port"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type GameConfig struct {
	MenuRoute string `yaml:"menu_route"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Keyboard KeyboardConfig `yaml:"keyboard"`
	Poll     PollConfig     `yaml:"poll"`
	Speech   SpeechConfig   `yaml:"speech"`
	Locale   LocaleConfig   `yaml:"locale"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	NATS     NATSConfig     `yaml:"nats"`
	Game     GameConfig     `yaml:"game"`
	Log      LogConfig      `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Keyboard: KeyboardConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10 * time.Second,
		},
		Poll: PollConfig{
			Interval: 500 * time.Millisecond,
		},
		Speech: SpeechConfig{
			Engine:      SpeechEngineGateway,
			SettleDelay: 100 * time.Millisecond,
		},
		Locale: LocaleConfig{
			Name: "en-US",
		},
		Gateway: GatewayConfig{
			Port: 8090,
		},
		NATS: NATSConfig{
			SubjectPrefix: "braillechain.events",
		},
		Game: GameConfig{
			MenuRoute: "/word_chain_menu",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads .env files into the environment if they exist.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("could not load .env file: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (when
// it exists) and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Keyboard.BaseURL = getEnv("KEYBOARD_URL", c.Keyboard.BaseURL)
	c.Locale.Name = getEnv("LOCALE", c.Locale.Name)
	c.Locale.File = getEnv("LOCALE_FILE", c.Locale.File)
	c.Speech.Engine = getEnv("SPEECH_ENGINE", c.Speech.Engine)
	c.Speech.Command = getEnv("SPEECH_COMMAND", c.Speech.Command)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.Game.MenuRoute = getEnv("MENU_ROUTE", c.Game.MenuRoute)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Gateway.Port = getEnvAsInt("GATEWAY_PORT", c.Gateway.Port)

	var err error
	if c.Keyboard.Timeout, err = getEnvAsDuration("KEYBOARD_TIMEOUT", c.Keyboard.Timeout); err != nil {
		return err
	}
	if c.Poll.Interval, err = getEnvAsDuration("POLL_INTERVAL", c.Poll.Interval); err != nil {
		return err
	}
	if c.Speech.SettleDelay, err = getEnvAsDuration("SPEECH_SETTLE_DELAY", c.Speech.SettleDelay); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Keyboard.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid keyboard base_url %q", c.Keyboard.BaseURL)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Speech.SettleDelay < 0 {
		return fmt.Errorf("speech settle_delay must not be negative, got %s", c.Speech.SettleDelay)
	}
	switch c.Speech.Engine {
	case SpeechEngineGateway, SpeechEngineCommand, SpeechEngineLog:
	default:
		return fmt.Errorf("%w: %q", speech.ErrUnknownSpeechEngine, c.Speech.Engine)
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway port out of range: %d", c.Gateway.Port)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured zerolog level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

func (c *Config) GatewayAddr() string {
	return fmt.Sprintf(":%d", c.Gateway.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
