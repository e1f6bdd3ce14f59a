package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server Server
	Store  Store
	Chat   Chat
	Logger Logger
}

type Server struct {
	Port string
}

type Store struct {
	Path string
}

type Chat struct {
	// HistoryLimit caps the number of messages a single history read returns.
	HistoryLimit int
	// TypingWindow is how long a typing indicator may outlive its last
	// signal before the server clears it.
	TypingWindow time.Duration
}

type Logger struct {
	Level string
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: Server{Port: "8080"},
		Store:  Store{Path: "data/chat.db"},
		Chat:   Chat{HistoryLimit: 500, TypingWindow: 10 * time.Second},
		Logger: Logger{Level: "info"},
	}
}

// LoadConfig reads the named yaml config file from the config directory.
func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseConfig unmarshals a loaded viper instance over the defaults.
func ParseConfig(v *viper.Viper) (*Config, error) {
	c := Default()
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}
