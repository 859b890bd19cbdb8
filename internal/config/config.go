package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	GatewayURL       string `mapstructure:"GATEWAY_URL" validate:"required,url"`
	DefaultModel     string `mapstructure:"DEFAULT_MODEL"`
	DefaultChatTitle string `mapstructure:"DEFAULT_CHAT_TITLE" validate:"required"`
	RequestTimeout   int    `mapstructure:"REQUEST_TIMEOUT" validate:"gt=0"` // Seconds.
	LogLevel         string `mapstructure:"LOG_LEVEL"`
	LogFile          string `mapstructure:"LOG_FILE"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("GATEWAY_URL", "http://localhost:5001/api")
	viper.SetDefault("DEFAULT_MODEL", "gentle-ai")
	viper.SetDefault("DEFAULT_CHAT_TITLE", "محادثة جديدة")
	viper.SetDefault("REQUEST_TIMEOUT", 120)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FILE", "gentle-client.log")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
