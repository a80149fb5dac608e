// Package config loads the xethctl configuration from a YAML file and
// XETH_* environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/viper"

	"xeth-go/pkg/buffers"
	"xeth-go/pkg/protocol"
)

type Config struct {
	// Socket is the side-band channel address; a leading @ names an
	// abstract unix socket.
	Socket        string `mapstructure:"socket"`
	RxBufferSize  int    `mapstructure:"rx_buffer_size"`
	TxQueueDepth  int    `mapstructure:"tx_queue_depth"`
	LogDB         string `mapstructure:"log_db"`
	APIListenAddr string `mapstructure:"api_listen_address"`
	CaptureFile   string `mapstructure:"capture_file"`
	CaptureLevel  string `mapstructure:"capture_level"`
	Verbose       bool   `mapstructure:"verbose"`
	// ConfigFile is the file actually read, empty when none was found.
	ConfigFile string `mapstructure:"-"`
}

const DefaultConfigName = "xethctl"

func DefaultConfig() *Config {
	return &Config{
		Socket:        "@xeth",
		RxBufferSize:  buffers.PageSize,
		TxQueueDepth:  4,
		APIListenAddr: "127.0.0.1:7779",
		CaptureLevel:  "default",
	}
}

// LoadConfig reads file, or searches for xethctl.yaml in ., /etc/xeth-go/
// and $HOME/.xeth-go when file is empty. A missing config file is not an
// error. Environment variables override file values.
func LoadConfig(file string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	v.SetDefault("socket", cfg.Socket)
	v.SetDefault("rx_buffer_size", cfg.RxBufferSize)
	v.SetDefault("tx_queue_depth", cfg.TxQueueDepth)
	v.SetDefault("log_db", cfg.LogDB)
	v.SetDefault("api_listen_address", cfg.APIListenAddr)
	v.SetDefault("capture_file", cfg.CaptureFile)
	v.SetDefault("capture_level", cfg.CaptureLevel)
	v.SetDefault("verbose", cfg.Verbose)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/xeth-go/")
		v.AddConfigPath("$HOME/.xeth-go")
	}
	v.SetEnvPrefix("XETH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, oops.In("config").With("file", file).Wrapf(err, "read config")
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, oops.In("config").Wrapf(err, "decode config")
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the transport cannot work with.
func (c *Config) Validate() error {
	if c.Socket == "" {
		return oops.In("config").Errorf("socket must not be empty")
	}
	if c.RxBufferSize < protocol.SizeofHeader || c.RxBufferSize > buffers.JumboFrameSize {
		return oops.In("config").
			With("rx_buffer_size", c.RxBufferSize).
			Errorf("rx_buffer_size must be within [%d, %d]", protocol.SizeofHeader, buffers.JumboFrameSize)
	}
	if c.TxQueueDepth < 1 {
		return oops.In("config").
			With("tx_queue_depth", c.TxQueueDepth).
			Errorf("tx_queue_depth must be positive")
	}
	return nil
}
