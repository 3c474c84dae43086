// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/u-root/wifiseek/pkg/trial"
	"github.com/u-root/wifiseek/pkg/wifi"
)

const envPrefix = "WIFISEEK"

// Config is the runtime configuration shared by every command.
type Config struct {
	ConfigDir    string        `mapstructure:"config_dir" validate:"required"`
	PasswordFile string        `mapstructure:"password_file"`
	Store        string        `mapstructure:"store" validate:"oneof=json sqlite"`
	StorePath    string        `mapstructure:"store_path"`
	Interface    string        `mapstructure:"interface"`
	PollAttempts int           `mapstructure:"poll_attempts" validate:"min=1,max=1000"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0s"`
	Pace         time.Duration `mapstructure:"pace" validate:"gte=0s"`
	ScanTimeout  time.Duration `mapstructure:"scan_timeout" validate:"gt=0s"`
	Workers      int           `mapstructure:"workers" validate:"min=1,max=64"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_dir", "./config")
	v.SetDefault("password_file", "")
	v.SetDefault("store", "json")
	v.SetDefault("store_path", "")
	v.SetDefault("interface", "")
	v.SetDefault("poll_attempts", trial.DefaultPollAttempts)
	v.SetDefault("poll_interval", trial.DefaultPollInterval)
	v.SetDefault("pace", trial.DefaultPace)
	v.SetDefault("scan_timeout", wifi.DefaultScanTimeout)
	v.SetDefault("workers", 1)
}

// loadConfig reads cfgFile, or $HOME/.wifiseek.yaml when it is empty, then
// the WIFISEEK_ environment. A missing default file is not an error.
func loadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath("$HOME")
		v.SetConfigName(".wifiseek")
		v.SetConfigType("yaml")
		_ = v.ReadInConfig()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if c.PasswordFile == "" {
		c.PasswordFile = filepath.Join(c.ConfigDir, "password.txt")
	}
	if c.StorePath == "" {
		name := "successful_connections.json"
		if c.Store == "sqlite" {
			name = "credentials.db"
		}
		c.StorePath = filepath.Join(c.ConfigDir, name)
	}
	return &c, nil
}
