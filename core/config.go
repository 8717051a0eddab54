package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultGraphAPIBaseURL    = "https://graph.facebook.com"
	DefaultGraphAPIVersion    = "v18.0"
	DefaultMaxConcurrentSends = 8
)

type WhatsAppConfig struct {
	APIBaseURL            string `koanf:"api_base_url" mapstructure:"api_base_url"`
	APIVersion            string `koanf:"api_version" mapstructure:"api_version"`
	AccessToken           string `koanf:"access_token" mapstructure:"access_token"`
	PhoneNumberID         string `koanf:"phone_number_id" mapstructure:"phone_number_id"`
	BusinessAccountID     string `koanf:"business_account_id" mapstructure:"business_account_id"`
	VerifyToken           string `koanf:"verify_token" mapstructure:"verify_token"`
	AppSecret             string `koanf:"app_secret" mapstructure:"app_secret"`
	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

func (c WhatsAppConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

type DispatchConfig struct {
	FlowsDisabled      bool   `koanf:"flows_disabled" mapstructure:"flows_disabled"`
	MaxConcurrentSends int    `koanf:"max_concurrent_sends" mapstructure:"max_concurrent_sends"`
	FlowCTA            string `koanf:"flow_cta" mapstructure:"flow_cta"`
	HeaderText         string `koanf:"header_text" mapstructure:"header_text"`
	FooterText         string `koanf:"footer_text" mapstructure:"footer_text"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn"`
	Debug  bool   `koanf:"debug" mapstructure:"debug"`
}

type CacheConfig struct {
	TTLSeconds int `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	WhatsApp    WhatsAppConfig `koanf:"whatsapp" mapstructure:"whatsapp"`
	Dispatch    DispatchConfig `koanf:"dispatch" mapstructure:"dispatch"`
	HTTP        HTTPConfig     `koanf:"http" mapstructure:"http"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Cache       CacheConfig    `koanf:"cache" mapstructure:"cache"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "inspection",
		WhatsApp: WhatsAppConfig{
			APIBaseURL:            DefaultGraphAPIBaseURL,
			APIVersion:            DefaultGraphAPIVersion,
			RequestTimeoutSeconds: 30,
		},
		Dispatch: DispatchConfig{
			MaxConcurrentSends: DefaultMaxConcurrentSends,
			FlowCTA:            "Start Inspection",
			HeaderText:         "Restaurant Inspection",
			FooterText:         "Powered by Heyopey.ai",
		},
		HTTP: HTTPConfig{Addr: ":5000"},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:inspection.db?cache=shared&_foreign_keys=on",
		},
		Cache: CacheConfig{TTLSeconds: 60},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.WhatsApp.APIBaseURL) == "" {
		return fmt.Errorf("core: whatsapp.api_base_url is required")
	}
	if strings.TrimSpace(c.WhatsApp.APIVersion) == "" {
		return fmt.Errorf("core: whatsapp.api_version is required")
	}
	if c.Dispatch.MaxConcurrentSends < 0 {
		return fmt.Errorf("core: dispatch.max_concurrent_sends is invalid: %d", c.Dispatch.MaxConcurrentSends)
	}
	return nil
}
