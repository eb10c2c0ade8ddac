package client

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// RoutesConfig holds the application paths the guards redirect between.
type RoutesConfig struct {
	Home             string
	Login            string
	Register         string
	CustomerLanding  string
	BusinessLanding  string
	RejectedRouteKey string
}

// Config configures the HTTP backend client and the guard routes. It
// satisfies session.Config.
type Config struct {
	Environment string
	BaseURL     string
	Timeout     time.Duration
	StoragePath string
	Routes      RoutesConfig
}

func (c *Config) GetHomePath() string            { return c.Routes.Home }
func (c *Config) GetLoginPath() string           { return c.Routes.Login }
func (c *Config) GetRegisterPath() string        { return c.Routes.Register }
func (c *Config) GetCustomerLandingPath() string { return c.Routes.CustomerLanding }
func (c *Config) GetBusinessLandingPath() string { return c.Routes.BusinessLanding }
func (c *Config) GetRejectedRouteKey() string    { return c.Routes.RejectedRouteKey }

// LoadConfig reads session.yaml plus URBANEASE_* environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("session")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("URBANEASE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("baseurl", "https://ue-backend-production.up.railway.app")
	v.SetDefault("timeout", "30s")
	v.SetDefault("storagepath", "session.db")

	v.SetDefault("routes.home", "/")
	v.SetDefault("routes.login", "/login")
	v.SetDefault("routes.register", "/register")
	v.SetDefault("routes.customerlanding", "/customer/profile")
	v.SetDefault("routes.businesslanding", "/business/profile")
	v.SetDefault("routes.rejectedroutekey", "rejected_route")
}
