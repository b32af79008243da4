package config

import (
	"strings"
	"time"

	"github.com/netdash/authcore/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
	DefaultSiteName   = "NetDash"
)

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"poolSize"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // memory | redis
	Redis   RedisConfig `mapstructure:"redis"`
}

type LockoutConfig struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	Window      time.Duration `mapstructure:"window"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend  string     `mapstructure:"backend"` // smtp or empty for none
	From     string     `mapstructure:"from"`
	AlertsTo string     `mapstructure:"alertsTo"` // operations mailbox for reset notifications
	SMTP     SMTPConfig `mapstructure:"smtp"`
}

type Config struct {
	Debug      bool          `mapstructure:"debug"`
	SiteName   string        `mapstructure:"siteName"`
	BaseURL    string        `mapstructure:"baseURL"`
	MasterKey  string        `mapstructure:"masterKey"`
	ListenAddr string        `mapstructure:"listenAddr"`
	Storage    StorageConfig `mapstructure:"storage"`
	Lockout    LockoutConfig `mapstructure:"lockout"`
	Session    SessionConfig `mapstructure:"session"`
	Mail       MailConfig    `mapstructure:"mail"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.SiteName == "" {
		c.SiteName = DefaultSiteName
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Lockout.MaxAttempts == 0 {
		c.Lockout.MaxAttempts = params.LockoutMaxAttempts
	}
	if c.Lockout.Window == 0 {
		c.Lockout.Window = params.DefaultLockoutWindow
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = params.DefaultIdleTimeout
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
