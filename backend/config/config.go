package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BOARDHUB"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Database DatabaseConfig `mapstructure:"database"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Monday   MondayConfig   `mapstructure:"monday"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// SQL 打开后记录每条 SQL（调试用）
	SQL bool `mapstructure:"sql"`
	// Retain 历史 app 日志保留时长，0 表示不清理
	Retain time.Duration `mapstructure:"retain"`
}

type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Issuer        string        `mapstructure:"issuer"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type MondayConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	APIToken        string        `mapstructure:"api_token"`
	APIVersion      string        `mapstructure:"api_version"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheSize       int           `mapstructure:"cache_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":19080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.sql", false)
	v.SetDefault("log.retain", 7*24*time.Hour)
	v.SetDefault("data.dir", "data")
	v.SetDefault("database.path", "")
	v.SetDefault("uploads.dir", "")
	v.SetDefault("uploads.max_bytes", 20<<20)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "boardhub")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("monday.api_url", "https://api.monday.com/v2")
	v.SetDefault("monday.api_token", "")
	v.SetDefault("monday.api_version", "2024-10")
	v.SetDefault("monday.timeout", 15*time.Second)
	v.SetDefault("monday.cache_ttl", 5*time.Minute)
	v.SetDefault("monday.cache_size", 256)
	v.SetDefault("monday.refresh_interval", 15*time.Minute)
}

// Load 读取配置：默认值 < 配置文件（可选）< BOARDHUB_* 环境变量。
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDerived()
	return cfg, nil
}

// applyDerived 未显式配置的路径落在 data.dir 下
func (c *Config) applyDerived() {
	if strings.TrimSpace(c.Data.Dir) == "" {
		c.Data.Dir = "data"
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(c.Data.Dir, "boardhub.db")
	}
	if strings.TrimSpace(c.Uploads.Dir) == "" {
		c.Uploads.Dir = filepath.Join(c.Data.Dir, "uploads")
	}
}

// AppLogPath 应用日志文件位置
func (c Config) AppLogPath() string {
	return filepath.Join(c.Data.Dir, "runtime", "app.log")
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("uploads.max_bytes must be positive"))
	}
	if c.Monday.CacheSize <= 0 {
		errs = append(errs, errors.New("monday.cache_size must be positive"))
	}
	if c.Monday.CacheTTL <= 0 {
		errs = append(errs, errors.New("monday.cache_ttl must be positive"))
	}
	if c.Monday.RefreshInterval < 0 {
		errs = append(errs, errors.New("monday.refresh_interval must not be negative"))
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("auth.admin_email and auth.admin_password must be set together"))
	}
	return errors.Join(errs...)
}
