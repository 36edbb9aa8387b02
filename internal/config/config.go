// Package config 负责从环境变量（以及可选的 .env 文件）加载应用配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用的全部配置
type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	Mongo      MongoConfig
	Migrations MigrationsConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Admin      AdminConfig
	JWT        JWTConfig
	Contact    ContactConfig
	SendGrid   SendGridConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
}

// AppConfig 服务基础配置
type AppConfig struct {
	Name            string
	Env             string
	Version         string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// PublicBaseURL 店铺前台地址，用于拼接订单消息中的商品链接
	PublicBaseURL string
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string
	Encoding string
}

// DatabaseConfig 商品目录存储配置，Driver 取值 mysql 或 mongo
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// MongoConfig MongoDB 连接配置
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MigrationsConfig 数据库迁移配置
type MigrationsConfig struct {
	Dir string
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool
	Type    string
	TTL     time.Duration
	// CartTTL 购物车会话的保留时长
	CartTTL time.Duration
}

// StorageConfig 图片存储配置，Provider 取值 local 或 s3
type StorageConfig struct {
	Provider   string
	LocalDir   string
	LocalURL   string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3KeyID    string
	S3Secret   string
	PublicURL  string
	MaxUpload  int64
}

// AdminConfig 后台共享账号
type AdminConfig struct {
	Username string
	Password string
}

// JWTConfig 后台会话令牌配置
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// ContactConfig 下单联系方式
type ContactConfig struct {
	WhatsAppNumber string
	Email          string
}

// SendGridConfig 订单邮件抄送配置，APIKey 为空时不发送
type SendGridConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
	ToEmail   string
}

// RateLimitConfig 后台登录限流配置
type RateLimitConfig struct {
	LoginAttempts int64
	LoginWindow   time.Duration
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load 加载配置：先尝试读取 .env，再读取环境变量并填充默认值，最后校验。
func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "players-club"),
			Env:             getEnv("APP_ENV", "dev"),
			Version:         getEnv("APP_VERSION", "0.1.0"),
			Port:            getEnvInt("APP_PORT", 8080),
			RequestTimeout:  getEnvDuration("APP_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
			PublicBaseURL:   strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "players_club"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "players_club"),
			Timeout:  getEnvDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Migrations: MigrationsConfig{
			Dir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "127.0.0.1"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("CACHE_ENABLED", true),
			Type:    getEnv("CACHE_TYPE", "memory"),
			TTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
			CartTTL: getEnvDuration("CART_TTL", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Provider:   getEnv("STORAGE_PROVIDER", "local"),
			LocalDir:   getEnv("UPLOAD_DIR", "public/uploads"),
			LocalURL:   strings.TrimSuffix(getEnv("UPLOAD_URL", "/uploads"), "/"),
			S3Bucket:   getEnv("S3_BUCKET", ""),
			S3Region:   getEnv("S3_REGION", "auto"),
			S3Endpoint: getEnv("S3_ENDPOINT", ""),
			S3KeyID:    getEnv("S3_ACCESS_KEY_ID", ""),
			S3Secret:   getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicURL:  strings.TrimSuffix(getEnv("S3_PUBLIC_URL", ""), "/"),
			MaxUpload:  int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Admin: AdminConfig{
			Username: os.Getenv("ADMIN_USERNAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 2*time.Hour),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Contact: ContactConfig{
			WhatsAppNumber: getEnv("CONTACT_WHATSAPP", "355690000000"),
			Email:          getEnv("CONTACT_EMAIL", "tplsclub@gmail.com"),
		},
		SendGrid: SendGridConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromName:  getEnv("SENDGRID_FROM_NAME", "The Players Club"),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@theplayersclub.al"),
			ToEmail:   getEnv("SENDGRID_TO_EMAIL", ""),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: int64(getEnvInt("LOGIN_RATE_LIMIT", 5)),
			LoginWindow:   getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-ID", "X-Cart-Session", "X-Device-ID", "X-Idempotency-Key"}),
		},
	}

	if cfg.SendGrid.ToEmail == "" {
		cfg.SendGrid.ToEmail = cfg.Contact.Email
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置的取值范围
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.App.Port))
	}
	switch c.App.Env {
	case "dev", "test", "prod":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of dev, test, prod: %q", c.App.Env))
	}
	switch c.Database.Driver {
	case "mysql", "mongo":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or mongo: %q", c.Database.Driver))
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_PROVIDER=s3"))
		}
		if c.Storage.PublicURL == "" {
			errs = append(errs, errors.New("S3_PUBLIC_URL is required when STORAGE_PROVIDER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_PROVIDER must be local or s3: %q", c.Storage.Provider))
	}
	if c.JWT.Secret == "" {
		if c.App.Env == "prod" {
			errs = append(errs, errors.New("JWT_SECRET is required in prod"))
		} else {
			c.JWT.Secret = "dev-only-secret"
		}
	}
	if c.RateLimit.LoginAttempts <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
