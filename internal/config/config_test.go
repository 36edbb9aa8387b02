package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "mongo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Storage.LocalURL != "/uploads" {
		t.Errorf("Storage.LocalURL = %q, want /uploads", cfg.Storage.LocalURL)
	}
	if cfg.JWT.Secret == "" {
		t.Error("JWT.Secret should fall back to a dev secret outside prod")
	}
	if cfg.SendGrid.ToEmail != cfg.Contact.Email {
		t.Errorf("SendGrid.ToEmail = %q, want contact email %q", cfg.SendGrid.ToEmail, cfg.Contact.Email)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 9090 {
		t.Errorf("App.Port = %d, want 9090", cfg.App.Port)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.App.PublicBaseURL != "https://shop.example" {
		t.Errorf("App.PublicBaseURL = %q", cfg.App.PublicBaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.App.Port = 70000 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Provider = "s3" }, wantErr: true},
		{name: "prod without secret", mutate: func(c *Config) { c.App.Env = "prod"; c.JWT.Secret = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				App:       AppConfig{Env: "dev", Port: 8080},
				Database:  DatabaseConfig{Driver: "mysql"},
				Storage:   StorageConfig{Provider: "local"},
				JWT:       JWTConfig{Secret: "s"},
				RateLimit: RateLimitConfig{LoginAttempts: 5, LoginWindow: time.Minute},
			}
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
