package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inventory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 5 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 5)
	}
	if cfg.Upload.MaxFileSize != 32<<20 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 32<<20)
	}
	if cfg.Listing.DefaultLimit != 10 {
		t.Errorf("Listing.DefaultLimit = %d, want %d", cfg.Listing.DefaultLimit, 10)
	}
	if cfg.Listing.MaxLimit != 100 {
		t.Errorf("Listing.MaxLimit = %d, want %d", cfg.Listing.MaxLimit, 100)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Database.AutoMigrate = false, want true")
	}
	if cfg.Events.Enabled() {
		t.Error("Events.Enabled() = true, want false without brokers")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inventory")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_MAX_CONCURRENT", "10")
	t.Setenv("LISTING_MAX_LIMIT", "250")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Listing.MaxLimit != 250 {
		t.Errorf("Listing.MaxLimit = %d, want %d", cfg.Listing.MaxLimit, 250)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/alttest")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL is required") {
		t.Errorf("Load() error = %v, want mention of DATABASE_URL", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inventory")
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inventory")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,,kafka-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}

	if len(cfg.Events.Brokers) != 2 {
		t.Errorf("Events.Brokers = %v, want 2 entries", cfg.Events.Brokers)
	}
	if !cfg.Events.Enabled() {
		t.Error("Events.Enabled() = false, want true")
	}
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/inventory", MaxConns: 20, MinConns: 2},
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Upload:   UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, BatchSize: 1, MaxWaitTime: time.Second, Timeout: time.Minute},
		Listing:  ListingConfig{DefaultLimit: 10, MaxLimit: 100},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Events:   EventsConfig{Topic: "inventory.products"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"max below min conns", func(c *Config) { c.Database.MaxConns = 1; c.Database.MinConns = 4 }, "DB_MAX_CONNS"},
		{"zero batch size", func(c *Config) { c.Upload.BatchSize = 0 }, "UPLOAD_BATCH_SIZE"},
		{"max limit below default", func(c *Config) { c.Listing.MaxLimit = 5 }, "LISTING_MAX_LIMIT"},
		{"brokers without topic", func(c *Config) {
			c.Events.Brokers = []string{"localhost:9092"}
			c.Events.Topic = ""
		}, "KAFKA_PRODUCTS_TOPIC"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Upload.MaxConcurrent = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"SERVER_PORT", "UPLOAD_MAX_CONCURRENT", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestString_MasksDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://admin:s3cret@db/inventory"

	s := cfg.String()
	if strings.Contains(s, "s3cret") {
		t.Errorf("String() leaked credentials: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked URL", s)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 9000, ":9000"},
		{"127.0.0.1", 80, "127.0.0.1:80"},
	}
	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}
