package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		wantErr string
	}{
		{"mongo default uri", DatabaseConfig{Driver: DriverMongo}, ""},
		{"valkey without addrs", DatabaseConfig{Driver: DriverValkey},
			`database.addrs is required for driver "valkey"`},
		{"redis with addrs", DatabaseConfig{Driver: DriverRedis, Addrs: []string{"localhost:6379"}}, ""},
		{"sqlite without path", DatabaseConfig{Driver: DriverSQLite},
			`database.path is required for driver "sqlite"`},
		{"sqlite with path", DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, ""},
		{"memory", DatabaseConfig{Driver: DriverMemory}, ""},
		{"unknown", DatabaseConfig{Driver: "cassandra"},
			`database.driver must be one of mongo, valkey, redis, sqlite, memory, got "cassandra"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{HTTP: HTTPConfig{Port: 8080}, Database: tc.db}
			cfg.ApplyDefaults()

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("unexpected error:\ngot:  %v\nwant: %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Query: QueryConfig{DefaultLimit: 200, MaxLimit: 100},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default_limit exceeds max_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("unexpected http timeouts: %+v", cfg.HTTP)
	}
	if cfg.HTTP.MaxBodyBytes != 1<<20 {
		t.Errorf("expected max body 1MiB, got %d", cfg.HTTP.MaxBodyBytes)
	}
	if cfg.Database.Driver != DriverMongo {
		t.Errorf("expected driver mongo, got %q", cfg.Database.Driver)
	}
	if cfg.Database.URI != "mongodb://localhost:27017" {
		t.Errorf("unexpected uri %q", cfg.Database.URI)
	}
	if cfg.Database.DefaultName != "cegep_bd1" {
		t.Errorf("expected default database cegep_bd1, got %q", cfg.Database.DefaultName)
	}
	if cfg.Database.KeyPrefix != "minicompass:" {
		t.Errorf("unexpected key prefix %q", cfg.Database.KeyPrefix)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected readiness 10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Query.DefaultLimit != 50 || cfg.Query.MaxLimit != 1000 {
		t.Errorf("unexpected query config: %+v", cfg.Query)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 15},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "x.db", DefaultName: "shop", KeyPrefix: "p:"},
		Query:    QueryConfig{DefaultLimit: 20, MaxLimit: 200},
		CORS:     CORSConfig{AllowedOrigins: []string{"https://a.example"}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 || cfg.HTTP.ShutdownSec != 15 {
		t.Errorf("http timeouts overridden: %+v", cfg.HTTP)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.URI != "" {
		t.Errorf("database overridden: %+v", cfg.Database)
	}
	if cfg.Database.DefaultName != "shop" || cfg.Database.KeyPrefix != "p:" {
		t.Errorf("database names overridden: %+v", cfg.Database)
	}
	if cfg.Query.DefaultLimit != 20 || cfg.Query.MaxLimit != 200 {
		t.Errorf("query overridden: %+v", cfg.Query)
	}
	if cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("origins overridden: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MC_SET", "value")
	t.Setenv("MC_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"a: ${MC_SET}", "a: value"},
		{"a: ${MC_SET:-fallback}", "a: value"},
		{"a: ${MC_EMPTY:-fallback}", "a: fallback"},
		{"a: ${MC_UNSET_VAR}", "a: "},
		{"a: ${MC_UNSET_VAR:-mongodb://h:1}", "a: mongodb://h:1"},
		{"a: plain", "a: plain"},
	}
	for _, tc := range tests {
		if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("MC_TEST_PORT", "9090")

	path := filepath.Join(t.TempDir(), "test.yaml")
	yaml := `
http:
  port: ${MC_TEST_PORT}
database:
  driver: sqlite
  path: ${MC_TEST_SQLITE:-/tmp/mc.db}
query:
  max_limit: 200
cors:
  allowed_origins: ["https://a.example", "https://b.example"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/mc.db" {
		t.Errorf("path = %q", cfg.Database.Path)
	}
	if cfg.Query.MaxLimit != 200 || cfg.Query.DefaultLimit != 50 {
		t.Errorf("query = %+v", cfg.Query)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_ShippedEnvironments(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%s): %v", env, err)
			}
			if cfg.Database.DefaultName != "cegep_bd1" {
				t.Errorf("default database = %q", cfg.Database.DefaultName)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
