package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/dogmatiq/psikit/internal/config"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	t.Run("it applies the document on top of the defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
threshold: 5
storage:
  driver: postgres
  keyspace_prefix: tenant-a.
  postgres:
    dsn: postgres://localhost/psikit
  memory:
    record_ttl: 1h
listen:
  http: ""
`))
		if err != nil {
			t.Fatal(err)
		}

		want := Default()
		want.Threshold = 5
		want.Listen.HTTP = ""
		want.Storage.Driver = PostgresDriver
		want.Storage.KeyspacePrefix = "tenant-a."
		want.Storage.Postgres.DSN = "postgres://localhost/psikit"
		want.Storage.Memory.RecordTTL = time.Hour

		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("unexpected config (-want +got):\n%s", diff)
		}

		if err := cfg.Validate(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("it returns the defaults for an empty document", func(t *testing.T) {
		cfg, err := Parse(nil)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Fatalf("unexpected config (-want +got):\n%s", diff)
		}
	})

	t.Run("it rejects unknown keys", func(t *testing.T) {
		if _, err := Parse([]byte("thresold: 3\n")); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("it rejects a record limit for the memory driver", func(t *testing.T) {
		_, err := Parse([]byte(`
storage:
  memory:
    max_records: 1000
`))
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it loads the file at the given path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "psid.yaml")
		if err := os.WriteFile(path, []byte("threshold: 7\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Threshold != 7 {
			t.Fatalf("unexpected threshold: got %d, want 7", cfg.Threshold)
		}
	})

	t.Run("it returns the defaults if the path is empty", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(Default(), cfg); diff != "" {
			t.Fatalf("unexpected config (-want +got):\n%s", diff)
		}
	})

	t.Run("it returns an error if the file does not exist", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("it accepts the defaults", func(t *testing.T) {
		if err := Default().Validate(); err != nil {
			t.Fatal(err)
		}
	})

	cases := []struct {
		Desc   string
		Modify func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Threshold = 0 }},
		{"no listeners", func(c *Config) { c.Listen = ListenConfig{} }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "<unknown>" }},
		{"postgres without DSN", func(c *Config) { c.Storage.Driver = PostgresDriver }},
		{"dynamodb without table", func(c *Config) { c.Storage.Driver = DynamoDBDriver; c.Storage.DynamoDB.Table = "" }},
		{"redis without address", func(c *Config) { c.Storage.Driver = RedisDriver; c.Storage.Redis.Addr = "" }},
		{"negative record TTL", func(c *Config) { c.Storage.Memory.RecordTTL = -time.Second }},
		{"negative limit", func(c *Config) { c.Limits.MaxElements = -1 }},
		{"unknown exporter", func(c *Config) { c.Telemetry.Exporter = "<unknown>" }},
		{"unknown log mode", func(c *Config) { c.Log.Mode = "<unknown>" }},
	}

	for _, c := range cases {
		t.Run("it rejects "+c.Desc, func(t *testing.T) {
			cfg := Default()
			c.Modify(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
