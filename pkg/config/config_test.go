package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "crud-events", cfg.Events.Topic)
	assert.Empty(t, cfg.KafkaBrokers())
	assert.Empty(t, cfg.RedisAddrs())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", StorePostgres)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PG_DATABASE", "docs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers())
	assert.Contains(t, cfg.GetDatabaseDSN(), "dbname=docs")
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("config.yaml", []byte(`
server:
  port: 7000
  base_url: http://docs.example.com
cache:
  redis_addr: localhost:6379
  ttl: 30s
`), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "http://docs.example.com", cfg.Server.BaseURL)
	assert.Equal(t, []string{"localhost:6379"}, cfg.RedisAddrs())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Server: ServerConfig{Port: 80}, Store: StoreConfig{Driver: StoreMemory}}, false},
		{"postgres", Config{Server: ServerConfig{Port: 80}, Store: StoreConfig{Driver: StorePostgres}}, false},
		{"unknown driver", Config{Server: ServerConfig{Port: 80}, Store: StoreConfig{Driver: "mongo"}}, true},
		{"bad port", Config{Server: ServerConfig{Port: 0}, Store: StoreConfig{Driver: StoreMemory}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
