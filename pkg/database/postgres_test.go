package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flowscan/pkg/config"
)

func testDatabaseConfig(t *testing.T) *config.Config {
	t.Helper()
	url := os.Getenv("FLOWSCAN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FLOWSCAN_TEST_DATABASE_URL not set, skipping integration test")
	}
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		},
	}
}

func TestNew(t *testing.T) {
	cfg := testDatabaseConfig(t)

	db, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	status, err := db.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.GreaterOrEqual(t, status.TotalConns, int32(1))
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "://not-a-url"},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
