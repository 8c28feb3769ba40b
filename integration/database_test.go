//go:build database

package integration

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a container and returns "host:port" for the given port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// exerciseBackends runs a query with snapshot and history stores on the same database.
func exerciseBackends(t *testing.T, env map[string]string) {
	t.Helper()

	_, err := runLandings(t, env, "history", "migrate")
	require.NoError(t, err)

	_, err = runLandings(t, env, "cache", "clear")
	require.NoError(t, err)

	_, err = runLandings(t, env, "history", "clear")
	require.NoError(t, err)

	_, err = runLandings(t, env, "series", "--site", "kizimkazi")
	require.NoError(t, err)

	out, err := runLandings(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")

	out, err = runLandings(t, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")
}

// TestLandingsWithMySQL tests the landings CLI with a MySQL backend.
func TestLandingsWithMySQL(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "landings",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s)/landings?parseTime=true", addr)
	exerciseBackends(t, map[string]string{
		"LANDINGS_DATA_DIR":           datasetDir,
		"LANDINGS_CACHE_BACKEND":      "mysql",
		"LANDINGS_CACHE_DB_CONNECT":   connStr,
		"LANDINGS_HISTORY_BACKEND":    "mysql",
		"LANDINGS_HISTORY_DB_CONNECT": connStr,
	})
}

// TestLandingsWithPostgres tests the landings CLI with a PostgreSQL backend.
func TestLandingsWithPostgres(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "secret123",
			"POSTGRES_DB":       "landings",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432")

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	connStr := fmt.Sprintf("host=%s port=%s user=postgres password=secret123 dbname=landings sslmode=disable", host, port)
	exerciseBackends(t, map[string]string{
		"LANDINGS_DATA_DIR":           datasetDir,
		"LANDINGS_CACHE_BACKEND":      "postgresql",
		"LANDINGS_CACHE_DB_CONNECT":   connStr,
		"LANDINGS_HISTORY_BACKEND":    "postgresql",
		"LANDINGS_HISTORY_DB_CONNECT": connStr,
	})
}

// TestLandingsWithRedis tests the snapshot cache on a Redis server.
func TestLandingsWithRedis(t *testing.T) {
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")

	env := map[string]string{
		"LANDINGS_DATA_DIR":         datasetDir,
		"LANDINGS_CACHE_BACKEND":    "redis",
		"LANDINGS_CACHE_DB_CONNECT": "redis://" + addr + "/0",
	}

	_, err := runLandings(t, env, "cache", "clear")
	require.NoError(t, err)

	_, err = runLandings(t, env, "yearly", "--site", "matemwe")
	require.NoError(t, err)

	out, err := runLandings(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Entries: 1")
}
