// Package testutil starts shared backing services for integration tests.
// Each helper honours an environment override and skips the calling test
// when neither the override nor Docker is available.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Environment overrides for externally managed services.
const (
	EnvRedisAddr   = "FORMFLOW_REDIS_ADDR"
	EnvPostgresDSN = "FORMFLOW_POSTGRES_DSN"
	EnvMongoURI    = "FORMFLOW_MONGO_URI"
)

type service struct {
	once     sync.Once
	endpoint string
	err      error
}

var (
	redisSvc    service
	postgresSvc service
	mongoSvc    service
)

// RedisAddress returns host:port of a Redis server.
func RedisAddress(t *testing.T) string {
	t.Helper()
	return resolve(t, &redisSvc, EnvRedisAddr, func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(ctx, "redis:7",
			testcontainers.WithExposedPorts("6379/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		)
		if err != nil {
			return "", err
		}
		return c.Endpoint(ctx, "")
	})
}

// PostgresDSN returns a connection string for a disposable database.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	return resolve(t, &postgresSvc, EnvPostgresDSN, func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(ctx, "postgres:16",
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort("5432/tcp"),
					wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
						return fmt.Sprintf("postgres://formflow:formflow@%s:%s/formflow_test?sslmode=disable", host, port.Port())
					}).WithQuery("SELECT 1"),
				).WithDeadline(2*time.Minute),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     "formflow",
				"POSTGRES_PASSWORD": "formflow",
				"POSTGRES_DB":       "formflow_test",
			}),
		)
		if err != nil {
			return "", err
		}
		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("postgres://formflow:formflow@%s/formflow_test?sslmode=disable", endpoint), nil
	})
}

// MongoURI returns a mongodb:// URI.
func MongoURI(t *testing.T) string {
	t.Helper()
	return resolve(t, &mongoSvc, EnvMongoURI, func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(ctx, "mongo:7",
			testcontainers.WithExposedPorts("27017/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("27017/tcp").WithStartupTimeout(2*time.Minute),
			),
		)
		if err != nil {
			return "", err
		}
		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			return "", err
		}
		return "mongodb://" + endpoint, nil
	})
}

// resolve starts a service once per test binary. Containers are reaped by
// the testcontainers ryuk sidecar when the binary exits.
func resolve(t *testing.T, svc *service, env string, start func(context.Context) (string, error)) string {
	t.Helper()
	if v := os.Getenv(env); v != "" {
		return v
	}
	if testing.Short() {
		t.Skipf("skipping integration test in short mode (set %s to run)", env)
	}

	svc.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				svc.err = fmt.Errorf("starting container panicked: %v", r)
			}
		}()
		svc.endpoint, svc.err = start(ctx)
	})
	if svc.err != nil {
		t.Skipf("skipping integration test: %v", svc.err)
	}
	return svc.endpoint
}
