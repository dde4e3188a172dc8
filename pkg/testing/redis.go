package testing

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

// GetRedisClientAndCtx returns a client for the redis at REDIS_HOST (default localhost),
// or, when REDIS_HOST is set to "docker", for a throwaway redis container.
func GetRedisClientAndCtx(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	redisHost := os.Getenv("REDIS_HOST")
	redisPort := "6379"
	if redisHost == "docker" {
		redisHost = "localhost"
		redisPort = runRedisContainer(t)
	} else if redisHost == "" {
		redisHost = "localhost"
	}
	t.Logf("using redis: [%s:%s]", redisHost, redisPort)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(redisHost, redisPort),
		Password: os.Getenv("REDIS_PASS"),
		DB:       0, // use default DB
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	pingRes, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	t.Logf("redis ping res: %s", pingRes)

	return ctx, rdb
}

func runRedisContainer(t *testing.T) string {
	t.Helper()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create new dockertest pool")
	require.NoError(t, pool.Client.Ping(), "could not ping dockertest pool")

	redisResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err, "run redis")
	t.Cleanup(func() {
		_ = redisResource.Close()
	})

	redisPort := redisResource.GetPort("6379/tcp")
	pool.MaxWait = 20 * time.Second
	err = pool.Retry(func() error {
		rdb := redis.NewClient(&redis.Options{Addr: net.JoinHostPort("localhost", redisPort)})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		return nil
	})
	require.NoError(t, err, "wait for redis")

	return redisPort
}
