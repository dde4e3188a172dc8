//go:build integration

package integration_testing

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/2beens/fitdash/internal"
	"github.com/2beens/fitdash/internal/config"
	fitdashtesting "github.com/2beens/fitdash/pkg/testing"
)

const (
	serverPort        = 9000
	serverHost        = "localhost"
	metricsServerPort = "9092"
	testDataPath      = "../internal/dashboard/testdata/daily.csv"
	reloadLimitPerMin = 2
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	ctx            context.Context
	redisClient    *redis.Client
	server         *internal.Server
	nominatimCalls *atomic.Int64
}

// newSuite starts a fake nominatim, a redis (see pkg/testing for REDIS_HOST)
// and the full server on serverPort.
func newSuite(t *testing.T) *Suite {
	t.Helper()

	ctx, rdb := fitdashtesting.GetRedisClientAndCtx(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	calls := &atomic.Int64{}
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		if err != nil {
			http.Error(w, "bad lat", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if lat > 50 {
			_, _ = w.Write([]byte(`{"display_name":"Berlin","address":{"city":"Berlin","country":"Germany"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"display_name":"Paris","address":{"city":"Paris","country":"France"}}`))
	}))
	t.Cleanup(nominatim.Close)

	redisHost, redisPort, err := net.SplitHostPort(rdb.Options().Addr)
	require.NoError(t, err)

	cfg := getTestConfig(redisHost, redisPort, nominatim.URL)
	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:                  cfg,
		RedisPassword:           rdb.Options().Password,
		HoneycombTracingEnabled: false,
	})
	require.NoError(t, err)

	server.Serve(cfg.Host, cfg.Port)
	t.Cleanup(server.GracefulShutdown)

	require.Eventually(t, func() bool {
		resp, err := http.Get(serverEndpoint + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	return &Suite{
		ctx:            ctx,
		redisClient:    rdb,
		server:         server,
		nominatimCalls: calls,
	}
}

func getTestConfig(redisHost, redisPort, geocodeBaseURL string) *config.Config {
	cfg := config.Default()
	cfg.Host = serverHost
	cfg.Port = serverPort
	cfg.DataCsvPath = testDataPath
	cfg.GeocodingEnabled = true
	cfg.GeocodeBaseURL = geocodeBaseURL
	cfg.GeocodeUserAgent = "fitdash-integration-test"
	cfg.RedisCacheEnabled = true
	cfg.RedisHost = redisHost
	cfg.RedisPort = redisPort
	cfg.GeocodeRedisTTLHours = 1
	cfg.ReloadRateLimitPerMin = reloadLimitPerMin
	cfg.CorsAllowedOrigins = []string{"http://localhost:3000"}
	cfg.PrometheusMetricsHost = serverHost
	cfg.PrometheusMetricsPort = metricsServerPort
	return cfg
}
