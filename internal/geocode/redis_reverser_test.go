package geocode_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/fitdash/internal/geocode"
	"github.com/2beens/fitdash/internal/telemetry/metrics"
)

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "geocode::5252::1340", geocode.RedisKey(geocode.KeyFor(52.52, 13.40)))
	assert.Equal(t, "geocode::-3386::15120", geocode.RedisKey(geocode.KeyFor(-33.8688, 151.2093)))
}

func TestRedisCachedReverser_MissThenStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	reverserMock := NewMockReverser(ctrl)
	db, mock := redismock.NewClientMock()
	ttl := 24 * time.Hour

	addr := &geocode.Address{City: "Berlin", Country: "Germany"}
	addrBytes, err := json.Marshal(addr)
	require.NoError(t, err)

	mock.ExpectGet("geocode::5252::1340").RedisNil()
	mock.ExpectSet("geocode::5252::1340", addrBytes, ttl).SetVal("OK")
	reverserMock.EXPECT().Reverse(gomock.Any(), 52.52, 13.4).Return(addr, nil).Times(1)

	r := geocode.NewRedisCachedReverser(reverserMock, db, ttl, metrics.NewTestManager())
	got, err := r.Reverse(context.Background(), 52.52, 13.4)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachedReverser_Hit(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no expectations: a cache hit must not reach the next reverser
	reverserMock := NewMockReverser(ctrl)
	db, mock := redismock.NewClientMock()
	metricsManager := metrics.NewTestManager()

	mock.ExpectGet("geocode::100::200").SetVal(`{"town":"Alpha","country":"A"}`)

	r := geocode.NewRedisCachedReverser(reverserMock, db, time.Hour, metricsManager)
	got, err := r.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha, A", got.Place())
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterGeocodeCacheHits.WithLabelValues(metrics.CacheTierRedis)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachedReverser_FailureIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	reverserMock := NewMockReverser(ctrl)
	db, mock := redismock.NewClientMock()

	mock.ExpectGet("geocode::100::200").SetErr(errors.New("connection refused"))
	reverserMock.EXPECT().Reverse(gomock.Any(), 1.0, 2.0).Return(nil, errors.New("timeout")).Times(1)

	r := geocode.NewRedisCachedReverser(reverserMock, db, time.Hour, metrics.NewTestManager())
	got, err := r.Reverse(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Nil(t, got)
	// no Set expected
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachedReverser_CorruptEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	reverserMock := NewMockReverser(ctrl)
	db, mock := redismock.NewClientMock()

	addr := &geocode.Address{Village: "Hallstatt", Country: "Austria"}
	addrBytes, err := json.Marshal(addr)
	require.NoError(t, err)

	mock.ExpectGet("geocode::4756::1364").SetVal("{not json")
	mock.ExpectSet("geocode::4756::1364", addrBytes, time.Hour).SetVal("OK")
	reverserMock.EXPECT().Reverse(gomock.Any(), gomock.Any(), gomock.Any()).Return(addr, nil).Times(1)

	r := geocode.NewRedisCachedReverser(reverserMock, db, time.Hour, metrics.NewTestManager())
	got, err := r.Reverse(context.Background(), 47.5622, 13.6493)
	require.NoError(t, err)
	assert.Equal(t, "Hallstatt, Austria", got.Place())
	assert.NoError(t, mock.ExpectationsWereMet())
}
