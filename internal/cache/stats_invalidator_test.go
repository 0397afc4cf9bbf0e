package cache

import (
	"context"
	"net"
	"testing"
	"time"

	redisservice "github.com/ClareAI/astra-lead-service/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisservice.RedisService) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	svc, err := redisservice.NewRedisService(&redisservice.RedisConfig{
		Host: host,
		Port: port,
	})
	require.NoError(t, err)
	return mr, svc
}

func TestInvalidateAgentStatsDeletesCachedKey(t *testing.T) {
	mr, svc := newTestRedis(t)
	inv := NewAgentStatsInvalidator(svc)

	key := svc.GenerateKey(redisservice.AGENT_STATS, "va-1")
	require.NoError(t, svc.SetValue(context.Background(), key, `{"total_calls": 7}`, time.Minute))
	require.True(t, mr.Exists(key))

	inv.InvalidateAgentStats(context.Background(), "va-1", "conv-1")

	assert.False(t, mr.Exists(key))
}

func TestInvalidateAgentStatsLeavesOtherAgentsAlone(t *testing.T) {
	mr, svc := newTestRedis(t)
	inv := NewAgentStatsInvalidator(svc)

	otherKey := svc.GenerateKey(redisservice.AGENT_STATS, "va-2")
	require.NoError(t, svc.SetValue(context.Background(), otherKey, "cached", time.Minute))

	inv.InvalidateAgentStats(context.Background(), "va-1", "conv-1")

	assert.True(t, mr.Exists(otherKey))
}

func TestInvalidateAgentStatsSurvivesRedisOutage(t *testing.T) {
	mr, svc := newTestRedis(t)
	inv := NewAgentStatsInvalidator(svc)
	mr.Close()

	// Must not panic and must not block the caller.
	assert.NotPanics(t, func() {
		inv.InvalidateAgentStats(context.Background(), "va-1", "conv-1")
	})
}

func TestInvalidateAgentStatsNilService(t *testing.T) {
	inv := NewAgentStatsInvalidator(nil)
	assert.NotPanics(t, func() {
		inv.InvalidateAgentStats(context.Background(), "va-1", "conv-1")
	})
}
