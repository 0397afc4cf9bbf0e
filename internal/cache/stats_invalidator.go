package cache

import (
	"context"
	"time"

	"github.com/ClareAI/astra-lead-service/pkg/logger"
	redisservice "github.com/ClareAI/astra-lead-service/pkg/redis"
	"go.uber.org/zap"
)

// AgentStatsInvalidator drops cached per-agent call statistics and announces
// completed calls on the pub/sub channel so dashboard consumers can refresh.
type AgentStatsInvalidator struct {
	redis redisservice.RedisServiceInterface
}

func NewAgentStatsInvalidator(redis redisservice.RedisServiceInterface) *AgentStatsInvalidator {
	return &AgentStatsInvalidator{redis: redis}
}

// callCompletedEvent is the pub/sub message body.
type callCompletedEvent struct {
	AgentID        string `json:"agent_id"`
	ConversationID string `json:"conversation_id"`
	CompletedAt    int64  `json:"completed_at"`
}

// InvalidateAgentStats deletes the agent's stats key and publishes the
// completion event. Both operations are best effort; failures are logged
// and swallowed so the pipeline never depends on redis availability.
func (i *AgentStatsInvalidator) InvalidateAgentStats(ctx context.Context, agentID, conversationID string) {
	if i == nil || i.redis == nil {
		return
	}

	key := i.redis.GenerateKey(redisservice.AGENT_STATS, agentID)
	if err := i.redis.DelValue(ctx, key); err != nil {
		logger.Base().Warn("failed to invalidate agent stats cache",
			zap.String("agent_id", agentID),
			zap.Error(err))
	}

	event := callCompletedEvent{
		AgentID:        agentID,
		ConversationID: conversationID,
		CompletedAt:    time.Now().Unix(),
	}
	if err := i.redis.Publish(ctx, redisservice.CallCompletedChannel, event); err != nil {
		logger.Base().Warn("failed to publish call completed event",
			zap.String("agent_id", agentID),
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}
}
