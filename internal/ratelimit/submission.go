package ratelimit

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	"go.uber.org/zap"
)

// SubmissionLimiter throttles subscription submissions per tenant. Without a
// redis client or with a zero rate it admits everything, so single-node and
// test deployments need no redis.
type SubmissionLimiter struct {
	bucket        *TokenBucket
	log           *zap.Logger
	ratePerMinute int
}

func NewSubmissionLimiter(bucket *TokenBucket, log *zap.Logger, cfg config.Config) *SubmissionLimiter {
	return &SubmissionLimiter{
		bucket:        bucket,
		log:           log.Named("ratelimit.submission"),
		ratePerMinute: cfg.SubmissionRatePerMinute,
	}
}

func (s *SubmissionLimiter) Allow(ctx context.Context, tenantID snowflake.ID) bool {
	if s == nil || s.bucket == nil || s.ratePerMinute <= 0 {
		return true
	}

	key := "ratelimit:submission:" + tenantID.String()
	result, err := s.bucket.Allow(ctx, key, float64(s.ratePerMinute)/60.0, s.ratePerMinute)
	if err != nil {
		// Redis trouble must not block submissions.
		s.log.Warn("rate limit check failed, admitting request", zap.Error(err))
		return true
	}
	return result.Allowed
}
