package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-pairing/backend/internal/domain"
)

// solveCacheKey 是请求 JSON 的 sha256，字段顺序由结构体固定
func solveCacheKey(req domain.SolveRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "solve_result_" + hex.EncodeToString(sum[:]), nil
}

// cachedOutcome 读取缓存；缓存不可用时视为未命中
func (h *Handler) cachedOutcome(ctx context.Context, key string) (*domain.SolveOutcome, bool) {
	if h.redisClient == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	b, err := h.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("读取求解缓存失败", "key", key, "error", err)
		}
		return nil, false
	}

	out := &domain.SolveOutcome{}
	if err := json.Unmarshal(b, out); err != nil {
		slog.Warn("求解缓存格式错误", "key", key, "error", err)
		return nil, false
	}
	return out, true
}

func (h *Handler) cacheOutcome(ctx context.Context, key string, out *domain.SolveOutcome) {
	if h.redisClient == nil {
		return
	}

	b, err := json.Marshal(out)
	if err != nil {
		slog.Warn("序列化求解结果失败", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, key, b, time.Duration(h.config.Redis.ResultTTL)*time.Second).Err(); err != nil {
		slog.Warn("写入求解缓存失败", "key", key, "error", err)
	}
}
