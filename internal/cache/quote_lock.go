package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrQuoteLocked 报价单正被其他请求占用
var ErrQuoteLocked = errors.New("报价单操作进行中，请稍后重试")

// unlockScript 只释放自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// QuoteLocker 报价单级互斥锁。Redis 可用时用 SETNX 实现跨实例
// 互斥；未启用 Redis 时退化为进程内互斥。
type QuoteLocker struct {
	ttl time.Duration

	mu    sync.Mutex
	local map[uint]*sync.Mutex
}

// NewQuoteLocker 创建报价单锁
func NewQuoteLocker(ttl time.Duration) *QuoteLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QuoteLocker{ttl: ttl, local: make(map[uint]*sync.Mutex)}
}

// Lock 获取报价单锁，返回释放函数。锁被占用时返回 ErrQuoteLocked。
func (l *QuoteLocker) Lock(ctx context.Context, quoteID uint) (func(), error) {
	if Enabled() {
		return l.lockRedis(ctx, quoteID)
	}
	return l.lockLocal(quoteID)
}

func (l *QuoteLocker) lockRedis(ctx context.Context, quoteID uint) (func(), error) {
	key := buildKey(fmt.Sprintf("quote_lock:%d", quoteID))
	token := uuid.New().String()
	ok, err := Client().SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrQuoteLocked
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, _ = unlockScript.Run(releaseCtx, Client(), []string{key}, token).Result()
	}, nil
}

func (l *QuoteLocker) lockLocal(quoteID uint) (func(), error) {
	l.mu.Lock()
	m, ok := l.local[quoteID]
	if !ok {
		m = &sync.Mutex{}
		l.local[quoteID] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, ErrQuoteLocked
	}
	return m.Unlock, nil
}
