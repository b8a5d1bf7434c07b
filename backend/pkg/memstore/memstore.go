package memstore

import (
	"context"
	"sync"
	"time"
)

// sweepInterval 两次清理过期数据的最小间隔
const sweepInterval = time.Minute

// Store 进程内键值与 Pub/Sub 实现
// Redis 不可用或未启用时作为降级方案，方法集与 redis.Client 保持一致；
// 仅适用于单实例部署
type Store struct {
	mu        sync.Mutex
	keys      map[string]time.Time // key → 过期时间（零值表示永不过期）
	windows   map[string]*rateWindow
	subs      map[string]map[chan []byte]struct{}
	now       func() time.Time
	lastSweep time.Time
}

// rateWindow 单个限流键的滑动窗口
type rateWindow struct {
	span time.Duration
	hits []time.Time
}

// New 创建 Store
func New() *Store {
	return &Store{
		keys:    make(map[string]time.Time),
		windows: make(map[string]*rateWindow),
		subs:    make(map[string]map[chan []byte]struct{}),
		now:     time.Now,
	}
}

// ── 键值 ──

func (s *Store) expired(exp, now time.Time) bool {
	return !exp.IsZero() && !now.Before(exp)
}

func (s *Store) alive(key string) bool {
	exp, ok := s.keys[key]
	if !ok {
		return false
	}
	if s.expired(exp, s.now()) {
		delete(s.keys, key)
		return false
	}
	return true
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

// sweep 写入时顺带清理过期 key 与空闲限流窗口，至多每 sweepInterval 一次
// 调用方需持有 s.mu
func (s *Store) sweep() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for key, exp := range s.keys {
		if s.expired(exp, now) {
			delete(s.keys, key)
		}
	}
	for key, w := range s.windows {
		if len(w.hits) == 0 || !w.hits[len(w.hits)-1].After(now.Add(-w.span)) {
			delete(s.windows, key)
		}
	}
}

// SetNX 仅当 key 不存在时写入
func (s *Store) SetNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	if s.alive(key) {
		return false, nil
	}
	s.keys[key] = s.expiry(ttl)
	return true, nil
}

// Set 写入 key（覆盖）
func (s *Store) Set(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.keys[key] = s.expiry(ttl)
	return nil
}

// Exists 检查 key 是否存在
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alive(key), nil
}

// Del 删除 key
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}

// CheckRateLimit 滑动窗口限流
func (s *Store) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()

	now := s.now()
	cutoff := now.Add(-window)
	w, ok := s.windows[key]
	if !ok {
		w = &rateWindow{}
		s.windows[key] = w
	}
	w.span = window

	hits := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			hits = append(hits, t)
		}
	}
	w.hits = append(hits, now)

	return len(w.hits) <= limit, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单
func (s *Store) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Set(ctx, blacklistPrefix+jti, ttl)
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.Exists(ctx, blacklistPrefix+jti)
}

// ── Pub/Sub ──

// Publish 向所有订阅者广播；订阅者缓冲区已满时丢弃该条消息
func (s *Store) Publish(_ context.Context, topic string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs[topic] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe 订阅频道，ctx 结束或调用取消函数后通道关闭
func (s *Store) Subscribe(ctx context.Context, topic string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 16)

	s.mu.Lock()
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[chan []byte]struct{})
	}
	s.subs[topic][ch] = struct{}{}
	s.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			s.mu.Lock()
			s.unsubscribe(topic, ch)
			s.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}

// Close 关闭所有订阅
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for topic, set := range s.subs {
		for ch := range set {
			s.unsubscribe(topic, ch)
		}
	}
	return nil
}

// unsubscribe 调用方需持有 s.mu
func (s *Store) unsubscribe(topic string, ch chan []byte) {
	set, ok := s.subs[topic]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(s.subs, topic)
	}
}
