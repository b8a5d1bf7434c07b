package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestStore_SetNX(t *testing.T) {
	s := New()
	ctx := context.Background()

	ok, _ := s.SetNX(ctx, "k", time.Minute)
	if !ok {
		t.Fatal("首次 SetNX 应成功")
	}
	ok, _ = s.SetNX(ctx, "k", time.Minute)
	if ok {
		t.Error("重复 SetNX 应失败")
	}
}

func TestStore_Expiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_ = s.Set(ctx, "k", time.Second)
	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Fatal("key 应存在")
	}

	s.now = func() time.Time { return base.Add(2 * time.Second) }
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("key 过期后不应存在")
	}
	if ok, _ := s.SetNX(ctx, "k", time.Second); !ok {
		t.Error("过期后 SetNX 应成功")
	}
}

func TestStore_Del(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Set(ctx, "k", 0)
	_ = s.Del(ctx, "k")
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("删除后 key 不应存在")
	}
}

func TestStore_Blacklist(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.BlacklistToken(ctx, "jti-1", time.Minute)
	if ok, _ := s.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("jti-1 应在黑名单中")
	}
	_ = s.BlacklistToken(ctx, "jti-2", 0)
	if ok, _ := s.IsBlacklisted(ctx, "jti-2"); ok {
		t.Error("TTL<=0 不应加入黑名单")
	}
}

func TestStore_CheckRateLimit(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if ok, _ := s.CheckRateLimit(ctx, "ip", 3, time.Minute); !ok {
			t.Fatalf("第 %d 次请求应放行", i+1)
		}
	}
	if ok, _ := s.CheckRateLimit(ctx, "ip", 3, time.Minute); ok {
		t.Error("超过限额应拒绝")
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if ok, _ := s.CheckRateLimit(ctx, "ip", 3, time.Minute); !ok {
		t.Error("窗口滑过后应放行")
	}
}

func TestStore_PubSub(t *testing.T) {
	s := New()
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	ch, cancel, err := s.Subscribe(ctx, "subjects")
	if err != nil {
		t.Fatalf("Subscribe 失败: %v", err)
	}
	defer cancel()

	_ = s.Publish(ctx, "subjects", []byte(`[1]`))
	_ = s.Publish(ctx, "reminders", []byte(`[2]`))

	select {
	case msg := <-ch:
		if string(msg) != "[1]" {
			t.Errorf("期望消息 [1]，实际=%s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("未收到消息")
	}

	select {
	case msg := <-ch:
		t.Errorf("不应收到其他频道的消息: %s", msg)
	default:
	}
}

func TestStore_SubscribeClosedOnContextDone(t *testing.T) {
	s := New()
	ctx, cancelCtx := context.WithCancel(context.Background())

	ch, _, _ := s.Subscribe(ctx, "subjects")
	cancelCtx()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("ctx 结束后通道应关闭")
		}
	case <-time.After(time.Second):
		t.Fatal("通道未关闭")
	}
}

func TestStore_CloseThenCancel(t *testing.T) {
	s := New()
	_, cancel, _ := s.Subscribe(context.Background(), "subjects")

	_ = s.Close()
	cancel() // 不应 panic
}

func TestStore_SweepReclaimsExpiredEntries(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i := 0; i < 1000; i++ {
		_, _ = s.SetNX(ctx, fmt.Sprintf("idempotency:%d", i), time.Millisecond)
		_, _ = s.CheckRateLimit(ctx, fmt.Sprintf("rate_limit:10.0.0.%d", i), 10, time.Second)
	}
	_ = s.Set(ctx, "note:edit:keep", time.Hour)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if ok, _ := s.SetNX(ctx, "fresh", time.Minute); !ok {
		t.Fatal("新 key 写入应成功")
	}

	s.mu.Lock()
	keys, windows := len(s.keys), len(s.windows)
	s.mu.Unlock()

	if keys != 2 {
		t.Errorf("过期 key 应被清理，期望剩余 2 个，实际 %d", keys)
	}
	if windows != 0 {
		t.Errorf("空闲限流窗口应被清理，实际 %d", windows)
	}
	if ok, _ := s.Exists(ctx, "note:edit:keep"); !ok {
		t.Error("未过期 key 不应被清理")
	}
}

func TestStore_SweepKeepsActiveRateWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	_, _ = s.CheckRateLimit(ctx, "rate_limit:login", 1, 10*time.Minute)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_ = s.Set(ctx, "trigger", time.Minute)

	if allowed, _ := s.CheckRateLimit(ctx, "rate_limit:login", 1, 10*time.Minute); allowed {
		t.Error("窗口内的计数不应被清理")
	}
}
