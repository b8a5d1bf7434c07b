package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Sergio-AB-dev/Freya-App/backend/config"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/memstore"
)

type mockDueLister struct {
	due     []dto.ReminderResponse
	err     error
	gotDate time.Time
}

func (m *mockDueLister) ListDueOn(_ context.Context, date time.Time) ([]dto.ReminderResponse, error) {
	m.gotDate = date
	return m.due, m.err
}

func newTestScheduler(lister DueLister, store *memstore.Store) *Scheduler {
	return New(&config.SchedulerConfig{ReminderDigestCron: "0 * * * *", Timezone: "UTC"}, lister, store, zap.NewNop())
}

func TestPublishDueReminders(t *testing.T) {
	store := memstore.New()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsubscribe, err := store.Subscribe(ctx, service.TopicRemindersDue)
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}
	defer unsubscribe()

	lister := &mockDueLister{due: []dto.ReminderResponse{{ID: "r1", Title: "Examen", Date: "2026-10-18"}}}
	s := newTestScheduler(lister, store)

	day := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	n, err := s.PublishDueReminders(ctx, day)
	if err != nil {
		t.Fatalf("PublishDueReminders 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("期望 1 条，实际 %d", n)
	}
	if !lister.gotDate.Equal(day) {
		t.Errorf("查询日期不一致: %v", lister.gotDate)
	}

	select {
	case payload := <-ch:
		var digest dto.ReminderDigest
		if err := json.Unmarshal(payload, &digest); err != nil {
			t.Fatalf("解析摘要失败: %v", err)
		}
		if digest.Date != "2026-10-18" || len(digest.Reminders) != 1 || digest.Reminders[0].ID != "r1" {
			t.Errorf("摘要内容不符: %+v", digest)
		}
	case <-time.After(time.Second):
		t.Fatal("未收到摘要")
	}
}

func TestPublishDueReminders_NothingDue(t *testing.T) {
	store := memstore.New()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsubscribe, _ := store.Subscribe(ctx, service.TopicRemindersDue)
	defer unsubscribe()

	s := newTestScheduler(&mockDueLister{}, store)
	n, err := s.PublishDueReminders(ctx, time.Now())
	if err != nil || n != 0 {
		t.Fatalf("期望 0 条且无错误，实际 %d / %v", n, err)
	}

	select {
	case <-ch:
		t.Error("没有到期提醒时不应发布")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDueReminders_ListError(t *testing.T) {
	store := memstore.New()
	defer store.Close()

	s := newTestScheduler(&mockDueLister{err: errors.New("db down")}, store)
	if _, err := s.PublishDueReminders(context.Background(), time.Now()); err == nil {
		t.Error("查询失败时应返回错误")
	}
}

func TestStartRejectsInvalidCron(t *testing.T) {
	store := memstore.New()
	defer store.Close()

	s := New(&config.SchedulerConfig{ReminderDigestCron: "not a cron", Timezone: "Nowhere/Invalid"}, &mockDueLister{}, store, zap.NewNop())
	if s.loc != time.UTC {
		t.Errorf("无效时区应回退 UTC，实际 %v", s.loc)
	}
	if err := s.Start(); err == nil {
		s.Stop()
		t.Error("非法 cron 表达式应返回错误")
	}
}
