package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/Sergio-AB-dev/Freya-App/backend/config"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
)

const digestTimeout = 30 * time.Second

// DueLister 查询指定日期未完成的提醒
type DueLister interface {
	ListDueOn(ctx context.Context, date time.Time) ([]dto.ReminderResponse, error)
}

// Publisher 发布摘要
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Scheduler 定时任务调度器
type Scheduler struct {
	scheduler *gocron.Scheduler
	reminders DueLister
	publisher Publisher
	loc       *time.Location
	cronExpr  string
	logger    *zap.Logger
}

// New 创建调度器
// 时区无效时回退到 UTC
func New(cfg *config.SchedulerConfig, reminders DueLister, publisher Publisher, logger *zap.Logger) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("定时任务时区无效，使用 UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		reminders: reminders,
		publisher: publisher,
		loc:       loc,
		cronExpr:  cfg.ReminderDigestCron,
		logger:    logger,
	}
}

// Start 注册任务并异步启动
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.cronExpr).Do(s.runDigest); err != nil {
		return fmt.Errorf("注册提醒摘要任务失败: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("定时任务已启动", zap.String("reminder_digest_cron", s.cronExpr))
	return nil
}

// Stop 停止所有任务
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	if _, err := s.PublishDueReminders(ctx, time.Now().In(s.loc)); err != nil {
		s.logger.Error("提醒摘要任务失败", zap.Error(err))
	}
}

// ────── 到期提醒摘要 ──────

// PublishDueReminders 发布指定日期未完成的提醒，返回条数
// 没有到期提醒时不发布
func (s *Scheduler) PublishDueReminders(ctx context.Context, day time.Time) (int, error) {
	due, err := s.reminders.ListDueOn(ctx, day)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(dto.ReminderDigest{
		Date:      day.Format("2006-01-02"),
		Reminders: due,
	})
	if err != nil {
		return 0, err
	}
	if err := s.publisher.Publish(ctx, service.TopicRemindersDue, payload); err != nil {
		return 0, fmt.Errorf("发布提醒摘要失败: %w", err)
	}

	s.logger.Info("已发布到期提醒摘要", zap.Int("count", len(due)))
	return len(due), nil
}
