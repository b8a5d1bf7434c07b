package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/repository"
)

// ── 提醒模块业务错误 ──

var (
	ErrReminderNotFound = errors.New("提醒不存在")
)

// FieldsRequiredError 必填字段缺失，Fields 按 title、description、date 顺序列出
type FieldsRequiredError struct {
	Fields []string
}

func (e *FieldsRequiredError) Error() string {
	return "以下字段为必填项: " + strings.Join(e.Fields, ", ")
}

// ReminderService 提醒业务接口
type ReminderService interface {
	List(ctx context.Context) ([]dto.ReminderResponse, error)
	Create(ctx context.Context, req *dto.ReminderRequest, callerID string) (*dto.ReminderResponse, error)
	Update(ctx context.Context, id string, req *dto.ReminderRequest, callerID string) (*dto.ReminderResponse, error)
	Toggle(ctx context.Context, id string, callerID string) (*dto.ReminderResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// ListDueOn 指定日期未完成的提醒
	ListDueOn(ctx context.Context, date time.Time) ([]dto.ReminderResponse, error)
	// Subscribe 订阅提醒集合的全量快照
	Subscribe(ctx context.Context) (<-chan []byte, func(), error)
}

type reminderService struct {
	repo   *repository.Repository
	broker Broker
	logger *zap.Logger
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(repo *repository.Repository, broker Broker, logger *zap.Logger) ReminderService {
	return &reminderService{repo: repo, broker: broker, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *reminderService) List(ctx context.Context) ([]dto.ReminderResponse, error) {
	reminders, err := s.repo.Reminder.List(ctx)
	if err != nil {
		s.logger.Error("列出提醒失败", zap.Error(err))
		return nil, err
	}
	return s.toReminderResponses(reminders), nil
}

func (s *reminderService) ListDueOn(ctx context.Context, date time.Time) ([]dto.ReminderResponse, error) {
	reminders, err := s.repo.Reminder.ListDueOn(ctx, date.Format(dateLayout))
	if err != nil {
		s.logger.Error("查询到期提醒失败", zap.Error(err))
		return nil, err
	}
	return s.toReminderResponses(reminders), nil
}

// ────────────────────── Create ──────────────────────

func (s *reminderService) Create(ctx context.Context, req *dto.ReminderRequest, callerID string) (*dto.ReminderResponse, error) {
	title, description, date, err := validateReminder(req)
	if err != nil {
		return nil, err
	}

	reminder := &model.Reminder{
		Title:       title,
		Description: description,
		Date:        date,
		Completed:   false,
	}
	reminder.CreatedBy = &callerID
	reminder.UpdatedBy = &callerID

	if err := s.repo.Reminder.Create(ctx, reminder); err != nil {
		s.logger.Error("创建提醒失败", zap.Error(err))
		return nil, err
	}

	s.publishSnapshot(ctx)
	return s.toReminderResponse(reminder), nil
}

// ────────────────────── Update ──────────────────────

// Update 覆盖除标识与完成状态外的全部字段
func (s *reminderService) Update(ctx context.Context, id string, req *dto.ReminderRequest, callerID string) (*dto.ReminderResponse, error) {
	title, description, date, err := validateReminder(req)
	if err != nil {
		return nil, err
	}

	reminder, err := s.getReminder(ctx, id)
	if err != nil {
		return nil, err
	}

	reminder.Title = title
	reminder.Description = description
	reminder.Date = date
	reminder.UpdatedBy = &callerID

	if err := s.repo.Reminder.Update(ctx, reminder); err != nil {
		s.logger.Error("更新提醒失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.publishSnapshot(ctx)
	return s.toReminderResponse(reminder), nil
}

// ────────────────────── Toggle ──────────────────────

func (s *reminderService) Toggle(ctx context.Context, id string, callerID string) (*dto.ReminderResponse, error) {
	reminder, err := s.getReminder(ctx, id)
	if err != nil {
		return nil, err
	}

	reminder.Completed = !reminder.Completed
	reminder.UpdatedBy = &callerID

	if err := s.repo.Reminder.Update(ctx, reminder); err != nil {
		s.logger.Error("切换提醒状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.publishSnapshot(ctx)
	return s.toReminderResponse(reminder), nil
}

// ────────────────────── Delete ──────────────────────

func (s *reminderService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getReminder(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Reminder.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除提醒失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publishSnapshot(ctx)
	return nil
}

func (s *reminderService) Subscribe(ctx context.Context) (<-chan []byte, func(), error) {
	return s.broker.Subscribe(ctx, TopicReminders)
}

// ── 内部辅助方法 ──

const dateLayout = "2006-01-02"

// validateReminder 校验三个必填字段，返回规范化后的值
// 任一字段缺失时返回 *FieldsRequiredError，不触达存储
func validateReminder(req *dto.ReminderRequest) (string, string, string, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	date := normalizeReminderDate(req.Date)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if date == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return "", "", "", &FieldsRequiredError{Fields: missing}
	}
	return title, description, date, nil
}

// normalizeReminderDate 规范化日期输入
//   - 含时间部分（2024-06-01T08:00:00Z）时只保留日期
//   - 年份超过 4 个字符时按字符截断为前 4 个（2023456-06-01 → 2023-06-01）
func normalizeReminderDate(raw string) string {
	v := strings.TrimSpace(raw)
	if i := strings.IndexByte(v, 'T'); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return ""
	}

	parts := strings.SplitN(v, "-", 3)
	year := []rune(parts[0])
	if len(year) <= 4 {
		return v
	}
	parts[0] = string(year[:4])
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return strings.Join(parts, "-")
}

func (s *reminderService) getReminder(ctx context.Context, id string) (*model.Reminder, error) {
	reminder, err := s.repo.Reminder.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		s.logger.Error("查询提醒失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return reminder, nil
}

// publishSnapshot 推送提醒集合全量快照
func (s *reminderService) publishSnapshot(ctx context.Context) {
	list, err := s.List(ctx)
	if err != nil {
		return
	}
	publishJSON(ctx, s.broker, TopicReminders, list, s.logger)
}

func (s *reminderService) toReminderResponses(reminders []model.Reminder) []dto.ReminderResponse {
	result := make([]dto.ReminderResponse, 0, len(reminders))
	for i := range reminders {
		result = append(result, *s.toReminderResponse(&reminders[i]))
	}
	return result
}

func (s *reminderService) toReminderResponse(r *model.Reminder) *dto.ReminderResponse {
	return &dto.ReminderResponse{
		ID:          r.ReminderID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Completed:   r.Completed,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:   r.UpdatedAt.Format(dto.TimeLayout),
	}
}
