package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
)

// ReminderRepository 提醒数据访问接口
type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	GetByID(ctx context.Context, id string) (*model.Reminder, error)
	List(ctx context.Context) ([]model.Reminder, error)
	ListDueOn(ctx context.Context, date string) ([]model.Reminder, error)
	Update(ctx context.Context, reminder *model.Reminder) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type reminderRepo struct {
	db *gorm.DB
}

// NewReminderRepo 创建 ReminderRepository 实例
func NewReminderRepo(db *gorm.DB) ReminderRepository {
	return &reminderRepo{db: db}
}

func (r *reminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	if reminder.Version == 0 {
		reminder.Version = 1
	}
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.WithContext(ctx).
		Where("reminder_id = ?", id).
		First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepo) List(ctx context.Context) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Order("date ASC, created_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// ListDueOn 查询指定日期且未完成的提醒
func (r *reminderRepo) ListDueOn(ctx context.Context, date string) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Where("date = ? AND completed = ?", date, false).
		Order("created_at ASC").
		Find(&reminders).Error
	return reminders, err
}

// Update 覆盖除主键外的全部业务字段（乐观锁）
func (r *reminderRepo) Update(ctx context.Context, reminder *model.Reminder) error {
	oldVersion := reminder.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Reminder{}).
		Where("reminder_id = ? AND version = ?", reminder.ReminderID, oldVersion).
		Updates(map[string]interface{}{
			"title":       reminder.Title,
			"description": reminder.Description,
			"date":        reminder.Date,
			"completed":   reminder.Completed,
			"updated_by":  reminder.UpdatedBy,
			"updated_at":  now,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reminder.Version = oldVersion + 1
	reminder.UpdatedAt = now
	return nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Reminder{}).
			Where("reminder_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("reminder_id = ?", id).Delete(&model.Reminder{}).Error
	})
}
