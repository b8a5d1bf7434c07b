package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
)

// SubjectRepository 科目数据访问接口
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	List(ctx context.Context) ([]model.Subject, error)
	// UpdateGrades 以乐观锁方式整体替换成绩列表与均值
	UpdateGrades(ctx context.Context, subject *model.Subject) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	if subject.Grades == nil {
		subject.Grades = model.GradeList{}
	}
	if subject.Version == 0 {
		subject.Version = 1
	}
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.WithContext(ctx).
		Order("created_at ASC, subject_id ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) UpdateGrades(ctx context.Context, subject *model.Subject) error {
	oldVersion := subject.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("subject_id = ? AND version = ?", subject.SubjectID, oldVersion).
		Updates(map[string]interface{}{
			"grades":     subject.Grades,
			"average":    subject.Average,
			"updated_by": subject.UpdatedBy,
			"updated_at": now,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version = oldVersion + 1
	subject.UpdatedAt = now
	return nil
}

func (r *subjectRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Subject{}).
			Where("subject_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("subject_id = ?", id).Delete(&model.Subject{}).Error
	})
}
