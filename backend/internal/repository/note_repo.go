package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
)

// NoteRepository 笔记数据访问接口（所有查询按 owner_id 隔离）
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, ownerID, id string) error
}

type noteRepo struct {
	db *gorm.DB
}

// NewNoteRepo 创建 NoteRepository 实例
func NewNoteRepo(db *gorm.DB) NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND owner_id = ?", id, ownerID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByOwner 最新创建的排在最前
func (r *noteRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, note_id DESC").
		Find(&notes).Error
	return notes, err
}

func (r *noteRepo) Update(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("note_id = ? AND owner_id = ?", note.NoteID, note.OwnerID).
		Updates(map[string]interface{}{
			"subject":    note.Subject,
			"title":      note.Title,
			"body":       note.Body,
			"color":      note.Color,
			"updated_by": note.UpdatedBy,
		}).Error
}

func (r *noteRepo) Delete(ctx context.Context, ownerID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Note{}).
			Where("note_id = ? AND owner_id = ?", id, ownerID).
			Update("deleted_by", ownerID).Error; err != nil {
			return err
		}
		return tx.Where("note_id = ? AND owner_id = ?", id, ownerID).Delete(&model.Note{}).Error
	})
}
