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

// ── 笔记模块业务错误 ──

var (
	ErrNoSession          = errors.New("未登录，无法访问笔记")
	ErrNoteFieldsRequired = errors.New("科目与标题不能为空")
	ErrNoteNotFound       = errors.New("笔记不存在")
	ErrNoteLocked         = errors.New("笔记处于只读状态，请先开启编辑")
	ErrInvalidNoteColor   = errors.New("不支持的笔记颜色")
)

// NoteService 笔记业务接口
// 所有操作以 ownerID 隔离；ownerID 为空时不返回数据且拒绝一切写操作
type NoteService interface {
	List(ctx context.Context, ownerID string) ([]dto.NoteResponse, error)
	Create(ctx context.Context, ownerID string, req *dto.NoteRequest) (*dto.NoteResponse, error)
	// Unlock 开启编辑，在 TTL 内允许 Update
	Unlock(ctx context.Context, ownerID, id string) (*dto.NoteUnlockResponse, error)
	Update(ctx context.Context, ownerID, id string, req *dto.NoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type noteService struct {
	repo    *repository.Repository
	kv      KVStore
	editTTL time.Duration
	logger  *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(repo *repository.Repository, kv KVStore, editTTL time.Duration, logger *zap.Logger) NoteService {
	if editTTL <= 0 {
		editTTL = 30 * time.Minute
	}
	return &noteService{repo: repo, kv: kv, editTTL: editTTL, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *noteService) List(ctx context.Context, ownerID string) ([]dto.NoteResponse, error) {
	if ownerID == "" {
		return []dto.NoteResponse{}, nil
	}

	notes, err := s.repo.Note.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("列出笔记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		result = append(result, *s.toNoteResponse(&notes[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *noteService) Create(ctx context.Context, ownerID string, req *dto.NoteRequest) (*dto.NoteResponse, error) {
	if ownerID == "" {
		return nil, ErrNoSession
	}
	subject, title, color, err := validateNote(req)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		OwnerID: ownerID,
		Subject: subject,
		Title:   title,
		Body:    req.Body,
		Color:   color,
	}
	note.CreatedBy = &ownerID
	note.UpdatedBy = &ownerID

	if err := s.repo.Note.Create(ctx, note); err != nil {
		s.logger.Error("创建笔记失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	return s.toNoteResponse(note), nil
}

// ────────────────────── Unlock ──────────────────────

func (s *noteService) Unlock(ctx context.Context, ownerID, id string) (*dto.NoteUnlockResponse, error) {
	if ownerID == "" {
		return nil, ErrNoSession
	}
	if _, err := s.getNote(ctx, ownerID, id); err != nil {
		return nil, err
	}

	if err := s.kv.Set(ctx, noteEditKey(ownerID, id), s.editTTL); err != nil {
		s.logger.Error("写入编辑授权失败", zap.String("note_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.NoteUnlockResponse{
		NoteID:    id,
		ExpiresAt: time.Now().Add(s.editTTL).Format(dto.TimeLayout),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *noteService) Update(ctx context.Context, ownerID, id string, req *dto.NoteRequest) (*dto.NoteResponse, error) {
	if ownerID == "" {
		return nil, ErrNoSession
	}
	subject, title, color, err := validateNote(req)
	if err != nil {
		return nil, err
	}

	note, err := s.getNote(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	key := noteEditKey(ownerID, id)
	unlocked, err := s.kv.Exists(ctx, key)
	if err != nil {
		s.logger.Error("查询编辑授权失败", zap.String("note_id", id), zap.Error(err))
		return nil, err
	}
	if !unlocked {
		return nil, ErrNoteLocked
	}

	note.Subject = subject
	note.Title = title
	note.Body = req.Body
	note.Color = color
	note.UpdatedBy = &ownerID

	if err := s.repo.Note.Update(ctx, note); err != nil {
		s.logger.Error("更新笔记失败", zap.String("note_id", id), zap.Error(err))
		return nil, err
	}

	// 保存后回到只读状态
	if err := s.kv.Del(ctx, key); err != nil {
		s.logger.Warn("释放编辑授权失败", zap.String("note_id", id), zap.Error(err))
	}

	return s.toNoteResponse(note), nil
}

// ────────────────────── Delete ──────────────────────

func (s *noteService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrNoSession
	}
	if _, err := s.getNote(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.Note.Delete(ctx, ownerID, id); err != nil {
		s.logger.Error("删除笔记失败", zap.String("note_id", id), zap.Error(err))
		return err
	}

	_ = s.kv.Del(ctx, noteEditKey(ownerID, id))
	return nil
}

// ── 内部辅助方法 ──

func noteEditKey(ownerID, id string) string {
	return "note:edit:" + ownerID + ":" + id
}

// validateNote 校验必填项并补齐默认颜色
func validateNote(req *dto.NoteRequest) (string, string, string, error) {
	subject := strings.TrimSpace(req.Subject)
	title := strings.TrimSpace(req.Title)
	if subject == "" || title == "" {
		return "", "", "", ErrNoteFieldsRequired
	}

	color := strings.ToLower(strings.TrimSpace(req.Color))
	if color == "" {
		color = model.NoteColorBlue
	}
	if !model.IsNoteColor(color) {
		return "", "", "", ErrInvalidNoteColor
	}
	return subject, title, color, nil
}

func (s *noteService) getNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	note, err := s.repo.Note.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		s.logger.Error("查询笔记失败", zap.String("note_id", id), zap.Error(err))
		return nil, err
	}
	return note, nil
}

func (s *noteService) toNoteResponse(n *model.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		ID:        n.NoteID,
		Subject:   n.Subject,
		Title:     n.Title,
		Body:      n.Body,
		Color:     n.Color,
		CreatedAt: n.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt: n.UpdatedAt.Format(dto.TimeLayout),
	}
}
