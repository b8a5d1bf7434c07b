package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/grading"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/repository"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
)

// ── 成绩模块业务错误 ──

var (
	ErrSubjectNameRequired = errors.New("科目名称不能为空")
	ErrSubjectNotFound     = errors.New("科目不存在")
	ErrGradeFieldsRequired = errors.New("成绩类型与分值不能为空")
	ErrGradeNotFound       = errors.New("成绩不存在")
	ErrGradeValueRange     = errors.New("成绩分值需在 0 到 5 之间")
)

// gradeWriteAttempts 乐观锁冲突时的最大尝试次数
const gradeWriteAttempts = 3

// SubjectService 科目与成绩业务接口
type SubjectService interface {
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, id string) (*dto.SubjectResponse, error)
	Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	AddGrade(ctx context.Context, subjectID string, req *dto.GradeRequest, callerID string) (*dto.SubjectResponse, error)
	UpdateGrade(ctx context.Context, subjectID, gradeID string, req *dto.GradeRequest, callerID string) (*dto.SubjectResponse, error)
	DeleteGrade(ctx context.Context, subjectID, gradeID string, callerID string) (*dto.SubjectResponse, error)
	// Subscribe 订阅科目集合的全量快照
	Subscribe(ctx context.Context) (<-chan []byte, func(), error)
}

type subjectService struct {
	repo   *repository.Repository
	broker Broker
	logger *zap.Logger
}

// NewSubjectService 创建 SubjectService 实例
func NewSubjectService(repo *repository.Repository, broker Broker, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, broker: broker, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx)
	if err != nil {
		s.logger.Error("列出科目失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, *s.toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

func (s *subjectService) Get(ctx context.Context, id string) (*dto.SubjectResponse, error) {
	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toSubjectResponse(subject), nil
}

// ────────────────────── Create / Delete ──────────────────────

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrSubjectNameRequired
	}

	subject := &model.Subject{
		Name:    name,
		Grades:  model.GradeList{},
		Average: 0,
	}
	subject.CreatedBy = &callerID
	subject.UpdatedBy = &callerID

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("创建科目失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("科目已创建", zap.String("subject_id", subject.SubjectID), zap.String("name", name))
	s.publishSnapshot(ctx)
	return s.toSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getSubject(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Subject.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除科目失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.publishSnapshot(ctx)
	return nil
}

// ────────────────────── 成绩条目 ──────────────────────

func (s *subjectService) AddGrade(ctx context.Context, subjectID string, req *dto.GradeRequest, callerID string) (*dto.SubjectResponse, error) {
	label, value, err := validateGrade(req)
	if err != nil {
		return nil, err
	}

	return s.mutateGrades(ctx, subjectID, callerID, func(grades []model.Grade) ([]model.Grade, error) {
		next, _ := grading.Append(grades, label, value)
		return next, nil
	})
}

func (s *subjectService) UpdateGrade(ctx context.Context, subjectID, gradeID string, req *dto.GradeRequest, callerID string) (*dto.SubjectResponse, error) {
	label, value, err := validateGrade(req)
	if err != nil {
		return nil, err
	}

	return s.mutateGrades(ctx, subjectID, callerID, func(grades []model.Grade) ([]model.Grade, error) {
		next, ok := grading.Replace(grades, gradeID, label, value)
		if !ok {
			return nil, ErrGradeNotFound
		}
		return next, nil
	})
}

func (s *subjectService) DeleteGrade(ctx context.Context, subjectID, gradeID string, callerID string) (*dto.SubjectResponse, error) {
	return s.mutateGrades(ctx, subjectID, callerID, func(grades []model.Grade) ([]model.Grade, error) {
		next, ok := grading.Remove(grades, gradeID)
		if !ok {
			return nil, ErrGradeNotFound
		}
		return next, nil
	})
}

func (s *subjectService) Subscribe(ctx context.Context) (<-chan []byte, func(), error) {
	return s.broker.Subscribe(ctx, TopicSubjects)
}

// ── 内部辅助方法 ──

// mutateGrades 读取最新成绩列表，应用 fn 后以乐观锁写回并重算均值
// 版本冲突时基于新数据重试，成绩按 GradeID 定位，重试不会错位
func (s *subjectService) mutateGrades(
	ctx context.Context,
	subjectID, callerID string,
	fn func([]model.Grade) ([]model.Grade, error),
) (*dto.SubjectResponse, error) {
	for attempt := 1; ; attempt++ {
		subject, err := s.getSubject(ctx, subjectID)
		if err != nil {
			return nil, err
		}

		current, _ := grading.EnsureIDs(subject.Grades)
		next, err := fn(current)
		if err != nil {
			return nil, err
		}

		subject.Grades = model.GradeList(next)
		subject.Average = grading.Average(next)
		subject.UpdatedBy = &callerID

		err = s.repo.Subject.UpdateGrades(ctx, subject)
		if err == nil {
			s.publishSnapshot(ctx)
			return s.toSubjectResponse(subject), nil
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) && attempt < gradeWriteAttempts {
			s.logger.Debug("成绩写入版本冲突，重试",
				zap.String("subject_id", subjectID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新成绩失败", zap.String("subject_id", subjectID), zap.Error(err))
		}
		return nil, err
	}
}

func (s *subjectService) getSubject(ctx context.Context, id string) (*model.Subject, error) {
	subject, err := s.repo.Subject.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询科目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return subject, nil
}

// publishSnapshot 推送科目集合全量快照
func (s *subjectService) publishSnapshot(ctx context.Context) {
	list, err := s.List(ctx)
	if err != nil {
		return
	}
	publishJSON(ctx, s.broker, TopicSubjects, list, s.logger)
}

func validateGrade(req *dto.GradeRequest) (string, float64, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" || req.Value == nil {
		return "", 0, ErrGradeFieldsRequired
	}
	if !grading.ValidValue(*req.Value) {
		return "", 0, ErrGradeValueRange
	}
	return label, *req.Value, nil
}

func (s *subjectService) toSubjectResponse(subject *model.Subject) *dto.SubjectResponse {
	grades := make([]dto.GradeResponse, 0, len(subject.Grades))
	for _, g := range subject.Grades {
		grades = append(grades, dto.GradeResponse{
			ID:    g.GradeID,
			Label: g.Label,
			Value: g.Value,
		})
	}

	return &dto.SubjectResponse{
		ID:        subject.SubjectID,
		Name:      subject.Name,
		Grades:    grades,
		Average:   subject.Average,
		Version:   subject.Version,
		CreatedAt: subject.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt: subject.UpdatedAt.Format(dto.TimeLayout),
	}
}
