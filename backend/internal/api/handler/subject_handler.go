package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// SubjectHandler 科目与成绩 HTTP 处理器
type SubjectHandler struct {
	subjectSvc service.SubjectService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc}
}

// ListSubjects 获取全部科目
// GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjectSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.ListResponse{List: subjects})
}

// StreamSubjects 订阅科目集合变更（SSE）
// GET /api/v1/subjects/stream
func (h *SubjectHandler) StreamSubjects(c *gin.Context) {
	ctx := c.Request.Context()

	// 先订阅再读取，避免丢失两者之间的变更
	updates, unsubscribe, err := h.subjectSvc.Subscribe(ctx)
	if err != nil {
		response.InternalError(c)
		return
	}
	defer unsubscribe()

	subjects, err := h.subjectSvc.List(ctx)
	if err != nil {
		response.InternalError(c)
		return
	}

	streamSnapshots(c, service.TopicSubjects, subjects, updates)
}

// GetSubject 获取科目详情
// GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *gin.Context) {
	id, ok := PathID(c, "id", 12003, "科目不存在")
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// CreateSubject 创建科目
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// DeleteSubject 删除科目
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 12003, "科目不存在")
	if !ok {
		return
	}

	if err := h.subjectSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddGrade 新增成绩
// POST /api/v1/subjects/:id/grades
func (h *SubjectHandler) AddGrade(c *gin.Context) {
	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 12003, "科目不存在")
	if !ok {
		return
	}

	subject, err := h.subjectSvc.AddGrade(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// UpdateGrade 修改成绩
// PUT /api/v1/subjects/:id/grades/:gradeId
func (h *SubjectHandler) UpdateGrade(c *gin.Context) {
	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 12003, "科目不存在")
	if !ok {
		return
	}

	gradeID, ok := PathID(c, "gradeId", 12004, "成绩不存在")
	if !ok {
		return
	}

	subject, err := h.subjectSvc.UpdateGrade(c.Request.Context(), id, gradeID, &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// DeleteGrade 删除成绩
// DELETE /api/v1/subjects/:id/grades/:gradeId
func (h *SubjectHandler) DeleteGrade(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 12003, "科目不存在")
	if !ok {
		return
	}

	gradeID, ok := PathID(c, "gradeId", 12004, "成绩不存在")
	if !ok {
		return
	}

	subject, err := h.subjectSvc.DeleteGrade(c.Request.Context(), id, gradeID, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// handleSubjectError 统一处理成绩模块业务错误
func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNameRequired):
		response.BadRequest(c, 12001, "科目名称不能为空")
	case errors.Is(err, service.ErrGradeFieldsRequired):
		response.BadRequest(c, 12002, "成绩类型与分值不能为空")
	case errors.Is(err, service.ErrGradeValueRange):
		response.BadRequest(c, 12005, "成绩分值需在 0 到 5 之间")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 12003, "科目不存在")
	case errors.Is(err, service.ErrGradeNotFound):
		response.NotFound(c, 12004, "成绩不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
