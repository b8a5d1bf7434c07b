package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	pkgerrors "github.com/Sergio-AB-dev/Freya-App/backend/pkg/errors"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// ReminderHandler 提醒模块 HTTP 处理器
type ReminderHandler struct {
	reminderSvc service.ReminderService
}

// NewReminderHandler 创建 ReminderHandler
func NewReminderHandler(reminderSvc service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc}
}

// ListReminders 获取全部提醒
// GET /api/v1/reminders
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	reminders, err := h.reminderSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.ListResponse{List: reminders})
}

// StreamReminders 订阅提醒集合变更（SSE）
// GET /api/v1/reminders/stream
func (h *ReminderHandler) StreamReminders(c *gin.Context) {
	ctx := c.Request.Context()

	updates, unsubscribe, err := h.reminderSvc.Subscribe(ctx)
	if err != nil {
		response.InternalError(c)
		return
	}
	defer unsubscribe()

	reminders, err := h.reminderSvc.List(ctx)
	if err != nil {
		response.InternalError(c)
		return
	}

	streamSnapshots(c, service.TopicReminders, reminders, updates)
}

// CreateReminder 创建提醒
// POST /api/v1/reminders
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req dto.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reminder, err := h.reminderSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.Created(c, reminder)
}

// UpdateReminder 编辑提醒
// PUT /api/v1/reminders/:id
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	var req dto.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 13002, "提醒不存在")
	if !ok {
		return
	}

	reminder, err := h.reminderSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.OK(c, reminder)
}

// ToggleReminder 切换完成状态
// PATCH /api/v1/reminders/:id/toggle
func (h *ReminderHandler) ToggleReminder(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 13002, "提醒不存在")
	if !ok {
		return
	}

	reminder, err := h.reminderSvc.Toggle(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.OK(c, reminder)
}

// DeleteReminder 删除提醒
// DELETE /api/v1/reminders/:id
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 13002, "提醒不存在")
	if !ok {
		return
	}

	if err := h.reminderSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleReminderError 统一处理提醒模块业务错误
func (h *ReminderHandler) handleReminderError(c *gin.Context, err error) {
	var fieldsErr *service.FieldsRequiredError
	switch {
	case errors.As(err, &fieldsErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13001, "请填写必填字段", strings.Join(fieldsErr.Fields, ","))
	case errors.Is(err, service.ErrReminderNotFound):
		response.NotFound(c, 13002, "提醒不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
