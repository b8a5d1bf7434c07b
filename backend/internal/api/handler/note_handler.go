package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// NoteHandler 笔记模块 HTTP 处理器
// 笔记归属取自 JWT 中的 user_id
type NoteHandler struct {
	noteSvc service.NoteService
}

// NewNoteHandler 创建 NoteHandler
func NewNoteHandler(noteSvc service.NoteService) *NoteHandler {
	return &NoteHandler{noteSvc: noteSvc}
}

// ListNotes 获取当前用户的笔记（最新在前）
// GET /api/v1/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notes, err := h.noteSvc.List(c.Request.Context(), ownerID)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, dto.ListResponse{List: notes})
}

// CreateNote 创建笔记
// POST /api/v1/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	note, err := h.noteSvc.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.Created(c, note)
}

// UnlockNote 开启编辑
// POST /api/v1/notes/:id/unlock
func (h *NoteHandler) UnlockNote(c *gin.Context) {
	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 14003, "笔记不存在")
	if !ok {
		return
	}

	result, err := h.noteSvc.Unlock(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateNote 编辑笔记（需先开启编辑）
// PUT /api/v1/notes/:id
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 14003, "笔记不存在")
	if !ok {
		return
	}

	note, err := h.noteSvc.Update(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, note)
}

// DeleteNote 删除笔记
// DELETE /api/v1/notes/:id
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	ownerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id, ok := PathID(c, "id", 14003, "笔记不存在")
	if !ok {
		return
	}

	if err := h.noteSvc.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleNoteError 统一处理笔记模块业务错误
func (h *NoteHandler) handleNoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		response.Unauthorized(c, 10002, "未认证")
	case errors.Is(err, service.ErrNoteFieldsRequired):
		response.BadRequest(c, 14001, "科目与标题不能为空")
	case errors.Is(err, service.ErrInvalidNoteColor):
		response.BadRequest(c, 14002, "不支持的笔记颜色")
	case errors.Is(err, service.ErrNoteNotFound):
		response.NotFound(c, 14003, "笔记不存在")
	case errors.Is(err, service.ErrNoteLocked):
		response.Locked(c, 14004, "笔记处于只读状态，请先开启编辑")
	default:
		response.InternalError(c)
	}
}
