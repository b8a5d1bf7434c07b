package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportGrades 导出成绩
// GET /api/v1/export/grades
func (h *ExportHandler) ExportGrades(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportGrades(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportReminders 导出提醒为日历文件
// GET /api/v1/export/reminders.ics
func (h *ExportHandler) ExportReminders(c *gin.Context) {
	data, filename, err := h.exportSvc.ExportReminders(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, icsContentType, data)
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSubjects):
		response.NotFound(c, 16101, "暂无科目可导出")
	default:
		response.InternalError(c)
	}
}
