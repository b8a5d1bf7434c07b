package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
	"github.com/Sergio-AB-dev/Freya-App/backend/internal/service"
	"github.com/Sergio-AB-dev/Freya-App/backend/pkg/response"
)

// SettingsHandler 偏好设置 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// GetSettings 获取当前设置
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	response.OK(c, h.settingsSvc.Get(userID))
}

// UpdateSettings 更新设置
// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	response.OK(c, h.settingsSvc.Update(userID, &req))
}
