package service

import (
	"sync"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/dto"
)

// 设置项默认值
const (
	DefaultTheme     = "light"
	DefaultLanguage  = "es"
	DefaultStudyMode = "normal"
)

// SettingsService 用户偏好设置
// 只保存在进程内存中，重启后恢复默认值，不影响其他功能
type SettingsService interface {
	Get(userID string) dto.SettingsResponse
	Update(userID string, req *dto.SettingsRequest) dto.SettingsResponse
}

type settingsService struct {
	mu    sync.RWMutex
	prefs map[string]dto.SettingsResponse
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService() SettingsService {
	return &settingsService{prefs: make(map[string]dto.SettingsResponse)}
}

func defaultSettings() dto.SettingsResponse {
	return dto.SettingsResponse{
		Theme:         DefaultTheme,
		Language:      DefaultLanguage,
		Notifications: true,
		StudyMode:     DefaultStudyMode,
	}
}

func (s *settingsService) Get(userID string) dto.SettingsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[userID]; ok {
		return p
	}
	return defaultSettings()
}

// Update 仅覆盖请求中出现的字段，取值范围由 binding 校验
func (s *settingsService) Update(userID string, req *dto.SettingsRequest) dto.SettingsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prefs[userID]
	if !ok {
		p = defaultSettings()
	}
	if req.Theme != nil {
		p.Theme = *req.Theme
	}
	if req.Language != nil {
		p.Language = *req.Language
	}
	if req.Notifications != nil {
		p.Notifications = *req.Notifications
	}
	if req.StudyMode != nil {
		p.StudyMode = *req.StudyMode
	}
	s.prefs[userID] = p
	return p
}
