package dto

// ── 设置模块 DTO ──

// SettingsRequest 更新设置请求（字段可选，仅更新传入项）
type SettingsRequest struct {
	Theme         *string `json:"theme"         binding:"omitempty,oneof=light dark"`
	Language      *string `json:"language"      binding:"omitempty,oneof=es en"`
	Notifications *bool   `json:"notifications"`
	StudyMode     *string `json:"study_mode"    binding:"omitempty,oneof=normal focus rest"`
}

// SettingsResponse 当前设置
type SettingsResponse struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
	StudyMode     string `json:"study_mode"`
}
