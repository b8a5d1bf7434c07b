package dto

// ── 提醒模块 DTO ──

// ReminderRequest 创建/编辑提醒请求
// 必填校验在 Service 层完成，以便一次性返回全部缺失字段
type ReminderRequest struct {
	Title       string `json:"title"       binding:"max=60"`
	Description string `json:"description" binding:"max=250"`
	Date        string `json:"date"        binding:"max=32"`
}

// ReminderResponse 提醒响应
type ReminderResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Completed   bool   `json:"completed"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ReminderDigest 当日到期提醒摘要（reminders:due 主题负载）
type ReminderDigest struct {
	Date      string             `json:"date"`
	Reminders []ReminderResponse `json:"reminders"`
}
