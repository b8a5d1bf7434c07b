package dto

// ── 笔记模块 DTO ──

// NoteRequest 创建/编辑笔记请求
type NoteRequest struct {
	Subject string `json:"subject" binding:"max=100"`
	Title   string `json:"title"   binding:"max=200"`
	Body    string `json:"body"`
	Color   string `json:"color"`
}

// NoteResponse 笔记响应
type NoteResponse struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// NoteUnlockResponse 开启编辑响应
type NoteUnlockResponse struct {
	NoteID    string `json:"note_id"`
	ExpiresAt string `json:"expires_at"`
}
