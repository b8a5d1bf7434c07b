package dto

// ── 成绩模块 DTO ──

// CreateSubjectRequest 创建科目请求
// name 仅做非空校验（去除首尾空白后），在 Service 层完成
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"max=100"`
}

// GradeRequest 新增/修改成绩请求
// Value 使用指针以区分 0 分与缺失，范围与原表单一致（0–5）
type GradeRequest struct {
	Label string   `json:"label" binding:"max=100"`
	Value *float64 `json:"value" binding:"omitempty,min=0,max=5"`
}

// GradeResponse 成绩条目
type GradeResponse struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SubjectResponse 科目响应
type SubjectResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Grades    []GradeResponse `json:"grades"`
	Average   float64         `json:"average"`
	Version   int             `json:"version"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}
