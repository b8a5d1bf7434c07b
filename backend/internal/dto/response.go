package dto

// ── 通用响应 ──

// ListResponse 列表响应（全量返回，不分页）
type ListResponse struct {
	List interface{} `json:"list"`
}

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02T15:04:05Z07:00"
