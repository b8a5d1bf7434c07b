package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Grade 成绩条目（内嵌于 Subject.grades）
// GradeID 在创建时生成，编辑与删除均按 GradeID 定位
type Grade struct {
	GradeID string  `json:"grade_id"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
}

// GradeList 对应 JSONB 列，实现 GORM Scanner/Valuer 接口
type GradeList []Grade

// Scan 将数据库中的 JSON 文本解析为 []Grade
func (g *GradeList) Scan(src interface{}) error {
	if src == nil {
		*g = GradeList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("GradeList.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*g = GradeList{}
		return nil
	}
	var list GradeList
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("GradeList.Scan: %w", err)
	}
	if list == nil {
		list = GradeList{}
	}
	*g = list
	return nil
}

// Value 将 []Grade 序列化为 JSON 文本；nil 写为 []
func (g GradeList) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Subject 科目表 — 对应 subjects
// Average 始终由 Grades 推导，不单独写入
type Subject struct {
	SubjectID string    `gorm:"type:uuid;primaryKey"           json:"subject_id"`
	Name      string    `gorm:"type:varchar(100);not null"     json:"name"`
	Grades    GradeList `gorm:"type:jsonb;not null"            json:"grades"`
	Average   float64   `gorm:"not null;default:0"             json:"average"`
	VersionedModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// BeforeCreate 生成主键
func (s *Subject) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.SubjectID)
	return nil
}
