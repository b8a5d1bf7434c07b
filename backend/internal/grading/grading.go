// Package grading 成绩均值与成绩列表变更的纯函数。
//
// 所有函数均不修改入参，返回新的切片。
package grading

import (
	"math"

	"github.com/google/uuid"

	"github.com/Sergio-AB-dev/Freya-App/backend/internal/model"
)

// 成绩分值范围（0–5 分制）
const (
	MinValue = 0.0
	MaxValue = 5.0
)

// ValidValue 分值为有限数且位于 [MinValue, MaxValue]
func ValidValue(v float64) bool {
	return !math.IsNaN(v) && v >= MinValue && v <= MaxValue
}

// Average 计算成绩均值，保留两位小数；空列表返回 0
// 非有限值（NaN）原样传播
func Average(grades []model.Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Value
	}
	return Round2(sum / float64(len(grades)))
}

// Round2 四舍五入到两位小数（远离零）
// v*100 会溢出时原样返回
func Round2(v float64) float64 {
	if math.IsInf(v, 0) || math.Abs(v) > math.MaxFloat64/100 {
		return v
	}
	return math.Round(v*100) / 100
}

// Append 追加一条成绩并分配 GradeID
func Append(grades []model.Grade, label string, value float64) ([]model.Grade, model.Grade) {
	g := model.Grade{GradeID: uuid.NewString(), Label: label, Value: value}
	out := make([]model.Grade, 0, len(grades)+1)
	out = append(out, grades...)
	out = append(out, g)
	return out, g
}

// IndexOf 返回 GradeID 所在位置，不存在时返回 -1
func IndexOf(grades []model.Grade, gradeID string) int {
	for i, g := range grades {
		if g.GradeID == gradeID {
			return i
		}
	}
	return -1
}

// Replace 替换指定 GradeID 的成绩，GradeID 保持不变
func Replace(grades []model.Grade, gradeID, label string, value float64) ([]model.Grade, bool) {
	i := IndexOf(grades, gradeID)
	if i < 0 {
		return grades, false
	}
	out := make([]model.Grade, len(grades))
	copy(out, grades)
	out[i] = model.Grade{GradeID: gradeID, Label: label, Value: value}
	return out, true
}

// Remove 删除指定 GradeID 的成绩
func Remove(grades []model.Grade, gradeID string) ([]model.Grade, bool) {
	i := IndexOf(grades, gradeID)
	if i < 0 {
		return grades, false
	}
	out := make([]model.Grade, 0, len(grades)-1)
	out = append(out, grades[:i]...)
	out = append(out, grades[i+1:]...)
	return out, true
}

// EnsureIDs 为缺少 GradeID 的历史条目补齐标识
func EnsureIDs(grades []model.Grade) ([]model.Grade, bool) {
	changed := false
	out := make([]model.Grade, len(grades))
	for i, g := range grades {
		if g.GradeID == "" {
			g.GradeID = uuid.NewString()
			changed = true
		}
		out[i] = g
	}
	return out, changed
}
