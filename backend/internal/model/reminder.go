package model

import "gorm.io/gorm"

// Reminder 提醒表 — 对应 reminders
type Reminder struct {
	ReminderID  string `gorm:"type:uuid;primaryKey"          json:"reminder_id"`
	Title       string `gorm:"type:varchar(60);not null"     json:"title"`
	Description string `gorm:"type:varchar(250);not null"    json:"description"`
	Date        string `gorm:"type:varchar(32);not null"     json:"date"` // YYYY-MM-DD
	Completed   bool   `gorm:"not null;default:false"        json:"completed"`
	VersionedModel
}

// TableName 指定表名
func (Reminder) TableName() string { return "reminders" }

// BeforeCreate 生成主键
func (r *Reminder) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.ReminderID)
	return nil
}
