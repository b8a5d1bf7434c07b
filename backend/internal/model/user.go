package model

import "gorm.io/gorm"

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"          json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"    json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email,where:deleted_at IS NULL" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"    json:"-"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}
