package database

import (
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
// Role 为 seeker/employer/admin 三选一，创建后不再变化。
type User struct {
	gorm.Model
	Username     string        `gorm:"uniqueIndex;size:150"`
	Email        string        `gorm:"uniqueIndex;size:150"`
	PasswordHash string        `gorm:"size:255"`
	Role         string        `gorm:"size:32"`
	Jobs         []Job         `gorm:"foreignKey:PostedBy;constraint:OnDelete:CASCADE"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE"`
}

// Job 表示雇主发布的职位。
type Job struct {
	gorm.Model
	Title        string        `gorm:"size:100"`
	CompanyName  string        `gorm:"size:100"`
	Description  string        `gorm:"type:text"`
	Salary       string        `gorm:"size:50"`
	Location     string        `gorm:"size:100"`
	PostedBy     uint          `gorm:"index"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE"`
}

// Application 表示求职者对某个职位的一次申请。
// (UserID, JobID) 的唯一索引在存储层阻止重复申请，并发下也成立。
type Application struct {
	gorm.Model
	UserID         uint   `gorm:"uniqueIndex:idx_app_user_job"`
	JobID          uint   `gorm:"uniqueIndex:idx_app_user_job"`
	Phone          string `gorm:"size:20"`
	CoverLetter    string `gorm:"type:text"`
	ResumeKey      string `gorm:"size:255"`
	ResumeFilename string `gorm:"size:200"`
}
