package models

import (
	"time"
)

// User 用户表, 求职者和招聘方共用
type User struct {
	UserID     string    `gorm:"type:char(36);primaryKey" json:"user_id"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_unique" json:"email"`
	Password   string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt哈希
	Name       string    `gorm:"type:varchar(255)" json:"name,omitempty"`
	Skills     string    `gorm:"type:text" json:"skills,omitempty"`
	Experience string    `gorm:"type:text" json:"experience,omitempty"`
	Education  string    `gorm:"type:text" json:"education,omitempty"`
	CreatedAt  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Job 岗位表
type Job struct {
	JobID        string    `gorm:"type:char(36);primaryKey" json:"job_id"`
	UserID       string    `gorm:"type:char(36);index:idx_jobs_user_id" json:"user_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Company      string    `gorm:"type:varchar(255)" json:"company,omitempty"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Requirements string    `gorm:"type:text" json:"requirements,omitempty"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Application 投递记录表, Score为公平流水线的匹配分
type Application struct {
	ApplicationID string    `gorm:"type:char(36);primaryKey" json:"application_id"`
	JobID         string    `gorm:"type:char(36);not null;index:idx_applications_job_id;uniqueIndex:idx_applications_job_user_unique" json:"job_id"`
	UserID        string    `gorm:"type:char(36);not null;index:idx_applications_user_id;uniqueIndex:idx_applications_job_user_unique" json:"user_id"`
	CandidateID   string    `gorm:"type:varchar(64);index:idx_applications_candidate_id" json:"candidate_id,omitempty"` // 匿名候选标识
	Score         float64   `gorm:"type:double" json:"score"`
	ResumeObject  string    `gorm:"type:varchar(1024)" json:"resume_object,omitempty"` // 原始简历在对象存储中的key
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"created_at"`
	UpdatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updated_at"`

	Job  *Job  `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Application) TableName() string {
	return "applications"
}
