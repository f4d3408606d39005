package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	UserID    int            `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username  string         `gorm:"type:varchar(50);not null;unique" json:"username" valid:"required~Username is required"`
	Name      string         `gorm:"type:varchar(100)" json:"name"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-" valid:"required~Password is required"`
	Role      string         `gorm:"type:varchar(10);not null" json:"role" valid:"required~Role is required,in(admin|staff)~Invalid role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" valid:"required~Username is required"`
	Password string `json:"password" valid:"required~Password is required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}
