package model

import "time"

type Admin struct {
	DTO
	Email    string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"size:32;not null" json:"role"`
}

type RegisterAdminInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=255"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

type PasswordResetToken struct {
	DTO
	AdminId   uint       `gorm:"not null;index" json:"adminId"`
	Token     string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt"`
	Admin     Admin      `gorm:"foreignKey:AdminId" json:"-"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"password" validate:"required,min=8"`
}
