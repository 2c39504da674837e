package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"gorm.io/gorm"
)

type User struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessId string    `gorm:"size:64;index" json:"business_id"`
	Name       string    `gorm:"size:100" json:"name"`
	Email      string    `gorm:"size:100;uniqueIndex" json:"email"`
	Password   string    `gorm:"size:100" json:"-"`
	Role       string    `gorm:"size:20;default:user" json:"role"`
	IsActive   *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	BusinessId string `json:"business_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (input *NewUser) validate(ctx context.Context) error {
	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email address")
	}
	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&User{}).
		Where("email = ?", strings.ToLower(input.Email)).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.NewValidationError("email", "email already registered")
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = "user"
	}

	user := User{
		BusinessId: input.BusinessId,
		Name:       input.Name,
		Email:      strings.ToLower(input.Email),
		Password:   string(hashed),
		Role:       role,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and issues a signed token carrying the user's
// business scope. Wrong email and wrong password produce the same error.
func Login(ctx context.Context, input *LoginInput) (string, *User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(input.Email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, utils.NewValidationError("email", "invalid email or password")
	}
	if err != nil {
		return "", nil, err
	}
	if user.IsActive != nil && !*user.IsActive {
		return "", nil, utils.NewValidationError("email", "account is disabled")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return "", nil, utils.NewValidationError("email", "invalid email or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.BusinessId, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}
