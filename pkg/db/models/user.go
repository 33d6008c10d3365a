package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. The phone number is the
// primary login key; email is a unique contact attribute.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Phone        string     `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsAdmin      bool       `gorm:"column:is_admin;not null;default:false"`
	ReferralCode *string    `gorm:"column:referral_code;type:char(8);uniqueIndex"`
	ReferredBy   *uuid.UUID `gorm:"column:referred_by;type:uuid;index"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
