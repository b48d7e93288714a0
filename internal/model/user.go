package model

import "time"

// User represents an account managed by the back office.
type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Name            string     `json:"name" gorm:"size:255;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Role            Role       `json:"role" gorm:"type:varchar(20);not null;default:'staff';index"`
	Photo           *string    `json:"photo" gorm:"size:255"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasPhoto reports whether the user currently references a stored photo.
func (u *User) HasPhoto() bool {
	return u.Photo != nil && *u.Photo != ""
}
