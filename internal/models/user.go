package models

import "time"

// User represents a locally registered account. Provider-issued identities
// never appear here; the API only sees their opaque subject.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"size:100" json:"full_name"`
	BusinessName string     `gorm:"size:100" json:"business_name,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}
