package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Account represents a login identity. It carries credentials and, for
// patients and doctors, a back-link to the clinical entity the account
// owns. Admin accounts are never linked.
type Account struct {
	BaseModel
	Username       string     `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"` // Never send password hash in JSON
	Role           Role       `gorm:"size:20;not null" json:"role"`
	LinkedEntityID *string    `gorm:"uniqueIndex;size:64" json:"linkedEntityId,omitempty"`
	IsActive       bool       `gorm:"default:true" json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:AccountID" json:"-"`
}

// AccountSanitized represents the account data that is safe to send in API responses.
type AccountSanitized struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Role           Role       `json:"role"`
	LinkedEntityID *string    `json:"linkedEntityId"`
	IsActive       bool       `json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the account
func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the account's hashed password
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// LinkedEntity returns the linked entity ID or "" when the account has
// not registered a profile yet (or is an admin).
func (a *Account) LinkedEntity() string {
	if a.LinkedEntityID == nil {
		return ""
	}
	return *a.LinkedEntityID
}

// Sanitize creates an AccountSanitized struct from an Account model, excluding sensitive data.
func (a *Account) Sanitize() AccountSanitized {
	return AccountSanitized{
		ID:             a.ID,
		Username:       a.Username,
		Role:           a.Role,
		LinkedEntityID: a.LinkedEntityID,
		IsActive:       a.IsActive,
		LastLogin:      a.LastLogin,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
