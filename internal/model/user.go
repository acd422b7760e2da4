package model

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the work factor used when hashing user passwords.
var BcryptCost = 12

// Role is the authorization role of a user.
type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RoleOrganization Role = "organization"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOrganization:
		return true
	}
	return false
}

// User represents an account that can create campaigns and donate.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string    `json:"-" gorm:"column:password;size:255;not null"`
	WalletAddress string    `json:"walletAddress" gorm:"size:64;default:''"`
	Role          Role      `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Avatar        string    `json:"avatar" gorm:"size:512;default:''"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Password carries a new plaintext password until the next save hashes it.
	Password string `json:"-" gorm:"-"`
}

// BeforeSave hashes a pending plaintext password. Saves that do not set one
// leave the stored hash untouched.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Password == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hashed)
	u.Password = ""
	return nil
}

// CheckPassword compares a candidate plaintext with the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
