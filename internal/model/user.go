package model

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// User stores system users with role-based access.
// Role: "admin" | "staff" | "user"
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(80);uniqueIndex;not null"`
	Email        string `gorm:"type:varchar(120);uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null;default:'user'"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleUser
}
