package model

import "time"

type StaffRole string

const (
	StaffRoleDoctor       StaffRole = "doctor"
	StaffRoleReceptionist StaffRole = "receptionist"
)

// Staff status constants
const (
	StaffStatusActive   = "active"
	StaffStatusPending  = "pending"
	StaffStatusDisabled = "disabled"
	StaffStatusLocked   = "locked"
)

// Staff is a clinic operator account. FullName is the canonical display
// identity matched against free-text doctor name fields on legacy rows.
type Staff struct {
	Base
	Email               string     `db:"email" json:"email"`
	FullName            string     `db:"full_name" json:"full_name"`
	Phone               string     `db:"phone" json:"phone,omitempty"`
	Role                StaffRole  `db:"role" json:"role"`
	Specialization      string     `db:"specialization" json:"specialization,omitempty"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Status              string     `db:"status" json:"status"`
	EmailVerified       bool       `db:"email_verified" json:"email_verified"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type UpdateStaffRequest struct {
	FullName       *string `json:"full_name"`
	Phone          *string `json:"phone"`
	Specialization *string `json:"specialization"`
	Status         *string `json:"status" binding:"omitempty,oneof=active pending disabled locked"`
}
