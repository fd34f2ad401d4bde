package model

import "time"

// Participant roles. Doctor and patient are exclusive per session,
// observers are unbounded.
const (
	RoleDoctor   = "doctor"
	RolePatient  = "patient"
	RoleObserver = "observer"
)

// ExclusiveRole reports whether role may be held by at most one active
// participant per session.
func ExclusiveRole(role string) bool {
	return role == RoleDoctor || role == RolePatient
}

// ValidRole reports whether role is one of the known participant roles.
func ValidRole(role string) bool {
	return role == RoleDoctor || role == RolePatient || role == RoleObserver
}

// SessionParticipant links a user to a session with a role. Rows are
// never deleted while the session lives; leaving flips Active off.
// CompletedRound records the highest round the participant finished.
type SessionParticipant struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SessionID      uint      `gorm:"not null;uniqueIndex:idx_session_user" json:"session_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_session_user;index" json:"user_id"`
	Username       string    `gorm:"size:64;not null" json:"username"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CompletedRound int       `gorm:"not null" json:"completed_round"`
	JoinedAt       time.Time `json:"joined_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
