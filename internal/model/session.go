package model

import (
	"encoding/json"
	"time"
)

// Session phases. Transitions are linear; PhaseCompleted is terminal.
const (
	PhaseCreated      = "created"
	PhaseReading      = "reading"
	PhaseConsultation = "consultation"
	PhaseFeedback     = "feedback"
	PhaseCompleted    = "completed"
)

const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

const (
	TimingTimed   = "timed"
	TimingUntimed = "untimed"
)

// Session is a multi-role practice encounter joined by a short code.
// UsedCaseIDs is stored as a JSON array of case ids for portability.
// PhaseGeneration increments on every phase transition so a stale timer
// expiry can detect it lost the race against a manual skip.
type Session struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Code                string     `gorm:"size:12;not null;uniqueIndex" json:"code"`
	HostID              uint       `gorm:"not null;index" json:"host_id"`
	Phase               string     `gorm:"size:16;not null" json:"phase"`
	Status              string     `gorm:"size:16;not null" json:"status"`
	TimingType          string     `gorm:"size:16;not null" json:"timing_type"`
	ReadingMinutes      int        `gorm:"not null" json:"reading_minutes"`
	ConsultationMinutes int        `gorm:"not null" json:"consultation_minutes"`
	FeedbackMinutes     int        `gorm:"not null" json:"feedback_minutes"`
	SelectedCaseID      uint       `gorm:"index" json:"selected_case_id"` // 0 = no case selected
	Round               int        `gorm:"not null" json:"round"`
	PhaseGeneration     int        `gorm:"not null" json:"phase_generation"`
	UsedCaseIDs         string     `gorm:"type:text" json:"-"` // JSON array of uint
	PhaseStartedAt      *time.Time `json:"phase_started_at,omitempty"`
	PhaseDeadline       *time.Time `json:"phase_deadline,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NextPhase returns the phase following p, or PhaseCompleted if p is
// already terminal or unknown.
func NextPhase(p string) string {
	switch p {
	case PhaseCreated:
		return PhaseReading
	case PhaseReading:
		return PhaseConsultation
	case PhaseConsultation:
		return PhaseFeedback
	case PhaseFeedback:
		return PhaseCompleted
	default:
		return PhaseCompleted
	}
}

// PhaseDuration returns how long the session stays in phase p, or zero
// for phases without a timer (created, feedback in untimed mode, completed).
func (s *Session) PhaseDuration(p string) time.Duration {
	if s.TimingType != TimingTimed {
		return 0
	}
	switch p {
	case PhaseReading:
		return time.Duration(s.ReadingMinutes) * time.Minute
	case PhaseConsultation:
		return time.Duration(s.ConsultationMinutes) * time.Minute
	case PhaseFeedback:
		return time.Duration(s.FeedbackMinutes) * time.Minute
	default:
		return 0
	}
}

// UsedCaseList returns the parsed used-case ids; empty on parse error.
func (s *Session) UsedCaseList() []uint {
	if s.UsedCaseIDs == "" {
		return nil
	}
	var ids []uint
	_ = json.Unmarshal([]byte(s.UsedCaseIDs), &ids)
	return ids
}

// AddUsedCase appends id to the used-case list if not already present.
func (s *Session) AddUsedCase(id uint) {
	ids := s.UsedCaseList()
	for _, existing := range ids {
		if existing == id {
			return
		}
	}
	ids = append(ids, id)
	b, _ := json.Marshal(ids)
	s.UsedCaseIDs = string(b)
}

// HasUsedCase reports whether id is in the used-case list.
func (s *Session) HasUsedCase(id uint) bool {
	for _, existing := range s.UsedCaseList() {
		if existing == id {
			return true
		}
	}
	return false
}

// SessionState is the snapshot served to clients and cached in Redis.
// ServerTime is the authoritative clock clients reconcile countdowns against;
// it is stamped at read time, never from the cache.
type SessionState struct {
	Session      Session              `json:"session"`
	Participants []SessionParticipant `json:"participants"`
	SelectedCase *Case                `json:"selected_case,omitempty"`
	ServerTime   time.Time            `json:"server_time"`
}
