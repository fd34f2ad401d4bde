package model

import "time"

// Feedback score bounds (PLAB 2 domains are marked 0-4).
const (
	FeedbackScoreMin = 0
	FeedbackScoreMax = 4
)

// Feedback is one participant's scoring of another for a single round.
// ClientKey deduplicates retried submissions travelling through the
// persist queue; the composite unique index enforces one row per
// (session, case, round, author).
type Feedback struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;uniqueIndex:idx_feedback_round;index" json:"session_id"`
	CaseID        uint      `gorm:"not null;uniqueIndex:idx_feedback_round" json:"case_id"`
	Round         int       `gorm:"not null;uniqueIndex:idx_feedback_round" json:"round"`
	AuthorID      uint      `gorm:"not null;uniqueIndex:idx_feedback_round" json:"author_id"`
	RecipientID   uint      `gorm:"not null;index" json:"recipient_id"`
	DataGathering int       `gorm:"not null" json:"data_gathering"`
	Management    int       `gorm:"not null" json:"management"`
	Interpersonal int       `gorm:"not null" json:"interpersonal"`
	Comment       string    `gorm:"type:text" json:"comment"`
	ClientKey     string    `gorm:"size:36;uniqueIndex" json:"client_key"`
	CreatedAt     time.Time `json:"created_at"`
}
