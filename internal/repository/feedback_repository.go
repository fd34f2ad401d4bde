package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plabroom/internal/model"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback row. Redeliveries from the persist queue
// carry the same client key, so conflicts are silently dropped.
func (r *FeedbackRepository) Create(f *model.Feedback) error {
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(f).Error; err != nil {
		return fmt.Errorf("create feedback failed: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) ListBySession(sessionID uint) ([]model.Feedback, error) {
	var feedbacks []model.Feedback
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&feedbacks).Error; err != nil {
		return nil, fmt.Errorf("list feedback failed: %w", err)
	}
	return feedbacks, nil
}

func (r *FeedbackRepository) ListBySessionAndRound(sessionID uint, round int) ([]model.Feedback, error) {
	var feedbacks []model.Feedback
	if err := r.db.Where("session_id = ? AND round = ?", sessionID, round).
		Order("created_at ASC").Find(&feedbacks).Error; err != nil {
		return nil, fmt.Errorf("list feedback by round failed: %w", err)
	}
	return feedbacks, nil
}
