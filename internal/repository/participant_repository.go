package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"plabroom/internal/model"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(p *model.SessionParticipant) error {
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("create participant failed: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) GetBySessionAndUser(sessionID, userID uint) (*model.SessionParticipant, error) {
	var p model.SessionParticipant
	if err := r.db.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query participant failed: %w", err)
	}
	return &p, nil
}

func (r *ParticipantRepository) ListBySessionID(sessionID uint) ([]model.SessionParticipant, error) {
	var participants []model.SessionParticipant
	if err := r.db.Where("session_id = ?", sessionID).Order("joined_at ASC").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("list participants failed: %w", err)
	}
	return participants, nil
}

// GetActiveByRole returns the active holder of an exclusive role, or nil.
func (r *ParticipantRepository) GetActiveByRole(sessionID uint, role string) (*model.SessionParticipant, error) {
	var p model.SessionParticipant
	if err := r.db.Where("session_id = ? AND role = ? AND active = ?", sessionID, role, true).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query participant by role failed: %w", err)
	}
	return &p, nil
}

func (r *ParticipantRepository) Save(p *model.SessionParticipant) error {
	if err := r.db.Save(p).Error; err != nil {
		return fmt.Errorf("save participant failed: %w", err)
	}
	return nil
}
