package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"plabroom/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByCode(code string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("code = ?", code).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session by code failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) ListActiveByHostID(hostID uint) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.Where("host_id = ? AND status = ?", hostID, model.SessionStatusActive).
		Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) Save(session *model.Session) error {
	if err := r.db.Save(session).Error; err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}
