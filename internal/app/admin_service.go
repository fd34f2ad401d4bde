package app

import (
	"errors"

	"plabroom/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type AdminService struct {
	users UserStore
}

func NewAdminService(users UserStore) *AdminService {
	return &AdminService{users: users}
}

func (s *AdminService) ListUsers() ([]model.User, error) {
	return s.users.List()
}

type UpdateUserFlagsInput struct {
	IsAdmin *bool
	Active  *bool
}

// UpdateUserFlags toggles the admin/active flags. An admin cannot
// strip their own admin bit, which keeps at least one admin reachable.
func (s *AdminService) UpdateUserFlags(actorID, userID uint, input UpdateUserFlagsInput) (*model.User, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if actorID == userID && input.IsAdmin != nil && !*input.IsAdmin {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.users.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}
