package app

import (
	"errors"
	"strings"
	"time"

	"plabroom/internal/model"
	"plabroom/internal/repository"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category still has cases")
)

// CaseStoreAdmin extends the selection-facing CaseStore with the CRUD
// surface used by admin endpoints.
type CaseStoreAdmin interface {
	CaseStore
	Create(c *model.Case) error
	List(filter repository.CaseFilter) ([]model.Case, error)
	Save(c *model.Case) error
	Delete(id uint) error
}

type CategoryStore interface {
	Create(category *model.Category) error
	GetByID(id uint) (*model.Category, error)
	GetByName(name string) (*model.Category, error)
	List() ([]model.Category, error)
	Save(category *model.Category) error
	Delete(id uint) error
}

type CaseService struct {
	cases      CaseStoreAdmin
	categories CategoryStore
}

func NewCaseService(cases CaseStoreAdmin, categories CategoryStore) *CaseService {
	return &CaseService{
		cases:      cases,
		categories: categories,
	}
}

type CaseInput struct {
	CategoryID   uint
	Title        string
	DoctorNotes  string
	PatientNotes string
	MarkingNotes string
	RecallDate   *time.Time
}

func (s *CaseService) CreateCase(input CaseInput) (*model.Case, error) {
	title := strings.TrimSpace(input.Title)
	if input.CategoryID == 0 || title == "" || strings.TrimSpace(input.DoctorNotes) == "" ||
		strings.TrimSpace(input.PatientNotes) == "" {
		return nil, ErrInvalidInput
	}

	category, err := s.categories.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	c := &model.Case{
		CategoryID:   input.CategoryID,
		Title:        title,
		DoctorNotes:  input.DoctorNotes,
		PatientNotes: input.PatientNotes,
		MarkingNotes: input.MarkingNotes,
		RecallDate:   input.RecallDate,
	}
	if err := s.cases.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CaseService) GetCase(id uint) (*model.Case, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	c, err := s.cases.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

func (s *CaseService) ListCases(filter repository.CaseFilter) ([]model.Case, error) {
	return s.cases.List(filter)
}

func (s *CaseService) UpdateCase(id uint, input CaseInput) (*model.Case, error) {
	c, err := s.GetCase(id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != 0 && input.CategoryID != c.CategoryID {
		category, err := s.categories.GetByID(input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		c.CategoryID = input.CategoryID
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		c.Title = title
	}
	if input.DoctorNotes != "" {
		c.DoctorNotes = input.DoctorNotes
	}
	if input.PatientNotes != "" {
		c.PatientNotes = input.PatientNotes
	}
	if input.MarkingNotes != "" {
		c.MarkingNotes = input.MarkingNotes
	}
	if input.RecallDate != nil {
		c.RecallDate = input.RecallDate
	}

	if err := s.cases.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CaseService) DeleteCase(id uint) error {
	if _, err := s.GetCase(id); err != nil {
		return err
	}
	return s.cases.Delete(id)
}

type CategoryInput struct {
	Name        string
	Description string
}

func (s *CaseService) CreateCategory(input CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.categories.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	category := &model.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.categories.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CaseService) ListCategories() ([]model.Category, error) {
	return s.categories.List()
}

func (s *CaseService) UpdateCategory(id uint, input CategoryInput) (*model.Category, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	category, err := s.categories.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		existing, err := s.categories.GetByName(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrCategoryExists
		}
		category.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		category.Description = desc
	}

	if err := s.categories.Save(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CaseService) DeleteCategory(id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	category, err := s.categories.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	ids, err := s.cases.ListIDsByCategory(id)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return ErrCategoryInUse
	}

	return s.categories.Delete(id)
}
