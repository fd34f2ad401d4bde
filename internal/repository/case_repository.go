package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"plabroom/internal/model"
)

type CaseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Create(c *model.Case) error {
	if err := r.db.Create(c).Error; err != nil {
		return fmt.Errorf("create case failed: %w", err)
	}
	return nil
}

func (r *CaseRepository) GetByID(id uint) (*model.Case, error) {
	var c model.Case
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query case failed: %w", err)
	}
	return &c, nil
}

type CaseFilter struct {
	CategoryID   uint
	RecallAfter  *time.Time
	RecallBefore *time.Time
}

func (r *CaseRepository) List(filter CaseFilter) ([]model.Case, error) {
	query := r.db.Model(&model.Case{})
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.RecallAfter != nil {
		query = query.Where("recall_date >= ?", *filter.RecallAfter)
	}
	if filter.RecallBefore != nil {
		query = query.Where("recall_date <= ?", *filter.RecallBefore)
	}

	var cases []model.Case
	if err := query.Order("title ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("list cases failed: %w", err)
	}
	return cases, nil
}

// ListIDsByCategory returns all case ids in a category. The session
// service subtracts the used-case list from this before picking.
func (r *CaseRepository) ListIDsByCategory(categoryID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Case{}).Where("category_id = ?", categoryID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list case ids failed: %w", err)
	}
	return ids, nil
}

// CountUnused counts cases whose id is not in the exclusion list,
// across all categories. Zero means the session has exhausted the bank.
func (r *CaseRepository) CountUnused(excluded []uint) (int64, error) {
	query := r.db.Model(&model.Case{})
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}

	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count unused cases failed: %w", err)
	}
	return n, nil
}

func (r *CaseRepository) Save(c *model.Case) error {
	if err := r.db.Save(c).Error; err != nil {
		return fmt.Errorf("save case failed: %w", err)
	}
	return nil
}

func (r *CaseRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Case{}, id).Error; err != nil {
		return fmt.Errorf("delete case failed: %w", err)
	}
	return nil
}
