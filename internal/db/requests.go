package db

import (
	"fmt"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository persists requests and their offers. It satisfies
// store.Persister.
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(d *gorm.DB) *RequestRepository {
	return &RequestRepository{db: d}
}

func (r *RequestRepository) LoadAll() ([]domain.Request, error) {
	var records []Request
	err := r.db.
		Preload("Offers", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	out := make([]domain.Request, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}

// Save writes the request row and replaces its offer rows in one
// transaction.
func (r *RequestRepository) Save(req domain.Request) error {
	rec := requestFromDomain(req)
	offers := rec.Offers
	rec.Offers = nil

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to upsert request %s: %w", req.ID, err)
		}
		if err := tx.Where("request_id = ?", req.ID).Delete(&Offer{}).Error; err != nil {
			return fmt.Errorf("failed to clear offers of %s: %w", req.ID, err)
		}
		if len(offers) == 0 {
			return nil
		}
		if err := tx.Create(&offers).Error; err != nil {
			return fmt.Errorf("failed to write offers of %s: %w", req.ID, err)
		}
		return nil
	})
}

func (r *RequestRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&Offer{}).Error; err != nil {
			return fmt.Errorf("failed to delete offers of %s: %w", id, err)
		}
		if err := tx.Where("id = ?", id).Delete(&Request{}).Error; err != nil {
			return fmt.Errorf("failed to delete request %s: %w", id, err)
		}
		return nil
	})
}
