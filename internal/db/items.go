package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemCatalog is the read model of shareable items used for matching.
// Put exists so the catalog can be seeded; the engine itself only reads.
type ItemCatalog struct {
	db *gorm.DB
}

func NewItemCatalog(d *gorm.DB) *ItemCatalog {
	return &ItemCatalog{db: d}
}

func (c *ItemCatalog) Put(item domain.Item) error {
	switch {
	case strings.TrimSpace(item.ID) == "":
		return domain.NewValidationError("id", "is required")
	case strings.TrimSpace(item.Title) == "":
		return domain.NewValidationError("title", "is required")
	case strings.TrimSpace(item.OwnerID) == "":
		return domain.NewValidationError("owner_id", "is required")
	case !item.Category.IsValid():
		return domain.NewValidationError("category", "is not one of clothing, electronics, furniture, household, other")
	case item.Condition != "" && !item.Condition.IsValid():
		return domain.NewValidationError("condition", "is not one of any, excellent, good, fair")
	}

	rec := itemFromDomain(item)
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "category", "owner_id", "condition"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}

func (c *ItemCatalog) Get(id string) (domain.Item, error) {
	var rec Item
	if err := c.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Item{}, domain.NewNotFoundError("item", id)
		}
		return domain.Item{}, fmt.Errorf("failed to fetch item %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

// List returns every item in insertion order.
func (c *ItemCatalog) List() ([]domain.Item, error) {
	return c.find(c.db)
}

func (c *ItemCatalog) ByOwner(ownerID string) ([]domain.Item, error) {
	return c.find(c.db.Where("owner_id = ?", ownerID))
}

func (c *ItemCatalog) find(q *gorm.DB) ([]domain.Item, error) {
	var records []Item
	if err := q.Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	out := make([]domain.Item, len(records))
	for i, rec := range records {
		out[i] = rec.toDomain()
	}
	return out, nil
}
