package db

import (
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

type Request struct {
	ID          string    `gorm:"primaryKey"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"type:text;not null"`
	Category    string    `gorm:"index;not null"`
	Urgency     string    `gorm:"not null"`
	Condition   string    `gorm:"not null"`
	Location    string    `gorm:"not null"`
	Tags        []string  `gorm:"serializer:json"`
	RequesterID string    `gorm:"index;not null"`
	Status      string    `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
	Offers      []Offer   `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
}

type Offer struct {
	ID         string `gorm:"primaryKey"`
	RequestID  string `gorm:"index;not null"`
	Position   int    `gorm:"not null"`
	ItemID     string `gorm:"not null"`
	OffererID  string `gorm:"index;not null"`
	Message    string `gorm:"type:text;not null"`
	Status     string `gorm:"not null"`
	CreatedAt  time.Time
	AcceptedAt *time.Time
	DeclinedAt *time.Time
}

type Item struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"index;not null"`
	OwnerID     string `gorm:"index;not null"`
	Condition   string
	CreatedAt   time.Time
}

func requestFromDomain(r domain.Request) Request {
	rec := Request{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    string(r.Category),
		Urgency:     string(r.Urgency),
		Condition:   string(r.Condition),
		Location:    r.Location,
		Tags:        r.Tags,
		RequesterID: r.RequesterID,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	rec.Offers = make([]Offer, len(r.Offers))
	for i, o := range r.Offers {
		rec.Offers[i] = Offer{
			ID:         o.ID,
			RequestID:  r.ID,
			Position:   i,
			ItemID:     o.ItemID,
			OffererID:  o.OffererID,
			Message:    o.Message,
			Status:     string(o.Status),
			CreatedAt:  o.CreatedAt,
			AcceptedAt: o.AcceptedAt,
			DeclinedAt: o.DeclinedAt,
		}
	}
	return rec
}

func (rec Request) toDomain() domain.Request {
	r := domain.Request{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    domain.Category(rec.Category),
		Urgency:     domain.Urgency(rec.Urgency),
		Condition:   domain.Condition(rec.Condition),
		Location:    rec.Location,
		Tags:        rec.Tags,
		RequesterID: rec.RequesterID,
		Status:      domain.RequestStatus(rec.Status),
		CreatedAt:   rec.CreatedAt,
		ExpiresAt:   rec.ExpiresAt,
		Offers:      make([]domain.Offer, len(rec.Offers)),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	for i, o := range rec.Offers {
		r.Offers[i] = domain.Offer{
			ID:         o.ID,
			ItemID:     o.ItemID,
			OffererID:  o.OffererID,
			Message:    o.Message,
			Status:     domain.OfferStatus(o.Status),
			CreatedAt:  o.CreatedAt,
			AcceptedAt: o.AcceptedAt,
			DeclinedAt: o.DeclinedAt,
		}
	}
	return r
}

func itemFromDomain(it domain.Item) Item {
	return Item{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Category:    string(it.Category),
		OwnerID:     it.OwnerID,
		Condition:   string(it.Condition),
	}
}

func (rec Item) toDomain() domain.Item {
	return domain.Item{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    domain.Category(rec.Category),
		OwnerID:     rec.OwnerID,
		Condition:   domain.Condition(rec.Condition),
	}
}
