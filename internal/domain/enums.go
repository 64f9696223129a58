package domain

type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryHousehold   Category = "household"
	CategoryOther       Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryClothing, CategoryElectronics, CategoryFurniture, CategoryHousehold, CategoryOther:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Rank orders urgencies so that high sorts before low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

type Condition string

const (
	ConditionAny       Condition = "any"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
)

func (c Condition) IsValid() bool {
	switch c {
	case ConditionAny, ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestActive    RequestStatus = "active"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestExpired   RequestStatus = "expired"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestActive, RequestFulfilled, RequestExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave s.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestFulfilled || s == RequestExpired
}

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferDeclined:
		return true
	}
	return false
}
