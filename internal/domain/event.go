package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed event owned by the organizer who created it.
type Event struct {
	ID          int64
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	Price       decimal.Decimal
	Slug        string
	Spot        int
	TicketsSold int
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCapacity reports whether at least one ticket is left.
func (e *Event) HasCapacity() bool {
	return e != nil && e.Spot > 0
}

// EventStatistic is one row of an organizer's earnings report.
type EventStatistic struct {
	EventID      int64
	EventName    string
	Year         string
	Month        string
	Day          string
	TicketsSold  int
	TotalEarning decimal.Decimal
}
