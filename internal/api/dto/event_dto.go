package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
)

// CreateEventRequest describes a new event. Slug is optional.
type CreateEventRequest struct {
	Name        string           `json:"event_name" validate:"required,max=200"`
	Description string           `json:"description" validate:"required"`
	StartDate   time.Time        `json:"start_date" validate:"required"`
	EndDate     time.Time        `json:"end_date" validate:"required,gtefield=StartDate"`
	Location    string           `json:"location" validate:"required,max=200"`
	Price       *decimal.Decimal `json:"ticketPrice" validate:"required"`
	Slug        string           `json:"event_slug" validate:"omitempty,max=200"`
	Spot        int              `json:"spot" validate:"required,gt=0"`
}

// UpdateEventRequest carries a partial update; omitted fields are kept.
type UpdateEventRequest struct {
	Name        *string          `json:"event_name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	Location    *string          `json:"location" validate:"omitempty,max=200"`
	Price       *decimal.Decimal `json:"ticketPrice"`
	Spot        *int             `json:"spot" validate:"omitempty,gte=0"`
}

// EventResponse is the public view of an event.
type EventResponse struct {
	ID          int64           `json:"event_id"`
	Name        string          `json:"event_name"`
	Description string          `json:"event_description"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `json:"event_price"`
	Slug        string          `json:"event_slug"`
	Spot        int             `json:"spot"`
	TicketsSold int             `json:"tickets_sold"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EventStatisticResponse is one organizer earnings row.
type EventStatisticResponse struct {
	EventID      int64           `json:"event_id"`
	EventName    string          `json:"event_name"`
	Year         string          `json:"year"`
	Month        string          `json:"month"`
	Day          string          `json:"day"`
	TicketsSold  int             `json:"tickets_sold"`
	TotalEarning decimal.Decimal `json:"total_earning"`
}

// NewEventResponse maps a domain event.
func NewEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Location:    e.Location,
		Price:       e.Price,
		Slug:        e.Slug,
		Spot:        e.Spot,
		TicketsSold: e.TicketsSold,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

// NewEventResponses maps a list of events.
func NewEventResponses(list []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(list))
	for i := range list {
		out = append(out, NewEventResponse(&list[i]))
	}
	return out
}

// NewEventStatisticResponses maps organizer statistics.
func NewEventStatisticResponses(stats []domain.EventStatistic) []EventStatisticResponse {
	out := make([]EventStatisticResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, EventStatisticResponse{
			EventID:      s.EventID,
			EventName:    s.EventName,
			Year:         s.Year,
			Month:        s.Month,
			Day:          s.Day,
			TicketsSold:  s.TicketsSold,
			TotalEarning: s.TotalEarning,
		})
	}
	return out
}
