package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// EventCreateInput describes a new event.
type EventCreateInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Location    string
	Price       decimal.Decimal
	Slug        string
	Spot        int
}

// EventUpdateInput carries optional changes; nil fields are left as is.
type EventUpdateInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Location    *string
	Price       *decimal.Decimal
	Spot        *int
}

// EventService manages the event catalogue for organizers and buyers.
type EventService struct {
	events       repository.EventRepository
	transactions repository.TransactionRepository
}

// NewEventService constructs the service.
func NewEventService(repos repository.Repositories) *EventService {
	return &EventService{events: repos.Events, transactions: repos.Transactions}
}

// Create stores a new event owned by organizerID. The slug defaults to a
// slugified name.
func (s *EventService) Create(ctx context.Context, organizerID int64, in EventCreateInput) (*domain.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if in.Name == "" || in.Description == "" || in.Location == "" || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, apperrors.NewValidationError("all fields except slug are required", nil)
	}
	if in.Spot <= 0 {
		return nil, apperrors.NewValidationError("spot must be a positive integer", nil)
	}
	if in.Price.IsNegative() {
		return nil, apperrors.NewValidationError("price must not be negative", nil)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, apperrors.NewValidationError("end date must not precede start date", nil)
	}

	eventSlug := slug.Make(in.Slug)
	if eventSlug == "" {
		eventSlug = slug.Make(in.Name)
	}

	event := &domain.Event{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Location:    in.Location,
		Price:       in.Price,
		Slug:        eventSlug,
		Spot:        in.Spot,
		CreatedBy:   organizerID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("event slug already in use", map[string]any{"slug": eventSlug})
		}
		return nil, err
	}
	return event, nil
}

// List returns every event ordered by start date.
func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx)
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundEvent(err, id)
	}
	return event, nil
}

// Update applies the non-nil fields of in to an event owned by organizerID.
func (s *EventService) Update(ctx context.Context, organizerID, id int64, in EventUpdateInput) (*domain.Event, error) {
	event, err := s.owned(ctx, organizerID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		event.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		event.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil && strings.TrimSpace(*in.Location) != "" {
		event.Location = strings.TrimSpace(*in.Location)
	}
	if in.StartDate != nil {
		event.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		event.EndDate = *in.EndDate
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperrors.NewValidationError("price must not be negative", nil)
		}
		event.Price = *in.Price
	}
	if in.Spot != nil && *in.Spot < 0 {
		return nil, apperrors.NewValidationError("spot must not be negative", nil)
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, apperrors.NewValidationError("end date must not precede start date", nil)
	}

	if err := s.events.Update(ctx, event); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("event slug already in use", map[string]any{"slug": event.Slug})
		}
		return nil, notFoundEvent(err, id)
	}
	if in.Spot != nil {
		event, err = s.events.SetSpot(ctx, id, *in.Spot)
		if err != nil {
			return nil, notFoundEvent(err, id)
		}
	}
	return event, nil
}

// Delete removes an event owned by organizerID. Events with sales or
// submitted payments are kept.
func (s *EventService) Delete(ctx context.Context, organizerID, id int64) error {
	event, err := s.owned(ctx, organizerID, id)
	if err != nil {
		return err
	}
	if event.TicketsSold > 0 {
		return eventHasTransactions(id)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return eventHasTransactions(id)
		}
		return notFoundEvent(err, id)
	}
	return nil
}

func eventHasTransactions(id int64) error {
	return apperrors.NewConflict("event has transactions and cannot be deleted", map[string]any{"event_id": id})
}

// ListByOrganizer returns the organizer's own events.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID int64) ([]domain.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

// Attendees returns the buyer names of every transaction for the event.
func (s *EventService) Attendees(ctx context.Context, organizerID, id int64) ([]string, error) {
	details, err := s.Transactions(ctx, organizerID, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(details))
	for _, detail := range details {
		names = append(names, detail.BuyerName)
	}
	return names, nil
}

// Transactions lists the event's transactions with buyer and voucher details.
func (s *EventService) Transactions(ctx context.Context, organizerID, id int64) ([]domain.TransactionDetail, error) {
	if _, err := s.owned(ctx, organizerID, id); err != nil {
		return nil, err
	}
	return s.transactions.ListByEvent(ctx, id)
}

// Statistics reports per-event earnings for the organizer, dated by the
// event's start date in UTC.
func (s *EventService) Statistics(ctx context.Context, organizerID int64) ([]domain.EventStatistic, error) {
	owned, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	stats := make([]domain.EventStatistic, 0, len(owned))
	for _, event := range owned {
		start := event.StartDate.UTC()
		stats = append(stats, domain.EventStatistic{
			EventID:      event.ID,
			EventName:    event.Name,
			Year:         start.Format("2006"),
			Month:        start.Format("January"),
			Day:          start.Format("2006-01-02"),
			TicketsSold:  event.TicketsSold,
			TotalEarning: event.Price.Mul(decimal.NewFromInt(int64(event.TicketsSold))),
		})
	}
	return stats, nil
}

func (s *EventService) owned(ctx context.Context, organizerID, id int64) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundEvent(err, id)
	}
	if event.CreatedBy != organizerID {
		return nil, apperrors.NewForbidden("event belongs to another organizer")
	}
	return event, nil
}

func notFoundEvent(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("event", map[string]any{"event_id": id})
	}
	return err
}
