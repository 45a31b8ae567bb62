package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eventbright/internal/domain"
)

// EventRepository encapsulates event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	// Update writes the descriptive columns and refreshes event from the
	// stored row. Capacity columns are left alone.
	Update(ctx context.Context, event *domain.Event) error
	// SetSpot overwrites the remaining capacity of the current row.
	SetSpot(ctx context.Context, id int64, spot int) (*domain.Event, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int64) ([]domain.Event, error)
	// ReserveSpot takes one ticket from the event's capacity in a single
	// conditional statement. pgx.ErrNoRows means the event is sold out or gone.
	ReserveSpot(ctx context.Context, id int64) (*domain.Event, error)
}

type eventRepository struct {
	db DB
}

// NewEventRepository instantiates repository.
func NewEventRepository(db DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, name, description, start_date, end_date, location, price, slug, spot, tickets_sold, created_by, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (name, description, start_date, end_date, location, price, slug, spot, tickets_sold, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Location,
		event.Price,
		event.Slug,
		event.Spot,
		event.TicketsSold,
		event.CreatedBy,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET name=$1, description=$2, start_date=$3, end_date=$4, location=$5,
            price=$6, slug=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING ` + eventColumns
	stored, err := scanEvent(r.db.QueryRow(ctx, query,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Location,
		event.Price,
		event.Slug,
		event.ID,
	))
	if err != nil {
		return err
	}
	*event = *stored
	return nil
}

func (r *eventRepository) SetSpot(ctx context.Context, id int64, spot int) (*domain.Event, error) {
	const query = `
        UPDATE events SET spot = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING ` + eventColumns
	return scanEvent(r.db.QueryRow(ctx, query, spot, id))
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	return scanEvent(row)
}

func (r *eventRepository) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID int64) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE created_by=$1 ORDER BY start_date ASC, id ASC`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) ReserveSpot(ctx context.Context, id int64) (*domain.Event, error) {
	const query = `
        UPDATE events SET spot = spot - 1, tickets_sold = tickets_sold + 1, updated_at = NOW()
        WHERE id = $1 AND spot > 0
        RETURNING ` + eventColumns
	return scanEvent(r.db.QueryRow(ctx, query, id))
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.Location,
		&event.Price,
		&event.Slug,
		&event.Spot,
		&event.TicketsSold,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	result := []domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *event)
	}
	return result, rows.Err()
}
