package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/api/dto"
	"github.com/spec-kit/eventbright/internal/service"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// EventsHandler exposes the event catalogue and organizer views.
type EventsHandler struct {
	events *service.EventService
}

// NewEventsHandler constructs handler.
func NewEventsHandler(events *service.EventService) *EventsHandler {
	return &EventsHandler{events: events}
}

// Create handles POST /event/create.
func (h *EventsHandler) Create(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	event, err := h.events.Create(c.UserContext(), who.UserID, service.EventCreateInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location:    req.Location,
		Price:       *req.Price,
		Slug:        req.Slug,
		Spot:        req.Spot,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Event created successfully",
		"event":   dto.NewEventResponse(event),
	})
}

// List handles GET /event/list.
func (h *EventsHandler) List(c *fiber.Ctx) error {
	list, err := h.events.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"events": dto.NewEventResponses(list)})
}

// Get handles GET /event/:eventId.
func (h *EventsHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "eventId")
	if err != nil {
		return err
	}
	event, err := h.events.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"event": dto.NewEventResponse(event)})
}

// Update handles PUT /event/:eventId.
func (h *EventsHandler) Update(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "eventId")
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	event, err := h.events.Update(c.UserContext(), who.UserID, id, service.EventUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location:    req.Location,
		Price:       req.Price,
		Spot:        req.Spot,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"event": dto.NewEventResponse(event)})
}

// Delete handles DELETE /event/:eventId.
func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "eventId")
	if err != nil {
		return err
	}
	if err := h.events.Delete(c.UserContext(), who.UserID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Event deleted successfully"})
}

// OrganizerEvents handles GET /event/organizer/events.
func (h *EventsHandler) OrganizerEvents(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.events.ListByOrganizer(c.UserContext(), who.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"events": dto.NewEventResponses(list)})
}

// Statistics handles GET /event/organizer/statistics.
func (h *EventsHandler) Statistics(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.events.Statistics(c.UserContext(), who.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"statistics": dto.NewEventStatisticResponses(stats)})
}

// Attendees handles GET /event/:eventId/attendees.
func (h *EventsHandler) Attendees(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "eventId")
	if err != nil {
		return err
	}
	names, err := h.events.Attendees(c.UserContext(), who.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"attendees": names})
}

// Transactions handles GET /event/:eventId/transactions.
func (h *EventsHandler) Transactions(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "eventId")
	if err != nil {
		return err
	}
	rows, err := h.events.Transactions(c.UserContext(), who.UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"transactions": dto.NewTransactionDetailResponses(rows)})
}
