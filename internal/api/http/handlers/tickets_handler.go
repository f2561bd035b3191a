package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/api/dto"
	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/service"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// TicketsHandler exposes ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return util.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return util.NewValidationError("title and description required", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), principal.User.ID, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	})
	if err != nil {
		return err
	}
	return createdResponse(c, ticketResponse(ticket))
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var actor *domain.User
	if principal != nil {
		actor = principal.User
	}

	page, limit := pageQuery(c)
	input := service.TicketListInput{
		SearchTerm: optionalQuery(c, "search"),
		Page:       page,
		Limit:      limit,
	}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		input.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := domain.TicketPriority(priority)
		input.Priority = &p
	}
	input.AssignedToID = optionalQuery(c, "assignedTo")

	tickets, meta, err := h.service.FindAll(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return pageResponse(c, items, meta)
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, ticketResponse(ticket))
}

// GetByReference GET /tickets/reference/:reference.
func (h *TicketsHandler) GetByReference(c *fiber.Ctx) error {
	ticket, err := h.service.FindByReference(c.UserContext(), c.Params("reference"))
	if err != nil {
		return err
	}
	return dataResponse(c, ticketResponse(ticket))
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, ticketResponse(ticket))
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.AssignedToID == "" {
		return util.NewValidationError("assignedToId required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), c.Params("id"), req.AssignedToID)
	if err != nil {
		return err
	}
	return dataResponse(c, ticketResponse(ticket))
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return dataResponse(c, ticketResponse(ticket))
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return util.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return util.NewValidationError("content required", nil)
	}
	// Clients cannot file internal notes.
	isInternal := req.IsInternal && principal.RoleName() != domain.RoleClient

	comment, err := h.service.AddComment(c.UserContext(), c.Params("id"), principal.User.ID, req.Content, isInternal)
	if err != nil {
		return err
	}
	return createdResponse(c, commentResponse(comment))
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var actor *domain.User
	if principal != nil {
		actor = principal.User
	}
	comments, err := h.service.Comments(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return dataResponse(c, items)
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return dataResponse(c, dto.TicketStatsResponse{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		ByPriority: stats.ByPriority,
		Critical:   stats.Critical,
	})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		Reference:    ticket.Reference,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		CreatedByID:  ticket.CreatedByID,
		AssignedToID: ticket.AssignedToID,
		DueDate:      ticket.DueDate,
		ResolvedAt:   ticket.ResolvedAt,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}
